// Package refnum formats and parses the human-readable reference codes
// assigned to orders and bookings. Sequence allocation itself is done by the
// store's atomic counter; this package only deals with the textual form.
package refnum

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	orderPrefix   = "NUV"
	bookingPrefix = "BK"
)

// OrderCounter names the per-year counter row backing order numbers.
func OrderCounter(year int) string {
	return fmt.Sprintf("%s-%d", orderPrefix, year)
}

// BookingCounter names the single global counter row backing booking numbers.
func BookingCounter() string {
	return bookingPrefix
}

// OrderNumber renders an order reference, e.g. NUV-2026-000042.
func OrderNumber(year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%06d", orderPrefix, year, seq)
}

// BookingNumber renders a booking reference, e.g. BK-00042.
func BookingNumber(seq int64) string {
	return fmt.Sprintf("%s-%05d", bookingPrefix, seq)
}

// IsOrderRef reports whether a transaction reference names an order.
func IsOrderRef(ref string) bool {
	return strings.HasPrefix(ref, orderPrefix+"-")
}

// IsBookingRef reports whether a transaction reference names a booking.
func IsBookingRef(ref string) bool {
	return strings.HasPrefix(ref, bookingPrefix+"-")
}

// Sequence extracts the numeric suffix of a reference code.
func Sequence(ref string) (int64, error) {
	idx := strings.LastIndex(ref, "-")
	if idx < 0 || idx == len(ref)-1 {
		return 0, fmt.Errorf("malformed reference: %s", ref)
	}
	seq, err := strconv.ParseInt(ref[idx+1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed reference %s: %w", ref, err)
	}
	return seq, nil
}
