package refnum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderNumber(t *testing.T) {
	assert.Equal(t, "NUV-2026-000001", OrderNumber(2026, 1))
	assert.Equal(t, "NUV-2026-000042", OrderNumber(2026, 42))
	assert.Equal(t, "NUV-2027-123456", OrderNumber(2027, 123456))
	assert.Equal(t, "NUV-2026-1234567", OrderNumber(2026, 1234567))
}

func TestBookingNumber(t *testing.T) {
	assert.Equal(t, "BK-00001", BookingNumber(1))
	assert.Equal(t, "BK-00042", BookingNumber(42))
	assert.Equal(t, "BK-123456", BookingNumber(123456))
}

func TestCounterNames(t *testing.T) {
	assert.Equal(t, "NUV-2026", OrderCounter(2026))
	assert.NotEqual(t, OrderCounter(2026), OrderCounter(2027))
	assert.Equal(t, "BK", BookingCounter())
}

func TestRefClassification(t *testing.T) {
	assert.True(t, IsOrderRef("NUV-2026-000042"))
	assert.False(t, IsOrderRef("BK-00042"))
	assert.False(t, IsOrderRef("NUVX-000042"))

	assert.True(t, IsBookingRef("BK-00042"))
	assert.False(t, IsBookingRef("NUV-2026-000042"))
	assert.False(t, IsBookingRef(""))
}

func TestSequence(t *testing.T) {
	seq, err := Sequence("NUV-2026-000042")
	require.NoError(t, err)
	assert.Equal(t, int64(42), seq)

	seq, err = Sequence("BK-00007")
	require.NoError(t, err)
	assert.Equal(t, int64(7), seq)

	_, err = Sequence("garbage")
	assert.Error(t, err)

	_, err = Sequence("NUV-2026-")
	assert.Error(t, err)
}
