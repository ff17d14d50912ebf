package service

import (
	"testing"
	"time"

	"commerce-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchedule(t *testing.T) {
	scheduled, err := parseSchedule("2026-09-15", "14:30")
	require.NoError(t, err)
	require.NotNil(t, scheduled)
	assert.Equal(t, time.Date(2026, 9, 15, 14, 30, 0, 0, time.UTC), scheduled.UTC())
}

func TestParseScheduleDefaultsTime(t *testing.T) {
	scheduled, err := parseSchedule("2026-09-15", "")
	require.NoError(t, err)
	require.NotNil(t, scheduled)
	assert.Equal(t, 0, scheduled.Hour())
	assert.Equal(t, 0, scheduled.Minute())
}

func TestParseScheduleEmptyDate(t *testing.T) {
	scheduled, err := parseSchedule("", "14:30")
	require.NoError(t, err)
	assert.Nil(t, scheduled)
}

func TestParseScheduleInvalid(t *testing.T) {
	_, err := parseSchedule("15/09/2026", "14:30")
	assert.ErrorIs(t, err, models.ErrInvalidSchedule)

	_, err = parseSchedule("2026-09-15", "2pm")
	assert.ErrorIs(t, err, models.ErrInvalidSchedule)
}

func TestServiceFee(t *testing.T) {
	price := 200.0
	fee := price * serviceFeeRate

	assert.InDelta(t, 10.0, fee, 0.001)
	assert.InDelta(t, 210.0, price+fee, 0.001)
}
