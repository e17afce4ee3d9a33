package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	cases := map[string]time.Time{
		"2025-01-15T10:30:00Z":      time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
		"2025-01-15T10:30:00.123Z":  time.Date(2025, 1, 15, 10, 30, 0, 123000000, time.UTC),
		"2025-01-15T10:30:00":       time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
		"2025-01-15 10:30:00":       time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
		"2025-01-15":                time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		"  2025-01-15T10:30:00Z  ": time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
	}
	for raw, want := range cases {
		parsed, err := ParseTime(raw)
		require.NoError(t, err, raw)
		assert.True(t, want.Equal(parsed), raw)
	}
}

func TestParseTimeUnixSeconds(t *testing.T) {
	parsed, err := ParseTime("1736936200")
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1736936200, 0), parsed)
}

func TestParseTimeInvalid(t *testing.T) {
	for _, raw := range []string{"", "not-a-date", "15/01/2025"} {
		_, err := ParseTime(raw)
		assert.Error(t, err, raw)
	}
}
