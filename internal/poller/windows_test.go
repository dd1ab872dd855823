package poller

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWindows(t *testing.T) {
	windows, err := ParseWindows("07:30-11:30, 12:30-21:30")
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, Window{Start: 7*60 + 30, End: 11*60 + 30}, windows[0])
	assert.Equal(t, Window{Start: 12*60 + 30, End: 21*60 + 30}, windows[1])
}

func TestParseWindows_Invalid(t *testing.T) {
	cases := []string{
		"",
		"07:30",
		"7h30-11h30",
		"11:30-07:30", // end before start
		"07:30-07:30", // empty interval
		"25:00-26:00",
	}
	for _, raw := range cases {
		_, err := ParseWindows(raw)
		assert.Error(t, err, "input %q", raw)
	}
}

func TestWindowsContains(t *testing.T) {
	windows, err := ParseWindows("07:30-11:30,12:30-21:30")
	require.NoError(t, err)

	at := func(h, m int) time.Time {
		return time.Date(2026, 8, 28, h, m, 0, 0, time.UTC)
	}

	assert.False(t, windows.Contains(at(7, 29)))
	assert.True(t, windows.Contains(at(7, 30)), "start is inclusive")
	assert.True(t, windows.Contains(at(10, 0)))
	assert.False(t, windows.Contains(at(11, 30)), "end is exclusive")
	assert.False(t, windows.Contains(at(12, 0)), "lunch gap")
	assert.True(t, windows.Contains(at(12, 30)))
	assert.True(t, windows.Contains(at(21, 29)))
	assert.False(t, windows.Contains(at(21, 30)))
}
