package poller

import (
	"fmt"
	"strings"
	"time"
)

// Window is one active interval within a day, inclusive of Start, exclusive
// of End.
type Window struct {
	Start, End int // minutes since midnight
}

// Windows is the set of local-time intervals in which polling may run.
type Windows []Window

// ParseWindows parses the ACTIVE_HOURS syntax "07:30-11:30,12:30-21:30".
func ParseWindows(raw string) (Windows, error) {
	var windows Windows
	for _, clause := range strings.Split(raw, ",") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		parts := strings.SplitN(clause, "-", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("active hours %q: want start-end", clause)
		}
		start, err := parseHHMM(parts[0])
		if err != nil {
			return nil, fmt.Errorf("active hours %q: %w", clause, err)
		}
		end, err := parseHHMM(parts[1])
		if err != nil {
			return nil, fmt.Errorf("active hours %q: %w", clause, err)
		}
		if end <= start {
			return nil, fmt.Errorf("active hours %q: end before start", clause)
		}
		windows = append(windows, Window{Start: start, End: end})
	}
	if len(windows) == 0 {
		return nil, fmt.Errorf("active hours: no windows configured")
	}
	return windows, nil
}

func parseHHMM(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("bad time %q", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Contains reports whether t's local wall-clock time falls in any window.
func (w Windows) Contains(t time.Time) bool {
	minutes := t.Hour()*60 + t.Minute()
	for _, win := range w {
		if minutes >= win.Start && minutes < win.End {
			return true
		}
	}
	return false
}
