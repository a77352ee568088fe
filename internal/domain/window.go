package domain

import (
	"fmt"
	"time"
)

// Mode selects how a fetch window is defaulted.
type Mode string

const (
	// ModeLatest fetches the trailing N days, for incremental updates.
	ModeLatest Mode = "latest"
	// ModeHistorical backfills a longer range, defaulting to 90 days.
	ModeHistorical Mode = "historical"
)

const (
	// DefaultLatestDays is the trailing window for latest mode.
	DefaultLatestDays = 7
	// DefaultHistoricalDays is the default backfill depth for historical mode.
	DefaultHistoricalDays = 90
)

// ParseMode validates a mode string from the CLI or config.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeLatest, ModeHistorical:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("invalid mode %q (want %q or %q)", s, ModeLatest, ModeHistorical)
	}
}

// FetchWindow is an inclusive date range, both bounds UTC midnights.
type FetchWindow struct {
	Start time.Time
	End   time.Time
}

func (w FetchWindow) String() string {
	return w.Start.Format(time.DateOnly) + ".." + w.End.Format(time.DateOnly)
}

// ComputeWindow derives the fetch window for a run. Explicit start/end dates
// (zero time.Time means unset) override the defaults; otherwise the end is
// today, and the start is today minus days in latest mode or today minus 90
// days in historical mode. "Today" comes from the package clock so tests can
// freeze it.
func ComputeWindow(mode Mode, days int, explicitStart, explicitEnd time.Time) (FetchWindow, error) {
	today := Truncate(clock.Now())

	end := today
	if !explicitEnd.IsZero() {
		end = Truncate(explicitEnd)
	}

	var start time.Time
	switch {
	case !explicitStart.IsZero():
		start = Truncate(explicitStart)
	case mode == ModeHistorical:
		start = today.AddDate(0, 0, -DefaultHistoricalDays)
	default:
		if days <= 0 {
			days = DefaultLatestDays
		}
		start = today.AddDate(0, 0, -days)
	}

	if start.After(end) {
		return FetchWindow{}, fmt.Errorf("window start %s is after end %s",
			start.Format(time.DateOnly), end.Format(time.DateOnly))
	}
	return FetchWindow{Start: start, End: end}, nil
}
