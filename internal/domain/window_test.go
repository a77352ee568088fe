package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeWindow(t *testing.T) {
	// Freeze "today" at 2024-06-15 (mid-afternoon, to check truncation).
	SetClock(clockwork.NewFakeClockAt(time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)))
	t.Cleanup(func() { SetClock(nil) })

	today := date(2024, 6, 15)

	t.Run("latest defaults to trailing days", func(t *testing.T) {
		w, err := ComputeWindow(ModeLatest, 7, time.Time{}, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, FetchWindow{Start: date(2024, 6, 8), End: today}, w)
	})

	t.Run("latest with non-positive days falls back to default", func(t *testing.T) {
		w, err := ComputeWindow(ModeLatest, 0, time.Time{}, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, today.AddDate(0, 0, -DefaultLatestDays), w.Start)
	})

	t.Run("historical defaults to 90 days back", func(t *testing.T) {
		w, err := ComputeWindow(ModeHistorical, 0, time.Time{}, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, FetchWindow{Start: today.AddDate(0, 0, -90), End: today}, w)
	})

	t.Run("explicit dates override defaults", func(t *testing.T) {
		w, err := ComputeWindow(ModeHistorical, 0, date(2024, 1, 1), date(2024, 3, 1))
		require.NoError(t, err)
		assert.Equal(t, FetchWindow{Start: date(2024, 1, 1), End: date(2024, 3, 1)}, w)
	})

	t.Run("explicit start with defaulted end", func(t *testing.T) {
		w, err := ComputeWindow(ModeLatest, 7, date(2024, 6, 1), time.Time{})
		require.NoError(t, err)
		assert.Equal(t, FetchWindow{Start: date(2024, 6, 1), End: today}, w)
	})

	t.Run("start after end is rejected", func(t *testing.T) {
		_, err := ComputeWindow(ModeLatest, 7, date(2024, 7, 1), date(2024, 6, 1))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "after end")
	})
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"latest", ModeLatest, false},
		{"historical", ModeHistorical, false},
		{"", "", true},
		{"LATEST", "", true},
		{"backfill", "", true},
	}

	for _, tt := range tests {
		t.Run("input "+tt.input, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
