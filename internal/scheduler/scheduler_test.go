package scheduler

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_Add(t *testing.T) {
	s := New(silentLogger())

	t.Run("accepts descriptor specs", func(t *testing.T) {
		require.NoError(t, s.Add("@every 6h", func() {}))
	})

	t.Run("accepts five-field specs", func(t *testing.T) {
		require.NoError(t, s.Add("0 3 * * *", func() {}))
	})

	t.Run("rejects garbage", func(t *testing.T) {
		err := s.Add("whenever", func() {})
		assert.Error(t, err)
	})
}

func TestScheduler_StopWaitsForJobs(t *testing.T) {
	s := New(silentLogger())
	require.NoError(t, s.Add("@every 1h", func() {}))

	s.Start()
	s.Stop() // must not hang or panic with no job in flight
}
