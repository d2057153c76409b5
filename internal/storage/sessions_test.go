package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDurationMinutes(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	require.Equal(t, 0, durationMinutes(start, start))
	require.Equal(t, 0, durationMinutes(start, start.Add(29*time.Second)))
	require.Equal(t, 1, durationMinutes(start, start.Add(30*time.Second)))
	require.Equal(t, 1, durationMinutes(start, start.Add(89*time.Second)))
	require.Equal(t, 2, durationMinutes(start, start.Add(90*time.Second)))
	require.Equal(t, 31, durationMinutes(start, start.Add(31*time.Minute)))
	require.Equal(t, 90, durationMinutes(start, start.Add(90*time.Minute)))
}

func TestSessionHours(t *testing.T) {
	require.Equal(t, 0.0, sessionHours(0))
	require.Equal(t, 0.1, sessionHours(5))
	require.Equal(t, 0.5, sessionHours(30))
	require.Equal(t, 0.8, sessionHours(45))
	require.Equal(t, 1.0, sessionHours(60))
	require.Equal(t, 1.5, sessionHours(90))
	require.Equal(t, 2.1, sessionHours(125))
}
