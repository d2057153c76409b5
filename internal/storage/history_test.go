package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeStatsEmpty(t *testing.T) {
	require.Equal(t, ActivityStats{}, computeStats(nil))
}

func TestComputeStats(t *testing.T) {
	history := []ActivityRecord{
		{ActivityType: ActivityMessage},
		{ActivityType: ActivityMessage},
		{ActivityType: ActivitySession, Metadata: map[string]interface{}{
			"session_id": float64(7),
			"meet_link":  "https://meet.google.com/abc-def-ghi",
		}},
		{ActivityType: ActivitySession, Metadata: map[string]interface{}{
			"duration_minutes": float64(45),
			"hours_used":       0.8,
		}},
		{ActivityType: ActivitySession, Metadata: map[string]interface{}{
			"duration_minutes": float64(90),
			"hours_used":       1.5,
		}},
		{ActivityType: ActivityFileExchange},
		{ActivityType: ActivityStatusChange},
	}

	stats := computeStats(history)
	require.Equal(t, 2, stats.TotalMessages)
	require.Equal(t, 3, stats.TotalSessions)
	require.Equal(t, 1, stats.TotalFiles)
	require.Equal(t, 135, stats.TotalTimeSpent)
}
