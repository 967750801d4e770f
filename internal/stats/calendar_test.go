package stats_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plank/internal/domain"
	"plank/internal/stats"
)

func TestCalendar_Classification(t *testing.T) {
	logs := []domain.TrainingLog{
		logAt("2024-02-29", 8, 60), // previous month, feeds Mar 1
		logAt("2024-03-01", 8, 50),
		logAt("2024-03-02", 8, 50),
		logAt("2024-03-04", 8, 10),
		logAt("2024-03-05", 8, 9),
	}
	m, err := stats.Calendar(logs, 2024, time.March, "2024-03-10")
	require.NoError(t, err)
	require.Len(t, m.Days, 31)

	want := map[int]stats.DayStatus{
		1: stats.DayRegressed, // 50 < 60
		2: stats.DayImproved,  // equal counts as improved
		3: stats.DayMissing,
		4: stats.DayImproved, // previous day missing counts as 0
		5: stats.DayRegressed,
	}
	for day, status := range want {
		assert.Equal(t, status, m.Days[day-1].Status, "day %d", day)
	}
	assert.Equal(t, 50, m.Days[0].BestSeconds)
	assert.Equal(t, 5, m.LeadingBlanks, "2024-03-01 is a Friday")
}

func TestCalendar_FutureDisabled(t *testing.T) {
	logs := []domain.TrainingLog{logAt("2024-03-12", 8, 60)}
	m, err := stats.Calendar(logs, 2024, time.March, "2024-03-10")
	require.NoError(t, err)

	assert.False(t, m.Days[9].Disabled)
	assert.True(t, m.Days[10].Disabled)
	assert.True(t, m.Days[11].Disabled, "future days are disabled even with data")
	assert.False(t, m.HasNext)
}

func TestCalendar_HasNext(t *testing.T) {
	m, err := stats.Calendar(nil, 2024, time.February, "2024-03-01")
	require.NoError(t, err)
	assert.True(t, m.HasNext)
	assert.Len(t, m.Days, 29)
}

func TestParseMonth(t *testing.T) {
	y, mo, err := stats.ParseMonth("2024-11")
	require.NoError(t, err)
	assert.Equal(t, 2024, y)
	assert.Equal(t, time.November, mo)

	_, _, err = stats.ParseMonth("2024-13")
	assert.Error(t, err)
}
