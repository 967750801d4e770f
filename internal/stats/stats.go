// Package stats derives history, streak, chart and achievement views from the
// raw training log list. Every function is pure: the input slice is never
// modified and nothing is cached between calls.
package stats

import (
	"math"
	"sort"

	"plank/internal/domain"
)

// DailyBest maps each logged day to the longest hold recorded that day.
func DailyBest(logs []domain.TrainingLog) map[string]int {
	best := make(map[string]int, len(logs))
	for _, l := range logs {
		if cur, ok := best[l.DateString]; !ok || l.Duration > cur {
			best[l.DateString] = l.Duration
		}
	}
	return best
}

// DistinctDays returns the logged days in ascending order.
func DistinctDays(logs []domain.TrainingLog) []string {
	seen := make(map[string]struct{}, len(logs))
	days := make([]string, 0, len(logs))
	for _, l := range logs {
		if _, ok := seen[l.DateString]; ok {
			continue
		}
		seen[l.DateString] = struct{}{}
		days = append(days, l.DateString)
	}
	sort.Strings(days)
	return days
}

// LastSession returns the most recent log by timestamp.
func LastSession(logs []domain.TrainingLog) (domain.TrainingLog, bool) {
	if len(logs) == 0 {
		return domain.TrainingLog{}, false
	}
	last := logs[0]
	for _, l := range logs[1:] {
		if l.Timestamp > last.Timestamp {
			last = l
		}
	}
	return last, true
}

// CountForDay returns how many logs were saved on day.
func CountForDay(logs []domain.TrainingLog, day string) int {
	n := 0
	for _, l := range logs {
		if l.DateString == day {
			n++
		}
	}
	return n
}

// DayDetail summarises one calendar day.
type DayDetail struct {
	Date        string `json:"date"`
	BestSeconds int    `json:"bestSeconds"`
	Attempts    int    `json:"attempts"`
}

// Day returns the best hold and attempt count for day.
func Day(logs []domain.TrainingLog, day string) DayDetail {
	d := DayDetail{Date: day}
	for _, l := range logs {
		if l.DateString != day {
			continue
		}
		d.Attempts++
		if l.Duration > d.BestSeconds {
			d.BestSeconds = l.Duration
		}
	}
	return d
}

// SeriesPoint is one day of the fixed-window chart.
type SeriesPoint struct {
	Date    string  `json:"date"`
	Label   string  `json:"label"` // MM-DD
	Seconds int     `json:"seconds"`
	Minutes float64 `json:"minutes"`
}

// DefaultSeriesDays is the chart window length.
const DefaultSeriesDays = 20

// Series returns exactly days points ending with today, each holding that
// day's best hold (0 when nothing was logged).
func Series(logs []domain.TrainingLog, today string, days int) ([]SeriesPoint, error) {
	if days <= 0 {
		days = DefaultSeriesDays
	}
	end, err := domain.ParseDay(today)
	if err != nil {
		return nil, err
	}
	best := DailyBest(logs)
	points := make([]SeriesPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := end.AddDate(0, 0, -i).Format(domain.DayLayout)
		secs := best[day]
		points = append(points, SeriesPoint{
			Date:    day,
			Label:   day[5:],
			Seconds: secs,
			Minutes: roundTenth(float64(secs) / 60),
		})
	}
	return points, nil
}

// roundTenth rounds half-up to one decimal place.
func roundTenth(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}
