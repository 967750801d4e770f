package stats

import (
	"fmt"
	"time"

	"plank/internal/domain"
)

// DayStatus is the colouring of a calendar cell.
type DayStatus string

// Calendar cell states.
const (
	DayMissing   DayStatus = "missing"
	DayImproved  DayStatus = "improved" // best >= previous day's best
	DayRegressed DayStatus = "regressed"
)

// CalendarDay is one cell of the month grid.
type CalendarDay struct {
	Date        string    `json:"date"`
	Day         int       `json:"day"`
	Status      DayStatus `json:"status"`
	BestSeconds int       `json:"bestSeconds"`
	Disabled    bool      `json:"disabled"`
}

// Month is the calendar grid for one month.
type Month struct {
	Year          int           `json:"year"`
	Month         int           `json:"month"`
	LeadingBlanks int           `json:"leadingBlanks"` // weekday of day 1, Sunday = 0
	HasNext       bool          `json:"hasNext"`
	Days          []CalendarDay `json:"days"`
}

// ClassifyDay colours a single day against the day before it. A missing
// previous day counts as a zero-second best.
func ClassifyDay(best map[string]int, day string) (DayStatus, error) {
	secs, ok := best[day]
	if !ok || secs == 0 {
		return DayMissing, nil
	}
	prev, err := domain.AddDays(day, -1)
	if err != nil {
		return "", err
	}
	if secs >= best[prev] {
		return DayImproved, nil
	}
	return DayRegressed, nil
}

// Calendar builds the grid for year/month. Days after today are disabled
// regardless of data.
func Calendar(logs []domain.TrainingLog, year int, month time.Month, today string) (Month, error) {
	if month < time.January || month > time.December {
		return Month{}, fmt.Errorf("invalid month %d", month)
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(0, 1, 0)
	best := DailyBest(logs)

	m := Month{
		Year:          year,
		Month:         int(month),
		LeadingBlanks: int(first.Weekday()),
		HasNext:       next.Format(domain.DayLayout) <= today,
	}
	for d := first; d.Before(next); d = d.AddDate(0, 0, 1) {
		day := d.Format(domain.DayLayout)
		status, err := ClassifyDay(best, day)
		if err != nil {
			return Month{}, err
		}
		m.Days = append(m.Days, CalendarDay{
			Date:        day,
			Day:         d.Day(),
			Status:      status,
			BestSeconds: best[day],
			Disabled:    day > today,
		})
	}
	return m, nil
}

// ParseMonth parses "YYYY-MM".
func ParseMonth(s string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return t.Year(), t.Month(), nil
}
