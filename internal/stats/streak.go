package stats

import "plank/internal/domain"

// StreakSummary is the streak view over all history.
type StreakSummary struct {
	Longest   int `json:"longest"`
	Current   int `json:"current"`
	TotalDays int `json:"totalDays"`
}

// Streaks computes the longest run of consecutive logged days and whether the
// latest run is still current (last logged day is today or yesterday).
func Streaks(logs []domain.TrainingLog, today string) (StreakSummary, error) {
	days := DistinctDays(logs)
	s := StreakSummary{TotalDays: len(days)}
	if len(days) == 0 {
		return s, nil
	}

	runs, err := runLengths(days)
	if err != nil {
		return s, err
	}
	for _, r := range runs {
		if r > s.Longest {
			s.Longest = r
		}
	}

	gap, err := domain.DaysBetween(days[len(days)-1], today)
	if err != nil {
		return s, err
	}
	if gap <= 1 {
		s.Current = runs[len(runs)-1]
	}
	return s, nil
}

// runLengths splits ascending distinct days into maximal consecutive runs.
func runLengths(days []string) ([]int, error) {
	runs := []int{1}
	for i := 1; i < len(days); i++ {
		delta, err := domain.DaysBetween(days[i-1], days[i])
		if err != nil {
			return nil, err
		}
		if delta == 1 {
			runs[len(runs)-1]++
		} else {
			runs = append(runs, 1)
		}
	}
	return runs, nil
}
