package stats

import (
	"fmt"

	"plank/internal/domain"
)

// Milestones are the day thresholds for streak and total-day achievements.
var Milestones = []int{5, 10, 20, 50, 100, 200, 300, 400, 500}

// FirstWorkoutID is the id of the first-attempt achievement.
const FirstWorkoutID = "first-workout"

// Catalog returns every achievement, all locked.
func Catalog() []domain.Achievement {
	list := make([]domain.Achievement, 0, 1+2*len(Milestones))
	list = append(list, domain.Achievement{
		ID:          FirstWorkoutID,
		Title:       "First Plank",
		Description: "Finish your very first plank hold.",
		Icon:        "🌟",
		Type:        domain.AchievementTotal,
		Threshold:   1,
	})
	for _, n := range Milestones {
		list = append(list,
			domain.Achievement{
				ID:          fmt.Sprintf("streak-%d", n),
				Title:       fmt.Sprintf("%d-Day Streak", n),
				Description: fmt.Sprintf("You trained %d days in a row.", n),
				Icon:        "🔥",
				Type:        domain.AchievementStreak,
				Threshold:   n,
			},
			domain.Achievement{
				ID:          fmt.Sprintf("total-%d", n),
				Title:       fmt.Sprintf("%d Training Days", n),
				Description: fmt.Sprintf("You have trained on %d different days.", n),
				Icon:        "🛡️",
				Type:        domain.AchievementTotal,
				Threshold:   n,
			},
		)
	}
	return list
}

// Achievements evaluates the catalog against the logs. UnlockedAt is the
// timestamp of the earliest log on the day the condition first held, so it is
// stable across calls without being stored.
func Achievements(logs []domain.TrainingLog) ([]domain.Achievement, error) {
	list := Catalog()
	if len(logs) == 0 {
		return list, nil
	}

	days := DistinctDays(logs)
	firstTS := make(map[string]int64, len(days))
	earliest := logs[0].Timestamp
	for _, l := range logs {
		if ts, ok := firstTS[l.DateString]; !ok || l.Timestamp < ts {
			firstTS[l.DateString] = l.Timestamp
		}
		if l.Timestamp < earliest {
			earliest = l.Timestamp
		}
	}

	// streakReached[n-1] is the day on which a run first reached length n.
	var streakReached []string
	run := 0
	for i, day := range days {
		if i > 0 {
			delta, err := domain.DaysBetween(days[i-1], day)
			if err != nil {
				return nil, err
			}
			if delta != 1 {
				run = 0
			}
		}
		run++
		if run > len(streakReached) {
			streakReached = append(streakReached, day)
		}
	}

	for i := range list {
		a := &list[i]
		switch {
		case a.ID == FirstWorkoutID:
			a.UnlockedAt = ptr(earliest)
		case a.Type == domain.AchievementStreak && a.Threshold <= len(streakReached):
			a.UnlockedAt = ptr(firstTS[streakReached[a.Threshold-1]])
		case a.Type == domain.AchievementTotal && a.Threshold <= len(days):
			a.UnlockedAt = ptr(firstTS[days[a.Threshold-1]])
		}
	}
	return list, nil
}

// FindAchievement returns the achievement with id from list.
func FindAchievement(list []domain.Achievement, id string) (domain.Achievement, bool) {
	for _, a := range list {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Achievement{}, false
}

func ptr(v int64) *int64 { return &v }
