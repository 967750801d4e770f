package domain

// AchievementType groups achievements by the statistic they track.
type AchievementType string

// Achievement types.
const (
	AchievementStreak AchievementType = "streak"
	AchievementTotal  AchievementType = "total"
)

// Achievement is derived from the log list on every read and never stored.
type Achievement struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
	Type        AchievementType `json:"type"`
	Threshold   int             `json:"threshold"`
	UnlockedAt  *int64          `json:"unlockedAt,omitempty"` // epoch milliseconds
}

// Unlocked reports whether the achievement currently holds.
func (a Achievement) Unlocked() bool {
	return a.UnlockedAt != nil
}
