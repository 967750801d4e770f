package app

import (
	"context"
	"errors"
	"fmt"

	"plank/internal/domain"
	"plank/internal/stats"
)

var (
	// ErrAchievementNotFound is returned for an unknown achievement id.
	ErrAchievementNotFound = errors.New("achievement not found")
	// ErrInvalidQuery is returned for malformed date or month parameters.
	ErrInvalidQuery = errors.New("invalid query")
)

// MaxSeriesDays caps the chart window.
const MaxSeriesDays = 366

// LogSource supplies a snapshot of the saved training logs.
type LogSource interface {
	Logs(ctx context.Context) ([]domain.TrainingLog, error)
}

// HistoryService encapsulates the history, chart and achievement views.
type HistoryService struct {
	logs  LogSource
	clock domain.Clock
	quota int
}

// NewHistoryService creates a HistoryService. quota is reported alongside
// today's attempt count.
func NewHistoryService(logs LogSource, clock domain.Clock, quota int) *HistoryService {
	return &HistoryService{logs: logs, clock: clock, quota: quota}
}

// Overview is the header of the history view.
type Overview struct {
	Today       string              `json:"today"`
	LastSession *domain.TrainingLog `json:"lastSession"`
	Streaks     stats.StreakSummary `json:"streaks"`
	TodayCount  int                 `json:"todayCount"`
	Quota       int                 `json:"quota"`
	TotalLogs   int                 `json:"totalLogs"`
}

func (s *HistoryService) today() string {
	return domain.LocalDay(s.clock.Now())
}

// GetOverview returns the last session, streaks and today's progress.
func (s *HistoryService) GetOverview(ctx context.Context) (Overview, error) {
	logs, err := s.logs.Logs(ctx)
	if err != nil {
		return Overview{}, err
	}
	today := s.today()
	streaks, err := stats.Streaks(logs, today)
	if err != nil {
		return Overview{}, err
	}

	o := Overview{
		Today:      today,
		Streaks:    streaks,
		TodayCount: stats.CountForDay(logs, today),
		Quota:      s.quota,
		TotalLogs:  len(logs),
	}
	if last, ok := stats.LastSession(logs); ok {
		o.LastSession = &last
	}
	return o, nil
}

// GetCalendar returns the month grid for "YYYY-MM", or the current month
// when month is empty.
func (s *HistoryService) GetCalendar(ctx context.Context, month string) (stats.Month, error) {
	now := s.clock.Now()
	year, mon := now.Year(), now.Month()
	if month != "" {
		var err error
		year, mon, err = stats.ParseMonth(month)
		if err != nil {
			return stats.Month{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
	}

	logs, err := s.logs.Logs(ctx)
	if err != nil {
		return stats.Month{}, err
	}
	return stats.Calendar(logs, year, mon, domain.LocalDay(now))
}

// GetDay returns the detail of one calendar day.
func (s *HistoryService) GetDay(ctx context.Context, day string) (stats.DayDetail, error) {
	if _, err := domain.ParseDay(day); err != nil {
		return stats.DayDetail{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	logs, err := s.logs.Logs(ctx)
	if err != nil {
		return stats.DayDetail{}, err
	}
	return stats.Day(logs, day), nil
}

// GetSeries returns the fixed-window chart ending today.
func (s *HistoryService) GetSeries(ctx context.Context, days int) ([]stats.SeriesPoint, error) {
	if days <= 0 {
		days = stats.DefaultSeriesDays
	}
	if days > MaxSeriesDays {
		days = MaxSeriesDays
	}
	logs, err := s.logs.Logs(ctx)
	if err != nil {
		return nil, err
	}
	return stats.Series(logs, s.today(), days)
}

// GetAchievements evaluates the whole achievement catalog.
func (s *HistoryService) GetAchievements(ctx context.Context) ([]domain.Achievement, error) {
	logs, err := s.logs.Logs(ctx)
	if err != nil {
		return nil, err
	}
	return stats.Achievements(logs)
}

// GetAchievement returns a single evaluated achievement.
func (s *HistoryService) GetAchievement(ctx context.Context, id string) (domain.Achievement, error) {
	list, err := s.GetAchievements(ctx)
	if err != nil {
		return domain.Achievement{}, err
	}
	a, ok := stats.FindAchievement(list, id)
	if !ok {
		return domain.Achievement{}, ErrAchievementNotFound
	}
	return a, nil
}
