package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"plank/internal/domain"
	"plank/internal/stats"
)

// LogBook owns the persisted, append-only training log list.
type LogBook struct {
	store  domain.KeyValueStore
	logger *slog.Logger
	newID  func() string

	mu sync.Mutex
}

// NewLogBook creates a LogBook over store.
func NewLogBook(store domain.KeyValueStore, logger *slog.Logger) *LogBook {
	return &LogBook{
		store:  store,
		logger: orDefault(logger),
		newID:  uuid.NewString,
	}
}

// Logs returns a snapshot of every saved log. A missing or corrupt document
// yields an empty list, and records whose date cannot be parsed are skipped.
func (b *LogBook) Logs(ctx context.Context) ([]domain.TrainingLog, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.load(ctx)
}

func (b *LogBook) load(ctx context.Context) ([]domain.TrainingLog, error) {
	stored, _, err := loadJSON[[]domain.TrainingLog](ctx, b.store, b.logger, domain.LogsKey)
	if err != nil {
		return nil, err
	}
	logs := make([]domain.TrainingLog, 0, len(stored))
	for _, l := range stored {
		if _, err := domain.ParseDay(l.DateString); err != nil {
			b.logger.WarnContext(ctx, "skipping training log with invalid date", "id", l.ID, "dateString", l.DateString)
			continue
		}
		logs = append(logs, l)
	}
	return logs, nil
}

// CountForDay returns the number of saved logs dated day.
func (b *LogBook) CountForDay(ctx context.Context, day string) (int, error) {
	logs, err := b.Logs(ctx)
	if err != nil {
		return 0, err
	}
	return stats.CountForDay(logs, day), nil
}

// Append records a hold of duration seconds that ended at endedAt. It returns
// the new log and the number of logs now saved for that day.
func (b *LogBook) Append(ctx context.Context, duration int, endedAt time.Time) (domain.TrainingLog, int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	logs, err := b.load(ctx)
	if err != nil {
		return domain.TrainingLog{}, 0, err
	}
	entry := domain.NewTrainingLog(b.newID(), duration, endedAt)
	logs = append(logs, entry)
	if err := saveJSON(ctx, b.store, domain.LogsKey, logs); err != nil {
		return domain.TrainingLog{}, 0, err
	}
	b.logger.InfoContext(ctx, "training log saved", "id", entry.ID, "duration", duration, "date", entry.DateString)
	return entry, stats.CountForDay(logs, entry.DateString), nil
}
