// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// Storage keys. The names match what existing installs already hold.
const (
	LogsKey    = "plank_logs"
	ProfileKey = "plank_profile"
)

// TrainingLog is one completed, qualifying plank hold.
type TrainingLog struct {
	ID         string `json:"id"`
	Timestamp  int64  `json:"timestamp"` // epoch milliseconds
	Duration   int    `json:"duration"`  // seconds
	DateString string `json:"dateString"`
}

// NewTrainingLog builds a log for a hold that ended at t. DateString is fixed
// to t's calendar day in t's location and is never recomputed.
func NewTrainingLog(id string, duration int, t time.Time) TrainingLog {
	return TrainingLog{
		ID:         id,
		Timestamp:  t.UnixMilli(),
		Duration:   duration,
		DateString: LocalDay(t),
	}
}

// Time returns the log timestamp as a time.Time.
func (l TrainingLog) Time() time.Time {
	return time.UnixMilli(l.Timestamp)
}

// KeyValueStore is the persistence port. Values are opaque JSON documents.
// Get reports found=false when the key has never been written.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}
