package app

import (
	"context"
	"time"

	"plank/internal/domain"
)

// Backup is the full journal: both stored documents side by side.
type Backup struct {
	ExportedAt time.Time            `json:"exportedAt"`
	Logs       []domain.TrainingLog `json:"plank_logs"`
	Profile    domain.UserProfile   `json:"plank_profile"`
}

// ExportService assembles backups and report inputs.
type ExportService struct {
	logs    LogSource
	profile *ProfileService
	clock   domain.Clock
}

// NewExportService creates an ExportService.
func NewExportService(logs LogSource, profile *ProfileService, clock domain.Clock) *ExportService {
	return &ExportService{logs: logs, profile: profile, clock: clock}
}

// Backup returns both documents as one value.
func (s *ExportService) Backup(ctx context.Context) (Backup, error) {
	logs, err := s.logs.Logs(ctx)
	if err != nil {
		return Backup{}, err
	}
	p, err := s.profile.Profile(ctx)
	if err != nil {
		return Backup{}, err
	}
	return Backup{ExportedAt: s.clock.Now(), Logs: logs, Profile: p}, nil
}
