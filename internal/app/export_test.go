package app_test

import (
	"context"
	"testing"
	"time"

	"plank/internal/adapter/memory"
	"plank/internal/app"
)

func TestExportService_Backup(t *testing.T) {
	store := memory.New()
	book := app.NewLogBook(store, nil)
	profiles := app.NewProfileService(store, profileToday, nil)
	ctx := context.Background()

	if _, _, err := book.Append(ctx, 40, time.Date(2024, 2, 1, 7, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("append: %v", err)
	}

	b, err := app.NewExportService(book, profiles, profileToday).Backup(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b.Logs) != 1 || b.Logs[0].Duration != 40 {
		t.Fatalf("unexpected logs: %+v", b.Logs)
	}
	if b.Profile.Name != "Athlete" {
		t.Fatalf("unexpected profile: %+v", b.Profile)
	}
	if !b.ExportedAt.Equal(profileToday.now) {
		t.Fatalf("unexpected export time %v", b.ExportedAt)
	}
}
