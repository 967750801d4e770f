package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"plank/internal/domain"
)

// loadJSON decodes the document under key. It reports false when the key is
// absent or the document does not decode as a T; the latter is logged and
// otherwise treated as absent. Decoding goes into a fresh value, so a
// document that fails part way never leaks its partial contents.
func loadJSON[T any](ctx context.Context, store domain.KeyValueStore, logger *slog.Logger, key string) (T, bool, error) {
	var zero T
	raw, found, err := store.Get(ctx, key)
	if err != nil {
		return zero, false, fmt.Errorf("load %s: %w", key, err)
	}
	if !found || len(raw) == 0 {
		return zero, false, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		logger.WarnContext(ctx, "discarding corrupt stored document", "key", key, "error", err)
		return zero, false, nil
	}
	return v, true, nil
}

func saveJSON(ctx context.Context, store domain.KeyValueStore, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := store.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func orDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
