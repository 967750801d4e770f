package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "plank.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestGetMissing(t *testing.T) {
	db := openTemp(t)

	v, ok, err := db.Get(context.Background(), "plank_logs")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestSetOverwrites(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()

	require.NoError(t, db.Set(ctx, "plank_logs", []byte(`[]`)))
	require.NoError(t, db.Set(ctx, "plank_logs", []byte(`[{"id":"a"}]`)))

	v, ok, err := db.Get(ctx, "plank_logs")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `[{"id":"a"}]`, string(v))
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plank.db")
	ctx := context.Background()

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Set(ctx, "plank_profile", []byte(`{"name":"A"}`)))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	v, ok, err := db.Get(ctx, "plank_profile")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"name":"A"}`, string(v))
}
