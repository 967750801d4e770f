// Package sqlite implements the domain key-value store on a local SQLite
// database through gorm.
package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"plank/internal/domain"
)

// DefaultPath is used when no database path is configured.
const DefaultPath = "plank.db"

// Entry is one stored JSON document.
type Entry struct {
	Key       string         `gorm:"primaryKey;size:64"`
	Value     datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName pins the table name shared with the postgres backend.
func (Entry) TableName() string { return "kv_entries" }

// DB is a gorm-backed domain.KeyValueStore.
type DB struct {
	gorm *gorm.DB
}

var _ domain.KeyValueStore = (*DB)(nil)

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string) (*DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultPath
	}
	if err := ensureParentDir(path); err != nil {
		return nil, err
	}

	g, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := g.AutoMigrate(&Entry{}); err != nil {
		return nil, err
	}
	return &DB{gorm: g}, nil
}

// Get returns the document stored under key.
func (d *DB) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var e Entry
	err := d.gorm.WithContext(ctx).Where(&Entry{Key: key}).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(e.Value), true, nil
}

// Set replaces the document stored under key.
func (d *DB) Set(ctx context.Context, key string, value []byte) error {
	e := Entry{Key: key, Value: datatypes.JSON(value), UpdatedAt: time.Now().UTC()}
	return d.gorm.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
}

// Close releases the underlying connection pool.
func (d *DB) Close() error {
	s, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return s.Close()
}

func ensureParentDir(path string) error {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
