package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/strip-admin-api/internal/config"
)

func newSQLiteConfig(t *testing.T) *config.SourceConfig {
	t.Helper()
	return &config.SourceConfig{
		Driver:       config.SourceDriverSQLite,
		DSN:          filepath.Join(t.TempDir(), "source.db"),
		Table:        "comic_strips",
		MaxOpenConns: 4,
		MaxIdleConns: 2,
		MaxLifetime:  time.Minute,
	}
}

func TestNew_RejectsRESTDriver(t *testing.T) {
	_, err := New(&config.SourceConfig{Driver: config.SourceDriverREST}, zerolog.Nop())
	if err == nil {
		t.Error("Expected error for non SQL driver")
	}
}

func TestRunMigrations_SQLite(t *testing.T) {
	db, err := New(newSQLiteConfig(t), zerolog.Nop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}
	// Second run is a no-op
	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("RunMigrations (again) failed: %v", err)
	}

	ctx := context.Background()
	_, err = db.ExecContext(ctx,
		`INSERT INTO comic_strips (id, title, image_url, media_type, publish_date) VALUES (?, ?, ?, ?, ?)`,
		"strip-001", "First", "/s/a.png", "image", "2024-01-01")
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comic_strips`).Scan(&count); err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 row, got %d", count)
	}
}
