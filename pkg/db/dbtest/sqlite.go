// Package dbtest opens throwaway SQLite databases carrying the same tables as the
// Postgres migrations, for repository tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dealboard/dealboard-backend/pkg/db"
)

var schema = []string{
	`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		username TEXT UNIQUE,
		role TEXT NOT NULL DEFAULT 'user',
		auto_approve BOOLEAN NOT NULL DEFAULT 0,
		email_verified BOOLEAN NOT NULL DEFAULT 0,
		device_id TEXT,
		last_login_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE deals (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		image_url TEXT NOT NULL,
		link TEXT,
		location TEXT,
		category TEXT NOT NULL,
		promo_code TEXT,
		original_price NUMERIC,
		discounted_price NUMERIC,
		hot_count INTEGER NOT NULL DEFAULT 0,
		cold_count INTEGER NOT NULL DEFAULT 0,
		submitted_by_user_id TEXT REFERENCES users(id) ON DELETE SET NULL,
		posted_by TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		is_archived BOOLEAN NOT NULL DEFAULT 0,
		rejection_reason TEXT,
		moderated_by TEXT,
		moderated_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME,
		expires_at DATETIME NOT NULL
	)`,
	`CREATE TABLE votes (
		id TEXT PRIMARY KEY,
		deal_id TEXT NOT NULL REFERENCES deals(id) ON DELETE CASCADE,
		device_id TEXT NOT NULL,
		vote_type TEXT NOT NULL,
		created_at DATETIME,
		UNIQUE (deal_id, device_id)
	)`,
	`CREATE TABLE deal_reports (
		id TEXT PRIMARY KEY,
		deal_id TEXT NOT NULL REFERENCES deals(id) ON DELETE CASCADE,
		reported_by TEXT NOT NULL,
		reason TEXT NOT NULL,
		details TEXT,
		created_at DATETIME,
		UNIQUE (deal_id, reported_by)
	)`,
}

// Open returns a fresh in-memory database private to the calling test.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), db.GormConfig(nil))
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("failed to get sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("failed to create schema: %v", err)
		}
	}
	return conn
}
