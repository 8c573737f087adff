package db

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dealboard/dealboard-backend/pkg/config"
	"github.com/dealboard/dealboard-backend/pkg/logger"
)

type stamped struct {
	ID        int
	CreatedAt time.Time
}

func openSQLite(t *testing.T) *Client {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), GormConfig(nil))
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&stamped{}))
	c := Wrap(gdb)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClientPingAndSQLDB(t *testing.T) {
	c := openSQLite(t)
	require.NoError(t, c.Ping(context.Background()))

	pool, err := c.SQLDB()
	require.NoError(t, err)
	assert.NotNil(t, pool)
}

func TestGormConfigWritesUTC(t *testing.T) {
	c := openSQLite(t)
	row := stamped{}
	require.NoError(t, c.DB().Create(&row).Error)
	assert.Equal(t, time.UTC, row.CreatedAt.Location())
}

func TestConfigurePool(t *testing.T) {
	c := openSQLite(t)
	pool, err := c.SQLDB()
	require.NoError(t, err)

	configurePool(pool, config.DBConfig{MaxOpenConns: 3})
	assert.Equal(t, 3, pool.Stats().MaxOpenConnections)
}

func TestNewRejectsEmptyDSN(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{DSN: "  "}, nil)
	assert.Error(t, err)
}

func TestGormWriterCollapsesWhitespace(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Format: logger.FormatJSON, Output: buf})

	gormWriter{logg: logg}.Printf("%s\n[%.3fms] %s", "deals.go:10", 612.5, "SELECT  *\nFROM deals")
	assert.Contains(t, buf.String(), `db.query: deals.go:10 [612.500ms] SELECT * FROM deals`)
}

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "votes_deal_device_key"}
	assert.True(t, IsUniqueViolation(pgErr, "votes_deal_device_key"))
	assert.False(t, IsUniqueViolation(pgErr, "users_email_key"))
	assert.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: votes.deal_id, votes.device_id"), "votes_deal_device_key"))
	assert.False(t, IsUniqueViolation(errors.New("connection reset"), ""))
	assert.False(t, IsUniqueViolation(nil, ""))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(gorm.ErrRecordNotFound))
	assert.False(t, IsNotFound(errors.New("boom")))
}
