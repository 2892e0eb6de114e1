package db

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/freightquote-backend/pkg/config"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
)

type note struct {
	ID   int
	Text string
}

func openSQLite(t *testing.T, logs *bytes.Buffer) *Client {
	t.Helper()
	client, err := New(context.Background(), config.DBConfig{
		Driver:       "sqlite",
		DSN:          "file::memory:",
		MaxOpenConns: 1,
	}, logger.New(logger.Options{ServiceName: "db-test", Output: logs}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.DB().Exec(`CREATE TABLE notes (id INTEGER PRIMARY KEY, text TEXT)`).Error)
	return client
}

func countNotes(t *testing.T, c *Client) int64 {
	t.Helper()
	var n int64
	require.NoError(t, c.DB().Model(&note{}).Count(&n).Error)
	return n
}

func TestNewRequiresDSN(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{Driver: "sqlite"}, nil)
	assert.Error(t, err)
}

func TestWithTxCommitsAndRollsBack(t *testing.T) {
	c := openSQLite(t, &bytes.Buffer{})
	ctx := context.Background()

	require.NoError(t, c.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&note{Text: "kept"}).Error
	}))
	assert.EqualValues(t, 1, countNotes(t, c))

	boom := errors.New("boom")
	err := c.WithTx(ctx, func(tx *gorm.DB) error {
		require.NoError(t, tx.Create(&note{Text: "dropped"}).Error)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.EqualValues(t, 1, countNotes(t, c))

	assert.Panics(t, func() {
		_ = c.WithTx(ctx, func(tx *gorm.DB) error {
			tx.Create(&note{Text: "panicked"})
			panic("kaboom")
		})
	})
	assert.EqualValues(t, 1, countNotes(t, c))
}

func TestPing(t *testing.T) {
	c := openSQLite(t, &bytes.Buffer{})
	assert.NoError(t, c.Ping(context.Background()))
}

func TestQueryLogReportsFailuresOnly(t *testing.T) {
	var logs bytes.Buffer
	c := openSQLite(t, &logs)
	logs.Reset()

	var n note
	err := c.DB().First(&n, 42).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NotContains(t, logs.String(), "query failed")

	assert.Error(t, c.DB().Exec(`SELECT * FROM missing_table`).Error)
	assert.Contains(t, logs.String(), "query failed")
	assert.Contains(t, logs.String(), "missing_table")
}

func TestQueryLogFlagsSlowQueries(t *testing.T) {
	var logs bytes.Buffer
	ql := newQueryLog(logger.New(logger.Options{ServiceName: "db-test", Output: &logs})).(*queryLog)

	ql.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, nil)
	assert.Empty(t, logs.String())

	ql.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) { return "SELECT pg_sleep(1)", 1 }, nil)
	assert.Contains(t, logs.String(), "slow query")
}
