package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryKV struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func (m *memoryKV) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return nil
}

func (m *memoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memoryKV) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryKV) AccessSessionKey(accessID string) string {
	return "sess:" + accessID
}

func newManager(t *testing.T) (*Manager, *memoryKV) {
	t.Helper()
	kv := &memoryKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &Manager{store: kv, keys: kv, ttl: 7 * 24 * time.Hour, now: func() time.Time { return fixed }}, kv
}

func TestOpenStoresHashedRecord(t *testing.T) {
	m, kv := newManager(t)
	repID := uuid.New()

	issued, err := m.Open(context.Background(), repID)
	require.NoError(t, err)
	assert.Equal(t, repID, issued.SalesRepID)
	require.NotEmpty(t, issued.RefreshToken)

	key := kv.AccessSessionKey(issued.AccessID)
	stored := kv.data[key]
	assert.NotContains(t, stored, issued.RefreshToken, "raw token must not be stored")
	assert.Contains(t, stored, repID.String())
	assert.Equal(t, 7*24*time.Hour, kv.ttls[key])

	_, err = m.Open(context.Background(), uuid.Nil)
	assert.Error(t, err)
}

func TestRotateIsSingleUse(t *testing.T) {
	m, kv := newManager(t)
	ctx := context.Background()
	first, err := m.Open(ctx, uuid.New())
	require.NoError(t, err)

	_, err = m.Rotate(ctx, first.AccessID, "wrong")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	second, err := m.Rotate(ctx, first.AccessID, first.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, first.SalesRepID, second.SalesRepID)
	assert.NotEqual(t, first.AccessID, second.AccessID)
	assert.NotContains(t, kv.data, kv.AccessSessionKey(first.AccessID))

	_, err = m.Rotate(ctx, first.AccessID, first.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "replay")

	ok, err := m.HasSession(ctx, second.AccessID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRotateRejectsBlankAndCorrupt(t *testing.T) {
	m, kv := newManager(t)
	ctx := context.Background()

	_, err := m.Rotate(ctx, " ", "token")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	kv.data[kv.AccessSessionKey("legacy")] = "rep|token"
	_, err = m.Rotate(ctx, "legacy", "token")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRevokeEndsSession(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	issued, err := m.Open(ctx, uuid.New())
	require.NoError(t, err)

	require.NoError(t, m.Revoke(ctx, issued.AccessID))
	ok, err := m.HasSession(ctx, issued.AccessID)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Error(t, m.Revoke(ctx, ""))
	_, err = m.HasSession(ctx, "")
	assert.Error(t, err)
}

func TestHashTokenIsStable(t *testing.T) {
	assert.Equal(t, hashToken("abc"), hashToken("abc"))
	assert.NotEqual(t, hashToken("abc"), hashToken("abd"))
	assert.False(t, strings.Contains(hashToken("abc"), "="))
}
