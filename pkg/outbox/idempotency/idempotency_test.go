package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	values map[string]any
	ttls   map[string]time.Duration
	err    error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]any{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	v, _ := m.values[key].(string)
	return v, nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value
	m.ttls[key] = ttl
	return true, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "fq:idempotency:" + scope + ":" + id
}

func TestLedgerClaimsOnce(t *testing.T) {
	store := newMemoryStore()
	ledger, err := NewLedger(store, time.Hour)
	require.NoError(t, err)
	ledger.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }

	ctx := context.Background()
	id := uuid.New()

	fresh, err := ledger.Claim(ctx, "quotation-analytics", id)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = ledger.Claim(ctx, "quotation-analytics", id)
	require.NoError(t, err)
	assert.False(t, fresh, "second delivery is a duplicate")

	fresh, err = ledger.Claim(ctx, "another-consumer", id)
	require.NoError(t, err)
	assert.True(t, fresh, "claims are per consumer")

	key := "fq:idempotency:evt:quotation-analytics:" + id.String()
	assert.Equal(t, "2026-03-01T10:00:00Z", store.values[key])
	assert.Equal(t, time.Hour, store.ttls[key])
}

func TestLedgerReleaseAllowsRetry(t *testing.T) {
	ledger, err := NewLedger(newMemoryStore(), 0)
	require.NoError(t, err)
	ctx := context.Background()
	id := uuid.New()

	_, err = ledger.Claim(ctx, "quotation-analytics", id)
	require.NoError(t, err)
	require.NoError(t, ledger.Release(ctx, "quotation-analytics", id))

	fresh, err := ledger.Claim(ctx, "quotation-analytics", id)
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestLedgerRejectsBadInput(t *testing.T) {
	_, err := NewLedger(nil, time.Hour)
	assert.Error(t, err)
	_, err = NewLedger(newMemoryStore(), -time.Second)
	assert.Error(t, err)

	ledger, err := NewLedger(newMemoryStore(), time.Hour)
	require.NoError(t, err)
	_, err = ledger.Claim(context.Background(), "", uuid.New())
	assert.Error(t, err)
	_, err = ledger.Claim(context.Background(), "quotation-analytics", uuid.Nil)
	assert.Error(t, err)
}

func TestLedgerSurfacesStoreErrors(t *testing.T) {
	store := newMemoryStore()
	store.err = errors.New("redis down")
	ledger, err := NewLedger(store, time.Hour)
	require.NoError(t, err)

	_, err = ledger.Claim(context.Background(), "quotation-analytics", uuid.New())
	assert.ErrorIs(t, err, store.err)
}
