package analytics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/freightquote-backend/internal/analytics/types"
)

type countingQuery struct {
	calls int
	resp  *types.QuotationQueryResponse
	err   error
}

func (c *countingQuery) Query(context.Context, types.QuotationQueryRequest) (*types.QuotationQueryResponse, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.resp, nil
}

type mapCache struct {
	data   map[string]string
	getErr error
}

func (m *mapCache) Get(_ context.Context, key string) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *mapCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *mapCache) CacheKey(name string) string { return "fq:cache:" + name }

func window() types.QuotationQueryRequest {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return types.QuotationQueryRequest{SalesRep: "Ana Perez", Start: start, End: start.AddDate(0, 0, 7)}
}

func TestQueryCachesResponse(t *testing.T) {
	q := &countingQuery{resp: &types.QuotationQueryResponse{AvgDurationSeconds: 42}}
	c := &mapCache{data: map[string]string{}}
	svc := &service{quotations: q, cache: c, ttl: time.Minute}

	first, err := svc.Query(context.Background(), window())
	require.NoError(t, err)
	second, err := svc.Query(context.Background(), window())
	require.NoError(t, err)

	assert.Equal(t, 1, q.calls)
	assert.Equal(t, first.AvgDurationSeconds, second.AvgDurationSeconds)
	assert.Len(t, c.data, 1)
}

func TestQueryWithoutCache(t *testing.T) {
	q := &countingQuery{resp: &types.QuotationQueryResponse{}}
	svc := &service{quotations: q}

	for range 2 {
		_, err := svc.Query(context.Background(), window())
		require.NoError(t, err)
	}
	assert.Equal(t, 2, q.calls)
}

func TestQueryIgnoresCacheFailure(t *testing.T) {
	q := &countingQuery{resp: &types.QuotationQueryResponse{}}
	svc := &service{quotations: q, cache: &mapCache{data: map[string]string{}, getErr: errors.New("redis down")}, ttl: time.Minute}

	_, err := svc.Query(context.Background(), window())
	require.NoError(t, err)
	assert.Equal(t, 1, q.calls)
}

func TestQueryPropagatesError(t *testing.T) {
	want := errors.New("query failed")
	svc := &service{quotations: &countingQuery{err: want}, cache: &mapCache{data: map[string]string{}}, ttl: time.Minute}

	resp, err := svc.Query(context.Background(), window())
	assert.ErrorIs(t, err, want)
	assert.Nil(t, resp)
}

func TestCacheNameDependsOnRequest(t *testing.T) {
	a := window()
	b := window()
	b.SalesRep = "Luis Gomez"
	assert.Equal(t, cacheName(a), cacheName(window()))
	assert.NotEqual(t, cacheName(a), cacheName(b))
}
