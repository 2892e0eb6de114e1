// Package analytics serves the quotation dashboard from BigQuery. Results
// are cached in Redis briefly so a dashboard refresh does not rescan.
package analytics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/freightquote-backend/internal/analytics/query"
	"github.com/angelmondragon/freightquote-backend/internal/analytics/types"
	"github.com/angelmondragon/freightquote-backend/pkg/bigquery"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
	"github.com/angelmondragon/freightquote-backend/pkg/redis"
)

type Service interface {
	Query(ctx context.Context, req types.QuotationQueryRequest) (*types.QuotationQueryResponse, error)
}

type cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CacheKey(name string) string
}

type ServiceParams struct {
	BigQuery *bigquery.Client
	Project  string
	Dataset  string
	Table    string
	// Cache is optional; a zero CacheTTL also disables it.
	Cache    cache
	CacheTTL time.Duration
	Logger   *logger.Logger
}

type service struct {
	quotations query.QuotationService
	cache      cache
	ttl        time.Duration
	logg       *logger.Logger
}

func NewService(p ServiceParams) (Service, error) {
	if p.BigQuery == nil {
		return nil, errors.New("bigquery client required")
	}
	quotations, err := query.NewQuotationService(p.BigQuery, p.Project, p.Dataset, p.Table)
	if err != nil {
		return nil, err
	}
	s := &service{quotations: quotations, logg: p.Logger}
	if p.Cache != nil && p.CacheTTL > 0 {
		s.cache, s.ttl = p.Cache, p.CacheTTL
	}
	return s, nil
}

// Query answers from the cache when it can. Cache failures only cost a
// BigQuery round trip.
func (s *service) Query(ctx context.Context, req types.QuotationQueryRequest) (*types.QuotationQueryResponse, error) {
	if s.cache == nil {
		return s.quotations.Query(ctx, req)
	}

	key := s.cache.CacheKey(cacheName(req))
	if raw, err := s.cache.Get(ctx, key); err == nil {
		var hit types.QuotationQueryResponse
		if json.Unmarshal([]byte(raw), &hit) == nil {
			return &hit, nil
		}
	} else if !redis.IsNil(err) {
		s.warn(ctx, "analytics cache read failed", err)
	}

	resp, err := s.quotations.Query(ctx, req)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(resp); err == nil {
		if err := s.cache.Set(ctx, key, string(raw), s.ttl); err != nil {
			s.warn(ctx, "analytics cache write failed", err)
		}
	}
	return resp, nil
}

func (s *service) warn(ctx context.Context, msg string, err error) {
	if s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), msg)
	}
}

// cacheName is stable for equal requests; the rep name is hashed to keep
// keys short and free of spaces.
func cacheName(req types.QuotationQueryRequest) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%d|%d", req.SalesRep, req.Start.Unix(), req.End.Unix()))
	return "analytics:quotations:" + hex.EncodeToString(sum[:12])
}
