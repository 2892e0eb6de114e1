package contracts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
	"github.com/angelmondragon/freightquote-backend/pkg/redis"
	"github.com/angelmondragon/freightquote-backend/pkg/sheets"
)

const cacheName = "contracts_catalog"

type cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CacheKey(name string) string
}

type cachedSheets struct {
	Containers [][]string `json:"containers"`
	Scrap      [][]string `json:"scrap"`
}

// Source reads the catalog worksheets through a Redis cache.
type Source struct {
	sheets        sheets.Store
	cache         cache
	spreadsheetID string
	containers    string
	scrap         string
	ttl           time.Duration
	logg          *logger.Logger
}

func NewSource(store sheets.Store, c cache, spreadsheetID, containers, scrap string, ttl time.Duration, logg *logger.Logger) (*Source, error) {
	if store == nil {
		return nil, fmt.Errorf("sheets store required")
	}
	if c == nil {
		return nil, fmt.Errorf("cache required")
	}
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "contracts catalog spreadsheet id is required")
	}
	return &Source{
		sheets:        store,
		cache:         c,
		spreadsheetID: spreadsheetID,
		containers:    containers,
		scrap:         scrap,
		ttl:           ttl,
		logg:          logg,
	}, nil
}

// Load returns the catalog. Cache failures fall back to the sheets.
func (s *Source) Load(ctx context.Context) (*Catalog, error) {
	key := s.cache.CacheKey(cacheName)
	if raw, err := s.cache.Get(ctx, key); err == nil {
		var cached cachedSheets
		if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
			return NewCatalog(cached.Containers, cached.Scrap), nil
		}
	} else if !redis.IsNil(err) {
		s.warn(ctx, "contracts cache read failed", err)
	}

	containers, err := s.read(ctx, s.containers)
	if err != nil {
		return nil, err
	}
	scrap, err := s.read(ctx, s.scrap)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(cachedSheets{Containers: containers, Scrap: scrap}); err == nil {
		if err := s.cache.Set(ctx, key, payload, s.ttl); err != nil {
			s.warn(ctx, "contracts cache write failed", err)
		}
	}
	return NewCatalog(containers, scrap), nil
}

func (s *Source) read(ctx context.Context, worksheet string) ([][]string, error) {
	rows, err := s.sheets.ReadAll(ctx, s.spreadsheetID, worksheet)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading "+worksheet)
	}
	return rows, nil
}

func (s *Source) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), msg)
}
