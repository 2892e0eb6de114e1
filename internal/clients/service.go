// Package clients reads and extends the client directory kept in the time sheet.
package clients

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
	"github.com/samber/lo"
)

const (
	cacheName  = "clients"
	headerName = "Cliente"
)

type cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(name string) string
}

// Service lists clients from the first column of the clients worksheet.
type Service struct {
	sheets        sheets.Store
	cache         cache
	spreadsheetID string
	worksheet     string
	ttl           time.Duration
	logg          *logger.Logger
}

func NewService(store sheets.Store, c cache, spreadsheetID, worksheet string, ttl time.Duration, logg *logger.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("sheets store required")
	}
	if c == nil {
		return nil, fmt.Errorf("cache required")
	}
	if strings.TrimSpace(spreadsheetID) == "" || strings.TrimSpace(worksheet) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "clients spreadsheet and worksheet are required")
	}
	return &Service{
		sheets:        store,
		cache:         c,
		spreadsheetID: spreadsheetID,
		worksheet:     worksheet,
		ttl:           ttl,
		logg:          logg,
	}, nil
}

// List returns the known clients in sheet order. Cache failures fall back to the sheet.
func (s *Service) List(ctx context.Context) ([]string, error) {
	key := s.cache.CacheKey(cacheName)
	if raw, err := s.cache.Get(ctx, key); err == nil {
		var names []string
		if jsonErr := json.Unmarshal([]byte(raw), &names); jsonErr == nil {
			return names, nil
		}
	} else if !redis.IsNil(err) {
		s.warn(ctx, "clients cache read failed", err)
	}

	rows, err := s.sheets.ReadAll(ctx, s.spreadsheetID, s.worksheet)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading clients")
	}
	names := FirstColumn(rows)

	if payload, err := json.Marshal(names); err == nil {
		if err := s.cache.Set(ctx, key, payload, s.ttl); err != nil {
			s.warn(ctx, "clients cache write failed", err)
		}
	}
	return names, nil
}

// Ensure appends name when the directory does not have it yet.
func (s *Service) Ensure(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "client name is required")
	}
	rows, err := s.sheets.ReadAll(ctx, s.spreadsheetID, s.worksheet)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading clients")
	}
	if Contains(FirstColumn(rows), name) {
		return nil
	}
	if _, err := s.sheets.EnsureWorksheet(ctx, s.spreadsheetID, s.worksheet, []string{headerName}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "preparing clients worksheet")
	}
	if err := s.sheets.AppendRow(ctx, s.spreadsheetID, s.worksheet, []string{name}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "appending client")
	}
	if err := s.cache.Del(ctx, s.cache.CacheKey(cacheName)); err != nil {
		s.warn(ctx, "clients cache invalidation failed", err)
	}
	return nil
}

// Resolve returns the directory spelling of name when it exists, else name trimmed.
func (s *Service) Resolve(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil
	}
	names, err := s.List(ctx)
	if err != nil {
		return "", err
	}
	if match, ok := lo.Find(names, func(n string) bool { return strings.EqualFold(n, name) }); ok {
		return match, nil
	}
	return name, nil
}

// FirstColumn returns the non-empty first cells below the header row.
func FirstColumn(rows [][]string) []string {
	if len(rows) <= 1 {
		return []string{}
	}
	out := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		if v := strings.TrimSpace(row[0]); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Contains matches names case-insensitively.
func Contains(names []string, name string) bool {
	return lo.ContainsBy(names, func(n string) bool { return strings.EqualFold(n, strings.TrimSpace(name)) })
}

func (s *Service) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), msg)
}
