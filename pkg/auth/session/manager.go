// Package session keeps the refresh side of a login in Redis. Each access
// token's jti owns one record holding the hash of its refresh token.
package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/freightquote-backend/pkg/config"
	pkgredis "github.com/angelmondragon/freightquote-backend/pkg/redis"
)

const refreshTokenBytes = 32

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

type kv interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type keyer interface {
	AccessSessionKey(accessID string) string
}

// Issued is what a login or refresh hands back to the rep.
type Issued struct {
	AccessID     string
	RefreshToken string
	SalesRepID   uuid.UUID
}

// AccessSessionChecker is what Auth needs to reject revoked access tokens.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// record is the stored value. Only the refresh token's hash is kept.
type record struct {
	SalesRepID uuid.UUID `json:"sales_rep_id"`
	TokenHash  string    `json:"token_hash"`
	IssuedAt   time.Time `json:"issued_at"`
}

type Manager struct {
	store kv
	keys  keyer
	ttl   time.Duration
	now   func() time.Time
}

// NewManager requires the refresh ttl to outlive the access ttl, otherwise
// a rep could never refresh.
func NewManager(client *pkgredis.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	refresh, access := cfg.RefreshTokenTTL(), cfg.AccessTokenTTL()
	switch {
	case refresh <= 0:
		return nil, errors.New("refresh token ttl must be positive")
	case refresh <= access:
		return nil, fmt.Errorf("refresh token ttl %s must exceed access token ttl %s", refresh, access)
	}
	return &Manager{store: client, keys: client, ttl: refresh, now: time.Now}, nil
}

// Open starts a session for a rep who just proved their password.
func (m *Manager) Open(ctx context.Context, salesRepID uuid.UUID) (Issued, error) {
	if salesRepID == uuid.Nil {
		return Issued{}, errors.New("sales rep id is required")
	}
	return m.issue(ctx, salesRepID)
}

// Rotate trades a refresh token for a new session. The old record is
// removed so a refresh token works exactly once.
func (m *Manager) Rotate(ctx context.Context, oldAccessID, provided string) (Issued, error) {
	oldAccessID, provided = strings.TrimSpace(oldAccessID), strings.TrimSpace(provided)
	if oldAccessID == "" || provided == "" {
		return Issued{}, ErrInvalidRefreshToken
	}

	key := m.keys.AccessSessionKey(oldAccessID)
	rec, err := m.load(ctx, key)
	if err != nil {
		return Issued{}, err
	}
	if subtle.ConstantTimeCompare([]byte(rec.TokenHash), []byte(hashToken(provided))) != 1 {
		return Issued{}, ErrInvalidRefreshToken
	}

	if err := m.store.Del(ctx, key); err != nil {
		return Issued{}, fmt.Errorf("dropping rotated session: %w", err)
	}
	return m.issue(ctx, rec.SalesRepID)
}

// Revoke ends the session behind accessID; logout calls it.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return errors.New("access id is required")
	}
	return m.store.Del(ctx, m.keys.AccessSessionKey(accessID))
}

func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return false, errors.New("access id is required")
	}
	_, err := m.store.Get(ctx, m.keys.AccessSessionKey(accessID))
	switch {
	case err == nil:
		return true, nil
	case pkgredis.IsNil(err):
		return false, nil
	default:
		return false, err
	}
}

func (m *Manager) issue(ctx context.Context, salesRepID uuid.UUID) (Issued, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return Issued{}, fmt.Errorf("generating refresh token: %w", err)
	}
	out := Issued{
		AccessID:     NewAccessID(),
		RefreshToken: base64.RawURLEncoding.EncodeToString(buf),
		SalesRepID:   salesRepID,
	}

	raw, err := json.Marshal(record{SalesRepID: salesRepID, TokenHash: hashToken(out.RefreshToken), IssuedAt: m.now().UTC()})
	if err != nil {
		return Issued{}, err
	}
	if err := m.store.Set(ctx, m.keys.AccessSessionKey(out.AccessID), string(raw), m.ttl); err != nil {
		return Issued{}, fmt.Errorf("storing session: %w", err)
	}
	return out, nil
}

func (m *Manager) load(ctx context.Context, key string) (record, error) {
	raw, err := m.store.Get(ctx, key)
	if pkgredis.IsNil(err) {
		return record{}, ErrInvalidRefreshToken
	}
	if err != nil {
		return record{}, err
	}
	var rec record
	if json.Unmarshal([]byte(raw), &rec) != nil || rec.SalesRepID == uuid.Nil || rec.TokenHash == "" {
		return record{}, ErrInvalidRefreshToken
	}
	return rec, nil
}

// NewAccessID mints the jti shared by the access token and its session key.
func NewAccessID() string {
	return uuid.NewString()
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
