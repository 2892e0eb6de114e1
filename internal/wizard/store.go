package wizard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
	"github.com/angelmondragon/freightquote-backend/pkg/redis"
)

type keyValue interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	WizardSessionKey(sessionID string) string
}

// Store keeps sessions as JSON documents in Redis. Every save refreshes the TTL.
type Store struct {
	kv  keyValue
	ttl time.Duration
}

func NewStore(kv keyValue, ttl time.Duration) (*Store, error) {
	if kv == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Store{kv: kv, ttl: ttl}, nil
}

// Load returns the session or a NOT_FOUND error once it expired or was abandoned.
func (s *Store) Load(ctx context.Context, id string) (*Session, error) {
	raw, err := s.kv.Get(ctx, s.kv.WizardSessionKey(id))
	if err != nil {
		if redis.IsNil(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wizard session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wizard session")
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStateInconsistency, err, "decode wizard session")
	}
	return &sess, nil
}

func (s *Store) Save(ctx context.Context, sess *Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode wizard session")
	}
	if err := s.kv.Set(ctx, s.kv.WizardSessionKey(sess.ID), payload, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save wizard session")
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.kv.Del(ctx, s.kv.WizardSessionKey(id)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete wizard session")
	}
	return nil
}
