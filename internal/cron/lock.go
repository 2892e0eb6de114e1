package cron

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/freightquote-backend/pkg/redis"
)

// fallbackLockTTL outlives the slowest job; a crashed holder frees the lock
// after it.
const fallbackLockTTL = 30 * time.Minute

// Lock keeps two cron-worker replicas from running the same tick.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// RedisLock is a Lock held under a per-acquisition owner token, so a
// replica can only release what it took.
type RedisLock struct {
	locker redis.Locker
	name   string
	ttl    time.Duration
	host   string

	mu    sync.Mutex
	owner string
}

func NewRedisLock(locker redis.Locker, name string, ttl time.Duration) (*RedisLock, error) {
	switch {
	case locker == nil:
		return nil, errors.New("cron lock needs a redis locker")
	case name == "":
		return nil, errors.New("cron lock name is required")
	}
	if ttl <= 0 {
		ttl = fallbackLockTTL
	}
	host, _ := os.Hostname()
	return &RedisLock{locker: locker, name: name, ttl: ttl, host: host}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	owner := l.host + "/" + uuid.NewString()
	got, err := l.locker.TryLock(ctx, l.name, owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("acquiring cron lock %s: %w", l.name, err)
	}
	if got {
		l.owner = owner
	}
	return got, nil
}

// Release is a no-op unless this instance holds the lock.
func (l *RedisLock) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.owner == "" {
		return nil
	}
	if err := l.locker.Unlock(ctx, l.name, l.owner); err != nil {
		return fmt.Errorf("releasing cron lock %s: %w", l.name, err)
	}
	l.owner = ""
	return nil
}
