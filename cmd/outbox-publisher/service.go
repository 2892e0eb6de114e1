package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/angelmondragon/freightquote-backend/pkg/config"
	"github.com/angelmondragon/freightquote-backend/pkg/db/models"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
	"github.com/angelmondragon/freightquote-backend/pkg/metrics"
	"github.com/angelmondragon/freightquote-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize   = 50
	defaultPoll        = 500 * time.Millisecond
	defaultMaxAttempts = 10
	defaultMaxBackoff  = 5 * time.Minute
	publishTimeout     = 15 * time.Second
	pollJitter         = 250 * time.Millisecond
)

type database interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type outboxStore interface {
	Claim(ctx context.Context, tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublished(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID, cause error) error
	Park(ctx context.Context, tx *gorm.DB, id uuid.UUID, cause error, attempts int) error
}

type deadLetterStore interface {
	Insert(ctx context.Context, tx *gorm.DB, entry *models.OutboxDeadLetter) error
}

type resolver interface {
	Resolve(models.OutboxEvent) (*registry.Resolved, error)
}

type ServiceParams struct {
	Outbox      config.OutboxConfig
	Logger      *logger.Logger
	DB          database
	PubSub      pubsubClient
	Repository  outboxStore
	DeadLetters deadLetterStore
	Routes      resolver
	Metrics     *metrics.OutboxMetrics
	// Publishers overrides the Pub/Sub publisher lookup in tests.
	Publishers publisherSource
}

// Service relays outbox_events rows to Pub/Sub. Each batch runs in one
// transaction so claimed rows stay locked until their outcome is written.
type Service struct {
	logg        *logger.Logger
	db          database
	pubsub      pubsubClient
	repo        outboxStore
	dead        deadLetterStore
	routes      resolver
	metrics     *metrics.OutboxMetrics
	publishers  publisherSource
	batchSize   int
	maxAttempts int
	poll        time.Duration
	maxBackoff  time.Duration
	now         func() time.Time
}

func NewService(p ServiceParams) (*Service, error) {
	switch {
	case p.Logger == nil:
		return nil, errors.New("logger is required")
	case p.DB == nil:
		return nil, errors.New("database client is required")
	case p.PubSub == nil:
		return nil, errors.New("pubsub client is required")
	case p.Repository == nil:
		return nil, errors.New("outbox repository is required")
	case p.DeadLetters == nil:
		return nil, errors.New("dead letter repository is required")
	case p.Routes == nil:
		return nil, errors.New("event routes are required")
	}
	s := &Service{
		logg:        p.Logger,
		db:          p.DB,
		pubsub:      p.PubSub,
		repo:        p.Repository,
		dead:        p.DeadLetters,
		routes:      p.Routes,
		metrics:     p.Metrics,
		publishers:  p.Publishers,
		batchSize:   positive(p.Outbox.BatchSize, defaultBatchSize),
		maxAttempts: positive(p.Outbox.MaxAttempts, defaultMaxAttempts),
		poll:        time.Duration(p.Outbox.PollIntervalMS) * time.Millisecond,
		maxBackoff:  p.Outbox.MaxBackoff,
		now:         time.Now,
	}
	if s.poll <= 0 {
		s.poll = defaultPoll
	}
	if s.maxBackoff < s.poll {
		s.maxBackoff = defaultMaxBackoff
	}
	if s.publishers == nil {
		s.publishers = gcpPublishers(p.PubSub)
	}
	return s, nil
}

func positive(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Run polls until ctx is canceled. A busy batch is followed immediately by
// the next one; failed batches back off exponentially up to maxBackoff.
func (s *Service) Run(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}
	if err := s.pubsub.Ping(ctx); err != nil {
		return fmt.Errorf("pubsub ping: %w", err)
	}

	backoff := s.newBackoff()
	for {
		busy, err := s.processBatch(ctx)
		var wait time.Duration
		switch {
		case err != nil:
			s.logg.Error(ctx, "outbox batch failed", err)
			wait, _ = backoff.Next()
		case busy:
			backoff = s.newBackoff()
			continue
		default:
			backoff = s.newBackoff()
			wait = s.poll
		}
		if err := sleep(ctx, wait); err != nil {
			s.logg.Info(ctx, "outbox publisher stopping")
			return err
		}
	}
}

func (s *Service) newBackoff() retry.Backoff {
	b := retry.NewExponential(s.poll)
	b = retry.WithCappedDuration(s.maxBackoff, b)
	return retry.WithJitter(pollJitter, b)
}

// processBatch reports whether any row was claimed.
func (s *Service) processBatch(ctx context.Context) (bool, error) {
	claimed := 0
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.Claim(ctx, tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return fmt.Errorf("claim outbox rows: %w", err)
		}
		claimed = len(events)
		for _, event := range events {
			outcome, err := s.dispatch(ctx, tx, event)
			if err != nil {
				return err
			}
			s.metrics.Event(string(event.EventType), outcome)
		}
		return nil
	})
	s.metrics.Batch(claimed)
	return claimed > 0, err
}

// dispatch publishes one row and records the outcome on it. Errors returned
// here are database errors that abort the batch.
func (s *Service) dispatch(ctx context.Context, tx *gorm.DB, event models.OutboxEvent) (string, error) {
	logCtx := s.logg.WithFields(ctx, event.LogFields())

	resolved, err := s.routes.Resolve(event)
	if err == nil {
		logCtx = s.logg.WithFields(logCtx, map[string]any{
			"event_id": resolved.Envelope.EventID,
			"topic":    resolved.Route.Topic,
		})
		err = s.publish(logCtx, event, resolved)
	}
	if err == nil {
		if err := s.repo.MarkPublished(ctx, tx, event.ID, s.now()); err != nil {
			return "", fmt.Errorf("mark %s published: %w", event.ID, err)
		}
		s.logg.Info(logCtx, "outbox event published")
		return metrics.OutboxPublished, nil
	}

	reason := enums.DeadLetterMaxAttempts
	if perm, ok := registry.AsPermanent(err); ok {
		reason = perm.Reason
	} else if event.AttemptCount+1 < s.maxAttempts {
		s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "outbox publish failed, will retry")
		if err := s.repo.MarkFailed(ctx, tx, event.ID, err); err != nil {
			return "", fmt.Errorf("mark %s failed: %w", event.ID, err)
		}
		return metrics.OutboxRetry, nil
	}

	if err := s.deadLetter(ctx, tx, event, reason, err); err != nil {
		return "", err
	}
	s.logg.Error(s.logg.WithField(logCtx, "reason", reason), "outbox event dead-lettered", err)
	return metrics.OutboxDeadLettered, nil
}

func (s *Service) publish(ctx context.Context, event models.OutboxEvent, resolved *registry.Resolved) error {
	pub := s.publishers(resolved.Route.Topic)
	if pub == nil {
		return registry.Permanent(enums.DeadLetterUnroutable, fmt.Errorf("no publisher for topic %s", resolved.Route.Topic))
	}
	sendCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if _, err := pub.Send(sendCtx, message(event, resolved)); err != nil {
		return err
	}
	return nil
}

// deadLetter copies the row to outbox_dlq and parks it at the attempt budget.
func (s *Service) deadLetter(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, reason enums.DeadLetterReason, cause error) error {
	entry := event.DeadLetter(reason, cause, s.now())
	if err := s.dead.Insert(ctx, tx, entry); err != nil {
		return fmt.Errorf("dead-letter %s: %w", event.ID, err)
	}
	if err := s.repo.Park(ctx, tx, event.ID, cause, s.maxAttempts); err != nil {
		return fmt.Errorf("park %s: %w", event.ID, err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
