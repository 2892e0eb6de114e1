package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/freightquote-backend/internal/repo"
	"github.com/angelmondragon/freightquote-backend/pkg/db/models"
)

const maxErrorLen = 1024

// Repository reads and updates outbox_events. Every method accepts an
// optional tx; the publisher passes the transaction holding its row locks.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Insert queues event unless one already exists for the same event type and
// aggregate (ux_outbox_events_event_aggregate).
func (r *Repository) Insert(ctx context.Context, tx *gorm.DB, event *models.OutboxEvent) (bool, error) {
	res := r.Conn(ctx, tx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_type"}, {Name: "aggregate_type"}, {Name: "aggregate_id"}},
		DoNothing: true,
	}).Create(event)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Claim returns the oldest unpublished rows still under maxAttempts. On
// postgres the rows stay locked (SKIP LOCKED) until tx ends so concurrent
// publishers split the backlog.
func (r *Repository) Claim(ctx context.Context, tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	q := r.Conn(ctx, tx).
		Where("published_at IS NULL AND attempt_count < ?", maxAttempts).
		Order("created_at ASC, id ASC").
		Limit(limit)
	if q.Dialector != nil && q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
	}
	var rows []models.OutboxEvent
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) MarkPublished(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) error {
	return r.update(ctx, tx, id, map[string]any{"published_at": at.UTC()})
}

// MarkFailed records a retryable failure and spends one attempt.
func (r *Repository) MarkFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID, cause error) error {
	return r.update(ctx, tx, id, map[string]any{
		"last_error":    clip(errorText(cause)),
		"attempt_count": gorm.Expr("attempt_count + 1"),
	})
}

// Park sets attempt_count to attempts so Claim never returns the row again.
func (r *Repository) Park(ctx context.Context, tx *gorm.DB, id uuid.UUID, cause error, attempts int) error {
	return r.update(ctx, tx, id, map[string]any{
		"last_error":    clip(errorText(cause)),
		"attempt_count": attempts,
	})
}

// Purge deletes rows published before cutoff and parked rows (attempt_count
// at or above parkedAt) created before cutoff.
func (r *Repository) Purge(ctx context.Context, tx *gorm.DB, cutoff time.Time, parkedAt int) (int64, error) {
	res := r.Conn(ctx, tx).
		Where("(published_at IS NOT NULL AND published_at < ?) OR (published_at IS NULL AND attempt_count >= ? AND created_at < ?)",
			cutoff, parkedAt, cutoff).
		Delete(&models.OutboxEvent{})
	return res.RowsAffected, res.Error
}

func (r *Repository) update(ctx context.Context, tx *gorm.DB, id uuid.UUID, values map[string]any) error {
	return r.Conn(ctx, tx).Model(&models.OutboxEvent{}).Where("id = ?", id).Updates(values).Error
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func clip(msg string) string {
	if len(msg) > maxErrorLen {
		return msg[:maxErrorLen]
	}
	return msg
}
