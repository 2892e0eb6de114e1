package audit

import (
	"context"
	"fmt"

	"github.com/angelmondragon/freightquote-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
	"github.com/angelmondragon/freightquote-backend/pkg/outbox"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) (bool, error)
}

// Recorder writes the audit row and its outbox event in one transaction.
type Recorder struct {
	db     txRunner
	repo   *Repository
	events eventEmitter
}

func NewRecorder(db txRunner, repo *Repository, events eventEmitter) (*Recorder, error) {
	if db == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &Recorder{db: db, repo: repo, events: events}, nil
}

// Record is safe to repeat for the same request id: the row and event are written at most once.
func (r *Recorder) Record(ctx context.Context, row models.QuotationAudit, event outbox.DomainEvent) error {
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := r.repo.Insert(ctx, tx, &row); err != nil {
			return fmt.Errorf("insert quotation audit: %w", err)
		}
		if _, err := r.events.Emit(ctx, tx, event); err != nil {
			return fmt.Errorf("emit %s: %w", event.EventType, err)
		}
		return nil
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording quotation audit")
	}
	return nil
}

// FindByRequestID returns the audit row or gorm.ErrRecordNotFound.
func (r *Recorder) FindByRequestID(ctx context.Context, requestID string) (*models.QuotationAudit, error) {
	return r.repo.FindByRequestID(ctx, requestID)
}
