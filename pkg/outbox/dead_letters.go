package outbox

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/freightquote-backend/internal/repo"
	"github.com/angelmondragon/freightquote-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
)

var deadLetterWindow = repo.Window{Column: "failed_at", Default: 50, Max: 500}

// DeadLetters stores the events the publisher gave up on.
type DeadLetters struct {
	repo.Base
}

func NewDeadLetters(db *gorm.DB) *DeadLetters {
	return &DeadLetters{Base: repo.NewBase(db)}
}

func (d *DeadLetters) Insert(ctx context.Context, tx *gorm.DB, entry *models.OutboxDeadLetter) error {
	if entry.ErrorMessage != nil {
		msg := clip(*entry.ErrorMessage)
		entry.ErrorMessage = &msg
	}
	return d.Conn(ctx, tx).Create(entry).Error
}

// Get returns the dead letter for an outbox event id.
func (d *DeadLetters) Get(ctx context.Context, eventID uuid.UUID) (*models.OutboxDeadLetter, error) {
	var entry models.OutboxDeadLetter
	err := d.DB(ctx).Where("event_id = ?", eventID).Order("failed_at DESC").First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dead letter not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading dead letter")
	}
	return &entry, nil
}

// List returns the newest dead letters first.
func (d *DeadLetters) List(ctx context.Context, limit int) ([]models.OutboxDeadLetter, error) {
	var rows []models.OutboxDeadLetter
	err := d.DB(ctx).Scopes(deadLetterWindow.Newest(limit)).Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing dead letters")
	}
	return rows, nil
}
