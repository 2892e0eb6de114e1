// Package audit keeps the local record of quotation rows written to the sheets.
package audit

import (
	"context"

	"github.com/angelmondragon/freightquote-backend/internal/repo"
	"github.com/angelmondragon/freightquote-backend/pkg/db/models"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var recentAudits = repo.Window{Column: "submitted_at", Default: 50, Max: 500}

// Repository persists quotation_audits rows.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Insert stores the audit row inside tx when given. A row already present
// for the request id is left untouched and reported as not inserted.
func (r *Repository) Insert(ctx context.Context, tx *gorm.DB, row *models.QuotationAudit) (bool, error) {
	res := r.Conn(ctx, tx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "request_id"}},
		DoNothing: true,
	}).Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindByRequestID returns the audit row or gorm.ErrRecordNotFound.
func (r *Repository) FindByRequestID(ctx context.Context, requestID string) (*models.QuotationAudit, error) {
	var row models.QuotationAudit
	if err := r.DB(ctx).Where("request_id = ?", requestID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ListRecent returns the newest audit rows of kind, newest first.
func (r *Repository) ListRecent(ctx context.Context, kind enums.OutboxAggregateType, limit int) ([]models.QuotationAudit, error) {
	var rows []models.QuotationAudit
	err := r.DB(ctx).
		Where("kind = ?", kind).
		Scopes(recentAudits.Newest(limit)).
		Find(&rows).Error
	return rows, err
}
