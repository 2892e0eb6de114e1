package salesreps

import (
	"context"
	"time"

	"github.com/angelmondragon/freightquote-backend/internal/repo"
	"github.com/angelmondragon/freightquote-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes sales rep persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a sales rep repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create inserts a new sales rep and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateSalesRepDTO) (*models.SalesRep, error) {
	rep := dto.ToModel()
	if err := r.DB(ctx).Create(rep).Error; err != nil {
		return nil, err
	}
	return rep, nil
}

// FindByEmail retrieves the sales rep matching the lower-cased email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.SalesRep, error) {
	var rep models.SalesRep
	if err := r.DB(ctx).Where("email = ?", email).First(&rep).Error; err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.SalesRep, error) {
	var rep models.SalesRep
	if err := r.DB(ctx).First(&rep, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rep, nil
}

// List returns the directory ordered by name.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]models.SalesRep, error) {
	var reps []models.SalesRep
	query := r.DB(ctx).Order("name ASC")
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	if err := query.Find(&reps).Error; err != nil {
		return nil, err
	}
	return reps, nil
}

// UpdateLastLogin refreshes the rep's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.DB(ctx).
		Model(&models.SalesRep{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// SetActive enables or disables a rep. Disabled reps cannot log in.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res := r.DB(ctx).
		Model(&models.SalesRep{}).
		Where("id = ?", id).
		UpdateColumn("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
