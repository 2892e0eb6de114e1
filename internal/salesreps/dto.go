package salesreps

import (
	"strings"
	"time"

	"github.com/angelmondragon/freightquote-backend/pkg/db/models"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	"github.com/google/uuid"
)

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest pairs the expired access token with its refresh token.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RegisterRequest is the manager-only payload that adds a rep to the directory.
type RegisterRequest struct {
	Email    string             `json:"email" validate:"required,email"`
	Name     string             `json:"name" validate:"required,min=2,max=120"`
	Position string             `json:"position" validate:"omitempty,max=120"`
	Phone    string             `json:"phone" validate:"omitempty,max=40"`
	Role     enums.SalesRepRole `json:"role" validate:"required,oneof=sales pricing manager"`
	Password string             `json:"password" validate:"required,min=10"`
}

// SalesRepDTO is the transport shape that omits credentials.
type SalesRepDTO struct {
	ID          uuid.UUID          `json:"id"`
	Email       string             `json:"email"`
	Name        string             `json:"name"`
	Position    string             `json:"position,omitempty"`
	Phone       string             `json:"phone,omitempty"`
	Role        enums.SalesRepRole `json:"role"`
	Active      bool               `json:"active"`
	LastLoginAt *time.Time         `json:"last_login_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// LoginResponse contains the token pair and the signed-in rep.
type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	SalesRep     *SalesRepDTO `json:"sales_rep"`
}

// CreateSalesRepDTO holds the data required by the repo to persist a new rep.
type CreateSalesRepDTO struct {
	Email        string
	Name         string
	Position     string
	Phone        string
	Role         enums.SalesRepRole
	PasswordHash string
}

func FromModel(r *models.SalesRep) *SalesRepDTO {
	if r == nil {
		return nil
	}
	return &SalesRepDTO{
		ID:          r.ID,
		Email:       r.Email,
		Name:        r.Name,
		Position:    r.Position,
		Phone:       r.Phone,
		Role:        r.Role,
		Active:      r.Active,
		LastLoginAt: r.LastLoginAt,
		CreatedAt:   r.CreatedAt,
	}
}

func (c CreateSalesRepDTO) ToModel() *models.SalesRep {
	return &models.SalesRep{
		Email:        strings.ToLower(strings.TrimSpace(c.Email)),
		Name:         strings.TrimSpace(c.Name),
		Position:     strings.TrimSpace(c.Position),
		Phone:        strings.TrimSpace(c.Phone),
		Role:         c.Role,
		PasswordHash: c.PasswordHash,
		Active:       true,
	}
}
