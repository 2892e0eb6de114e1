package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/freightquote-backend/pkg/enums"
)

// SalesRep is a directory member allowed to request quotations.
type SalesRep struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string             `gorm:"column:email;not null;uniqueIndex"`
	Name         string             `gorm:"column:name;not null"`
	Position     string             `gorm:"column:position"`
	Phone        string             `gorm:"column:phone"`
	Role         enums.SalesRepRole `gorm:"column:role;type:sales_rep_role_enum;not null"`
	PasswordHash string             `gorm:"column:password_hash;not null"`
	Active       bool               `gorm:"column:active;not null;default:true"`
	LastLoginAt  *time.Time         `gorm:"column:last_login_at"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (SalesRep) TableName() string { return "sales_reps" }

func (r *SalesRep) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
