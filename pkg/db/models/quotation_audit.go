package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/angelmondragon/freightquote-backend/pkg/enums"
)

// QuotationAudit is the local record of a quotation row written to the sheets.
type QuotationAudit struct {
	ID              uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RequestID       string                    `gorm:"column:request_id;not null;uniqueIndex"`
	Kind            enums.OutboxAggregateType `gorm:"column:kind;type:aggregate_type_enum;not null"`
	SessionID       *string                   `gorm:"column:session_id"`
	SalesRepID      *uuid.UUID                `gorm:"column:sales_rep_id;type:uuid"`
	SalesRep        string                    `gorm:"column:sales_rep;not null"`
	Client          string                    `gorm:"column:client;not null"`
	ClientReference string                    `gorm:"column:client_reference"`
	Services        pq.StringArray            `gorm:"column:services;type:text[]"`
	Worksheets      pq.StringArray            `gorm:"column:worksheets;type:text[]"`
	FolderID        string                    `gorm:"column:folder_id"`
	FolderLink      string                    `gorm:"column:folder_link"`
	Record          json.RawMessage           `gorm:"column:record;type:jsonb;not null"`
	Status          enums.SubmissionStep      `gorm:"column:status;not null"`
	DurationSeconds int                       `gorm:"column:duration_seconds;not null;default:0"`
	StartedAt       *time.Time                `gorm:"column:started_at"`
	SubmittedAt     time.Time                 `gorm:"column:submitted_at;not null"`
	CreatedAt       time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

func (QuotationAudit) TableName() string { return "quotation_audits" }

func (a *QuotationAudit) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
