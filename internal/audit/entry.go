package audit

import (
	"context"
	"time"

	"github.com/angelmondragon/freightquote-backend/pkg/db/models"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
	"github.com/google/uuid"
)

// Entry is the listing shape of an audit row. The sheet record itself stays out.
type Entry struct {
	RequestID       string                    `json:"request_id"`
	Kind            enums.OutboxAggregateType `json:"kind"`
	SalesRepID      *uuid.UUID                `json:"sales_rep_id,omitempty"`
	SalesRep        string                    `json:"sales_rep"`
	Client          string                    `json:"client"`
	ClientReference string                    `json:"client_reference,omitempty"`
	Services        []string                  `json:"services"`
	FolderLink      string                    `json:"folder_link,omitempty"`
	Status          enums.SubmissionStep      `json:"status"`
	DurationSeconds int                       `json:"duration_seconds"`
	SubmittedAt     time.Time                 `json:"submitted_at"`
}

func entryFromModel(row models.QuotationAudit) Entry {
	services := []string(row.Services)
	if services == nil {
		services = []string{}
	}
	return Entry{
		RequestID:       row.RequestID,
		Kind:            row.Kind,
		SalesRepID:      row.SalesRepID,
		SalesRep:        row.SalesRep,
		Client:          row.Client,
		ClientReference: row.ClientReference,
		Services:        services,
		FolderLink:      row.FolderLink,
		Status:          row.Status,
		DurationSeconds: row.DurationSeconds,
		SubmittedAt:     row.SubmittedAt,
	}
}

// Recent lists the newest submissions of kind.
func (r *Recorder) Recent(ctx context.Context, kind enums.OutboxAggregateType, limit int) ([]Entry, error) {
	if !kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown quotation kind")
	}
	rows, err := r.repo.ListRecent(ctx, kind, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing quotation audits")
	}
	out := make([]Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, entryFromModel(row))
	}
	return out, nil
}
