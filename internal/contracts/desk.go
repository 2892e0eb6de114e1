package contracts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/freightquote-backend/internal/submission"
	"github.com/angelmondragon/freightquote-backend/pkg/config"
	"github.com/angelmondragon/freightquote-backend/pkg/db/models"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
	"github.com/angelmondragon/freightquote-backend/pkg/metrics"
	"github.com/angelmondragon/freightquote-backend/pkg/outbox"
	"github.com/angelmondragon/freightquote-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/freightquote-backend/pkg/sheets"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

const (
	stepRowPersisted = "contract_row_persisted"
	stepTimeLog      = "contract_time_logged"
	stepAudit        = "contract_audit_recorded"
)

type catalogLoader interface {
	Load(ctx context.Context) (*Catalog, error)
}

type idSource interface {
	Next(ctx context.Context) (string, error)
}

type auditStore interface {
	Record(ctx context.Context, row models.QuotationAudit, event outbox.DomainEvent) error
	FindByRequestID(ctx context.Context, requestID string) (*models.QuotationAudit, error)
}

type repDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.SalesRep, error)
}

// Requester is the authenticated rep submitting a quotation.
type Requester struct {
	ID    uuid.UUID
	Name  string
	Email string
	Role  enums.SalesRepRole
}

// Settings holds the spreadsheet targets of the desk.
type Settings struct {
	QuotesSpreadsheetID string
	Worksheet           string
	TimeSpreadsheetID   string
	DurationWorksheet   string
	MaxAttempts         int
	RetryDelay          time.Duration
	Location            *time.Location
}

// SettingsFromConfig maps the env config onto Settings.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		QuotesSpreadsheetID: cfg.Sheets.ContractsQuotesID,
		Worksheet:           cfg.Sheets.ContractsWorksheet,
		TimeSpreadsheetID:   cfg.Sheets.TimeSpreadsheetID,
		DurationWorksheet:   cfg.Sheets.DurationWorksheet,
		MaxAttempts:         cfg.Submission.MaxAttempts,
		RetryDelay:          cfg.Submission.RetryDelay,
		Location:            cfg.App.Location(),
	}
}

// DeskParams wires the desk collaborators.
type DeskParams struct {
	Settings Settings
	Catalog  catalogLoader
	IDs      idSource
	Sheets   sheets.Store
	Audit    auditStore
	Reps     repDirectory
	Metrics  *metrics.SubmissionMetrics
	Logger   *logger.Logger
	Now      func() time.Time
}

// Options are the lane pickers for the current selection.
type Options struct {
	Ports        []string `json:"ports"`
	Destinations []string `json:"destinations"`
	Commodities  []string `json:"commodities"`
}

// Submission is a persisted contract quotation.
type Submission struct {
	RequestID       string            `json:"request_id"`
	Row             map[string]string `json:"row"`
	Quote           Quote             `json:"quote"`
	DurationSeconds int               `json:"duration_seconds"`
}

// stored is the audit record payload, enough to rebuild the document.
type stored struct {
	Row        map[string]string `json:"row"`
	Quote      Quote             `json:"quote"`
	Commercial Commercial        `json:"commercial"`
	IssuedAt   time.Time         `json:"issued_at"`
}

// Desk quotes against the contracts catalog.
type Desk struct {
	cfg     Settings
	catalog catalogLoader
	ids     idSource
	sheets  sheets.Store
	audit   auditStore
	reps    repDirectory
	metrics *metrics.SubmissionMetrics
	logg    *logger.Logger
	retrier submission.Retrier
	now     func() time.Time
}

func NewDesk(p DeskParams) (*Desk, error) {
	switch {
	case p.Catalog == nil:
		return nil, fmt.Errorf("contracts catalog required")
	case p.IDs == nil:
		return nil, fmt.Errorf("request id source required")
	case p.Sheets == nil:
		return nil, fmt.Errorf("sheets store required")
	case p.Audit == nil:
		return nil, fmt.Errorf("audit store required")
	case p.Reps == nil:
		return nil, fmt.Errorf("sales rep directory required")
	case p.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(p.Settings.QuotesSpreadsheetID) == "" || strings.TrimSpace(p.Settings.TimeSpreadsheetID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "contract quotes and time spreadsheet ids are required")
	}
	if p.Settings.Location == nil {
		p.Settings.Location = time.UTC
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &Desk{
		cfg:     p.Settings,
		catalog: p.Catalog,
		ids:     p.IDs,
		sheets:  p.Sheets,
		audit:   p.Audit,
		reps:    p.Reps,
		metrics: p.Metrics,
		logg:    p.Logger,
		retrier: submission.Retrier{MaxAttempts: p.Settings.MaxAttempts, Delay: p.Settings.RetryDelay, Metrics: p.Metrics, Logger: p.Logger},
		now:     now,
	}, nil
}

// Options lists the loading ports, the destinations of pol and the commodities of the lane.
func (d *Desk) Options(ctx context.Context, pol, pod string) (Options, error) {
	cat, err := d.catalog.Load(ctx)
	if err != nil {
		return Options{}, err
	}
	opts := Options{Ports: cat.Ports(), Destinations: []string{}, Commodities: []string{}}
	if pol != "" {
		opts.Destinations = cat.Destinations(pol)
	}
	if pol != "" && pod != "" {
		opts.Commodities = cat.Commodities(pol, pod)
	}
	return opts, nil
}

// Search returns the valid contracts on the lane.
func (d *Desk) Search(ctx context.Context, f Filter) ([]Contract, error) {
	if strings.TrimSpace(f.POL) == "" || strings.TrimSpace(f.POD) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pol and pod are required")
	}
	cat, err := d.catalog.Load(ctx)
	if err != nil {
		return nil, err
	}
	return cat.Search(f, d.now(), d.cfg.Location), nil
}

// Submit prices req against its contract and persists the quotation row, the
// time log and the audit trail. start is when the rep opened the quote form.
func (d *Desk) Submit(ctx context.Context, rep Requester, req QuoteRequest, start time.Time) (_ *Submission, err error) {
	defer func() { d.metrics.Finished(string(enums.AggregateContractQuotation), err) }()

	req.Client = strings.TrimSpace(req.Client)
	if errs := req.Validate(); len(errs) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, errs[0].Message).
			WithDetails(map[string]any{"errors": errs})
	}
	cat, err := d.catalog.Load(ctx)
	if err != nil {
		return nil, err
	}
	ct, ok := cat.Find(Filter{POL: req.POL, POD: req.POD}, req.Line, req.ContractID, d.now(), d.cfg.Location)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "contract not found or expired")
	}
	if missing, _ := lo.Difference(req.CargoTypes, ct.CargoTypes); len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "container not offered by the contract").
			WithDetails(map[string]any{"cargo_types": missing})
	}
	if missing, _ := lo.Difference(req.Surcharges, ct.Surcharges()); len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "surcharge not offered by the contract").
			WithDetails(map[string]any{"surcharges": missing})
	}
	q := PriceQuote(req, ct)

	requestID, err := submission.DoValue(ctx, d.retrier, string(enums.StepIDAssigned), d.ids.Next)
	if err != nil {
		return nil, err
	}
	ctx = d.logg.WithQuotationID(ctx, requestID)
	end := d.now()
	if start.IsZero() || start.After(end) {
		start = end
	}

	row := Row(requestID, rep.Name, q, end, d.cfg.Location)
	err = d.retrier.Do(ctx, stepRowPersisted, func(ctx context.Context) error {
		if _, err := d.sheets.EnsureWorksheet(ctx, d.cfg.QuotesSpreadsheetID, d.cfg.Worksheet, Headers); err != nil {
			return err
		}
		return d.sheets.AppendRow(ctx, d.cfg.QuotesSpreadsheetID, d.cfg.Worksheet, row)
	})
	if err != nil {
		return nil, err
	}

	entry := submission.TimeEntry{RequestID: requestID, Kind: submission.TimeLogContracts, Start: start, End: end}
	err = d.retrier.Do(ctx, stepTimeLog, func(ctx context.Context) error {
		return submission.AppendTimeLog(ctx, d.sheets, d.cfg.TimeSpreadsheetID, d.cfg.DurationWorksheet, entry, d.cfg.Location)
	})
	if err != nil {
		return nil, err
	}

	record := stored{Row: RowMap(row), Quote: q, Commercial: d.commercial(ctx, rep), IssuedAt: end.UTC()}
	auditRow, event, err := d.auditRow(rep, requestID, record, entry)
	if err != nil {
		return nil, err
	}
	err = d.retrier.Do(ctx, stepAudit, func(ctx context.Context) error {
		return d.audit.Record(ctx, auditRow, event)
	})
	if err != nil {
		return nil, err
	}

	d.logg.Info(d.logg.WithFields(ctx, map[string]any{"contract_id": ct.ContractID, "line": ct.Line}), "contract quotation submitted")
	return &Submission{
		RequestID:       requestID,
		Row:             record.Row,
		Quote:           q,
		DurationSeconds: entry.DurationSeconds(),
	}, nil
}

// Document rebuilds the quotation workbook of a submitted contract quotation.
func (d *Desk) Document(ctx context.Context, requestID string) ([]byte, error) {
	row, err := d.audit.FindByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "quotation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading quotation")
	}
	if row.Kind != enums.AggregateContractQuotation {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quotation has no contract document")
	}
	var rec stored
	if err := json.Unmarshal(row.Record, &rec); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStateInconsistency, err, "decoding contract quotation")
	}
	doc, err := Document(rec.Quote, rec.Commercial, rec.IssuedAt.In(d.cfg.Location))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rendering quotation document")
	}
	return doc, nil
}

// commercial looks up position and phone. The requester identity is used when
// the directory is unavailable.
func (d *Desk) commercial(ctx context.Context, rep Requester) Commercial {
	out := Commercial{Name: rep.Name, Email: rep.Email}
	if rep.ID == uuid.Nil {
		return out
	}
	found, err := d.reps.FindByID(ctx, rep.ID)
	if err != nil {
		d.logg.Warn(d.logg.WithField(ctx, "error", err.Error()), "sales rep lookup failed")
		return out
	}
	if found == nil {
		return out
	}
	out.Name, out.Email = found.Name, found.Email
	out.Position, out.Phone = found.Position, found.Phone
	return out
}

func (d *Desk) auditRow(rep Requester, requestID string, rec stored, entry submission.TimeEntry) (models.QuotationAudit, outbox.DomainEvent, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return models.QuotationAudit{}, outbox.DomainEvent{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding contract quotation")
	}
	q := rec.Quote
	start := entry.Start
	var repID *uuid.UUID
	var actor *outbox.ActorRef
	if rep.ID != uuid.Nil {
		id := rep.ID
		repID = &id
		actor = &outbox.ActorRef{SalesRepID: id, Email: rep.Email, Role: string(rep.Role)}
	}
	row := models.QuotationAudit{
		RequestID:       requestID,
		Kind:            enums.AggregateContractQuotation,
		SalesRepID:      repID,
		SalesRep:        rep.Name,
		Client:          q.Request.Client,
		Services:        append([]string(nil), q.Request.CargoTypes...),
		Worksheets:      []string{d.cfg.Worksheet},
		Record:          raw,
		Status:          enums.StepComplete,
		DurationSeconds: entry.DurationSeconds(),
		StartedAt:       &start,
		SubmittedAt:     entry.End.UTC(),
	}
	event := outbox.DomainEvent{
		EventType:     enums.EventContractQuotationSubmitted,
		AggregateType: enums.AggregateContractQuotation,
		AggregateID:   outbox.AggregateID(enums.AggregateContractQuotation, requestID),
		Actor:         actor,
		OccurredAt:    entry.End.UTC(),
		Data: payloads.ContractQuotationSubmittedEvent{
			RequestID:   requestID,
			SalesRep:    rep.Name,
			Client:      q.Request.Client,
			Incoterm:    string(q.Request.Incoterm),
			POL:         q.Contract.POL,
			POD:         q.Contract.POD,
			ContractID:  q.Contract.ContractID,
			TotalCost:   q.TotalCost.StringFixed(2),
			TotalSale:   q.TotalSale.StringFixed(2),
			TotalProfit: q.Profit().StringFixed(2),
			SubmittedAt: entry.End.UTC(),
		},
	}
	return row, event, nil
}
