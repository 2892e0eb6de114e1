package submission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/angelmondragon/freightquote-backend/internal/aggregate"
	"github.com/angelmondragon/freightquote-backend/internal/fields"
	"github.com/angelmondragon/freightquote-backend/internal/quotation"
	"github.com/angelmondragon/freightquote-backend/pkg/config"
	"github.com/angelmondragon/freightquote-backend/pkg/db/models"
	"github.com/angelmondragon/freightquote-backend/pkg/drive"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
	"github.com/angelmondragon/freightquote-backend/pkg/metrics"
	"github.com/angelmondragon/freightquote-backend/pkg/outbox"
	"github.com/angelmondragon/freightquote-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/freightquote-backend/pkg/sheets"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Step labels for the work that follows the row write.
const (
	stepTimeLog = "time_logged"
	stepClient  = "client_recorded"
	stepAudit   = "audit_recorded"
)

type idSource interface {
	Next(ctx context.Context) (string, error)
}

type stagedFiles interface {
	Open(session, scope, field, name string) (*os.File, error)
	Clear(session string) error
}

type clientDirectory interface {
	Ensure(ctx context.Context, name string) error
}

type auditRecorder interface {
	Record(ctx context.Context, row models.QuotationAudit, event outbox.DomainEvent) error
}

// SaveFunc persists the checkpoint between steps.
type SaveFunc func(ctx context.Context, cp Checkpoint) error

// Request is the quotation being finalized.
type Request struct {
	SessionID       string
	SalesRepID      *uuid.UUID
	SalesRep        string
	SalesRepEmail   string
	SalesRepRole    enums.SalesRepRole
	Client          string
	ClientReference string
	Entries         []quotation.Entry
	StartTime       time.Time
}

// Result describes a persisted quotation.
type Result struct {
	RequestID       string            `json:"request_id"`
	FolderLink      string            `json:"folder_link"`
	Worksheets      []string          `json:"worksheets"`
	DurationSeconds int               `json:"duration_seconds"`
	Record          map[string]string `json:"record"`
}

// Settings holds the spreadsheet targets and retry ceiling.
type Settings struct {
	QuotationsSpreadsheetID string
	TimeSpreadsheetID       string
	AllQuotesWorksheet      string
	GroundWorksheet         string
	DurationWorksheet       string
	MaxAttempts             int
	RetryDelay              time.Duration
	Location                *time.Location
}

// SettingsFromConfig maps the env config onto Settings.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		QuotationsSpreadsheetID: cfg.Sheets.QuotationsSpreadsheetID,
		TimeSpreadsheetID:       cfg.Sheets.TimeSpreadsheetID,
		AllQuotesWorksheet:      cfg.Sheets.AllQuotesWorksheet,
		GroundWorksheet:         cfg.Sheets.GroundWorksheet,
		DurationWorksheet:       cfg.Sheets.DurationWorksheet,
		MaxAttempts:             cfg.Submission.MaxAttempts,
		RetryDelay:              cfg.Submission.RetryDelay,
		Location:                cfg.App.Location(),
	}
}

// CoordinatorParams wires the coordinator collaborators.
type CoordinatorParams struct {
	Settings Settings
	IDs      idSource
	Sheets   sheets.Store
	Drive    drive.Store
	Staging  stagedFiles
	Clients  clientDirectory
	Audit    auditRecorder
	Metrics  *metrics.SubmissionMetrics
	Logger   *logger.Logger
	Now      func() time.Time
}

// Coordinator runs the finalize state machine
// not_submitted → id_assigned → folder_provisioned → files_uploaded → row_persisted → complete.
type Coordinator struct {
	cfg     Settings
	ids     idSource
	sheets  sheets.Store
	drive   drive.Store
	staging stagedFiles
	clients clientDirectory
	audit   auditRecorder
	metrics *metrics.SubmissionMetrics
	logg    *logger.Logger
	retrier Retrier
	now     func() time.Time
}

func NewCoordinator(p CoordinatorParams) (*Coordinator, error) {
	switch {
	case p.IDs == nil:
		return nil, fmt.Errorf("request id source required")
	case p.Sheets == nil:
		return nil, fmt.Errorf("sheets store required")
	case p.Drive == nil:
		return nil, fmt.Errorf("drive store required")
	case p.Staging == nil:
		return nil, fmt.Errorf("staging area required")
	case p.Clients == nil:
		return nil, fmt.Errorf("client directory required")
	case p.Audit == nil:
		return nil, fmt.Errorf("audit recorder required")
	case p.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(p.Settings.QuotationsSpreadsheetID) == "" || strings.TrimSpace(p.Settings.TimeSpreadsheetID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "quotation and time spreadsheet ids are required")
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	if p.Settings.Location == nil {
		p.Settings.Location = time.UTC
	}
	return &Coordinator{
		cfg:     p.Settings,
		ids:     p.IDs,
		sheets:  p.Sheets,
		drive:   p.Drive,
		staging: p.Staging,
		clients: p.Clients,
		audit:   p.Audit,
		metrics: p.Metrics,
		logg:    p.Logger,
		retrier: Retrier{MaxAttempts: p.Settings.MaxAttempts, Delay: p.Settings.RetryDelay, Metrics: p.Metrics, Logger: p.Logger},
		now:     now,
	}, nil
}

// Finalize persists req, resuming from cp. cp is updated in place and handed to
// save after every completed step, so a failed call can be retried with the
// same checkpoint. A checkpoint that already completed is rejected.
func (c *Coordinator) Finalize(ctx context.Context, req Request, cp *Checkpoint, save SaveFunc) (res Result, err error) {
	defer func() { c.metrics.Finished(string(enums.AggregateQuotation), err) }()

	if cp == nil {
		cp = &Checkpoint{}
	}
	if cp.Done() {
		return Result{}, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("quotation %s was already submitted", cp.RequestID))
	}
	if len(req.Entries) == 0 {
		return Result{}, pkgerrors.New(pkgerrors.CodeStateInconsistency, "no services to submit")
	}
	if req.StartTime.IsZero() {
		return Result{}, pkgerrors.New(pkgerrors.CodeStateInconsistency, "quotation start time is missing")
	}
	if strings.TrimSpace(req.Client) == "" {
		return Result{}, pkgerrors.New(pkgerrors.CodeStateInconsistency, "quotation client is missing")
	}
	if save == nil {
		save = func(context.Context, Checkpoint) error { return nil }
	}
	if cp.Step == "" {
		cp.Step = enums.StepNotSubmitted
	}
	cp.Attempts++

	ctx = c.logg.WithSessionID(ctx, req.SessionID)
	persist := func() error {
		if err := save(ctx, *cp); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving submission checkpoint")
		}
		return nil
	}

	if cp.RequestID == "" {
		id, err := DoValue(ctx, c.retrier, string(enums.StepIDAssigned), c.ids.Next)
		if err != nil {
			return Result{}, err
		}
		now := c.now()
		cp.RequestID = id
		cp.EndTime = &now
		cp.advance(enums.StepIDAssigned)
		if err := persist(); err != nil {
			return Result{}, err
		}
	}
	if cp.EndTime == nil {
		now := c.now()
		cp.EndTime = &now
	}
	ctx = c.logg.WithQuotationID(ctx, cp.RequestID)

	if cp.FolderID == "" {
		folder, err := DoValue(ctx, c.retrier, string(enums.StepFolderProvisioned), func(ctx context.Context) (drive.Folder, error) {
			return c.drive.EnsureFolder(ctx, cp.RequestID)
		})
		if err != nil {
			return Result{}, err
		}
		cp.FolderID, cp.FolderLink = folder.ID, folder.Link
		cp.advance(enums.StepFolderProvisioned)
		if err := persist(); err != nil {
			return Result{}, err
		}
	}

	if !cp.reached(enums.StepFilesUploaded) {
		if err := c.uploadFiles(ctx, req, cp.FolderID); err != nil {
			return Result{}, err
		}
		cp.advance(enums.StepFilesUploaded)
		if err := persist(); err != nil {
			return Result{}, err
		}
	}

	record, err := aggregate.Aggregate(aggregate.Meta{
		RequestID:       cp.RequestID,
		FolderLink:      cp.FolderLink,
		Commercial:      req.SalesRep,
		Client:          req.Client,
		ClientReference: req.ClientReference,
		EndTime:         *cp.EndTime,
		Location:        c.cfg.Location,
	}, req.Entries)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregating quotation")
	}
	targets := Worksheets(record, c.cfg.AllQuotesWorksheet, c.cfg.GroundWorksheet)

	if !cp.reached(enums.StepRowPersisted) {
		for _, worksheet := range targets {
			if cp.wrote(worksheet) {
				continue
			}
			err := c.retrier.Do(ctx, string(enums.StepRowPersisted), func(ctx context.Context) error {
				if _, err := c.sheets.EnsureWorksheet(ctx, c.cfg.QuotationsSpreadsheetID, worksheet, Headers(aggregate.Columns)); err != nil {
					return err
				}
				return c.sheets.AppendRow(ctx, c.cfg.QuotationsSpreadsheetID, worksheet, record.Row())
			})
			if err != nil {
				return Result{}, err
			}
			cp.Worksheets = append(cp.Worksheets, worksheet)
			if err := persist(); err != nil {
				return Result{}, err
			}
		}
		cp.advance(enums.StepRowPersisted)
		if err := persist(); err != nil {
			return Result{}, err
		}
	}

	entry := TimeEntry{RequestID: cp.RequestID, Kind: TimeLogWizard, Start: req.StartTime, End: *cp.EndTime}
	if !cp.TimeLogged {
		err := c.retrier.Do(ctx, stepTimeLog, func(ctx context.Context) error {
			return AppendTimeLog(ctx, c.sheets, c.cfg.TimeSpreadsheetID, c.cfg.DurationWorksheet, entry, c.cfg.Location)
		})
		if err != nil {
			return Result{}, err
		}
		cp.TimeLogged = true
		if err := persist(); err != nil {
			return Result{}, err
		}
	}

	if !cp.ClientRecorded {
		err := c.retrier.Do(ctx, stepClient, func(ctx context.Context) error {
			return c.clients.Ensure(ctx, req.Client)
		})
		if err != nil {
			return Result{}, err
		}
		cp.ClientRecorded = true
		if err := persist(); err != nil {
			return Result{}, err
		}
	}

	if !cp.AuditRecorded {
		row, event, err := c.auditRow(req, cp, record, entry)
		if err != nil {
			return Result{}, err
		}
		err = c.retrier.Do(ctx, stepAudit, func(ctx context.Context) error {
			return c.audit.Record(ctx, row, event)
		})
		if err != nil {
			return Result{}, err
		}
		cp.AuditRecorded = true
		if err := persist(); err != nil {
			return Result{}, err
		}
	}

	cp.advance(enums.StepComplete)
	cp.Submitted = true
	if err := persist(); err != nil {
		return Result{}, err
	}

	if err := c.staging.Clear(req.SessionID); err != nil {
		c.logg.Error(ctx, "failed to clear staged files", err)
	}
	c.logg.Info(c.logg.WithField(ctx, "worksheets", cp.Worksheets), "quotation submitted")

	return Result{
		RequestID:       cp.RequestID,
		FolderLink:      cp.FolderLink,
		Worksheets:      append([]string(nil), cp.Worksheets...),
		DurationSeconds: entry.DurationSeconds(),
		Record:          record.Map(),
	}, nil
}

// uploadFiles copies every staged attachment of the ledger into the folder.
// Names already present in the folder are skipped.
func (c *Coordinator) uploadFiles(ctx context.Context, req Request, folderID string) error {
	existing, err := DoValue(ctx, c.retrier, string(enums.StepFilesUploaded), func(ctx context.Context) ([]string, error) {
		return c.drive.ListFiles(ctx, folderID)
	})
	if err != nil {
		return err
	}
	present := lo.SliceToMap(existing, func(name string) (string, struct{}) { return name, struct{}{} })

	for _, entry := range req.Entries {
		files := entry.Details.AllFiles()
		keys := lo.Keys(files)
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		for _, key := range keys {
			for _, name := range files[key] {
				if _, ok := present[name]; ok {
					continue
				}
				if err := c.uploadOne(ctx, req.SessionID, entry, key, name, folderID); err != nil {
					return err
				}
				present[name] = struct{}{}
			}
		}
	}
	return nil
}

// uploadOne copies one staged file. A file referenced by the entry but gone from
// staging stops the submission so the attachment can be uploaded again.
func (c *Coordinator) uploadOne(ctx context.Context, session string, entry quotation.Entry, key fields.Key, name, folderID string) error {
	return c.retrier.Do(ctx, string(enums.StepFilesUploaded), func(ctx context.Context) error {
		f, err := c.staging.Open(session, entry.ID, string(key), name)
		if errors.Is(err, fs.ErrNotExist) {
			return pkgerrors.New(pkgerrors.CodeStateInconsistency,
				fmt.Sprintf("attachment %q for %s (%s) is no longer staged, upload it again", name, key, entry.ServiceType)).
				WithDetails(map[string]any{"entry_id": entry.ID, "field": string(key), "file": name})
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "opening staged file")
		}
		defer f.Close()
		_, err = c.drive.Upload(ctx, folderID, name, f)
		return err
	})
}

func (c *Coordinator) auditRow(req Request, cp *Checkpoint, record aggregate.Record, entry TimeEntry) (models.QuotationAudit, outbox.DomainEvent, error) {
	raw, err := json.Marshal(record.Map())
	if err != nil {
		return models.QuotationAudit{}, outbox.DomainEvent{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding quotation record")
	}
	services := lo.Map(record.Services, func(s enums.ServiceType, _ int) string { return string(s) })
	start := req.StartTime
	var session *string
	if req.SessionID != "" {
		session = &req.SessionID
	}
	row := models.QuotationAudit{
		RequestID:       cp.RequestID,
		Kind:            enums.AggregateQuotation,
		SessionID:       session,
		SalesRepID:      req.SalesRepID,
		SalesRep:        req.SalesRep,
		Client:          req.Client,
		ClientReference: req.ClientReference,
		Services:        services,
		Worksheets:      append([]string(nil), cp.Worksheets...),
		FolderID:        cp.FolderID,
		FolderLink:      cp.FolderLink,
		Record:          raw,
		Status:          enums.StepComplete,
		DurationSeconds: entry.DurationSeconds(),
		StartedAt:       &start,
		SubmittedAt:     entry.End.UTC(),
	}

	var actor *outbox.ActorRef
	if req.SalesRepID != nil {
		actor = &outbox.ActorRef{SalesRepID: *req.SalesRepID, Email: req.SalesRepEmail, Role: string(req.SalesRepRole)}
	}
	event := outbox.DomainEvent{
		EventType:     enums.EventQuotationSubmitted,
		AggregateType: enums.AggregateQuotation,
		AggregateID:   outbox.AggregateID(enums.AggregateQuotation, cp.RequestID),
		Actor:         actor,
		OccurredAt:    entry.End.UTC(),
		Data: payloads.QuotationSubmittedEvent{
			RequestID:       cp.RequestID,
			SalesRep:        req.SalesRep,
			SalesRepEmail:   req.SalesRepEmail,
			Client:          req.Client,
			ClientReference: req.ClientReference,
			Services:        services,
			TransportTypes:  transportTypes(req.Entries),
			Incoterms:       incoterms(req.Entries),
			ServiceCount:    len(req.Entries),
			DurationSeconds: entry.DurationSeconds(),
			FolderLink:      cp.FolderLink,
			SubmittedAt:     entry.End.UTC(),
		},
	}
	return row, event, nil
}

func transportTypes(entries []quotation.Entry) []string {
	out := lo.FilterMap(entries, func(e quotation.Entry, _ int) (string, bool) {
		t := e.Details.TransportType()
		return string(t), t != ""
	})
	return lo.Uniq(out)
}

func incoterms(entries []quotation.Entry) []string {
	out := lo.FilterMap(entries, func(e quotation.Entry, _ int) (string, bool) {
		if e.Details.Freight == nil || e.Details.Freight.Incoterm == "" {
			return "", false
		}
		return string(e.Details.Freight.Incoterm), true
	})
	return lo.Uniq(out)
}
