package wizard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/freightquote-backend/internal/draft"
	"github.com/angelmondragon/freightquote-backend/internal/fields"
	"github.com/angelmondragon/freightquote-backend/internal/quotation"
	"github.com/angelmondragon/freightquote-backend/internal/submission"
	"github.com/angelmondragon/freightquote-backend/internal/validation"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
	"github.com/angelmondragon/freightquote-backend/pkg/staging"
	"github.com/google/uuid"
)

const defaultFinalizeLockTTL = 5 * time.Minute

type sessionStore interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, id string) error
}

type stagingArea interface {
	Sync(session, scope, field string, uploads []staging.Upload) ([]string, error)
	ClearScope(session, scope string) error
	Clear(session string) error
}

type clientResolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

type finalizer interface {
	Finalize(ctx context.Context, req submission.Request, cp *submission.Checkpoint, save submission.SaveFunc) (submission.Result, error)
}

type locker interface {
	TryLock(ctx context.Context, name, token string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, name, token string) error
}

// ServiceParams groups the wizard dependencies.
type ServiceParams struct {
	Store       sessionStore
	Staging     stagingArea
	Clients     clientResolver
	Coordinator finalizer
	Locker      locker
	Logger      *logger.Logger
	LockTTL     time.Duration
	Now         func() time.Time
}

// Service exposes the wizard operations behind the HTTP surface.
type Service interface {
	Start(ctx context.Context, rep Rep) (*Session, error)
	Get(ctx context.Context, rep Rep, id string) (*Session, error)
	Abandon(ctx context.Context, rep Rep, id string) error

	SelectClient(ctx context.Context, rep Rep, id, client, reference string) (*Session, error)
	SelectService(ctx context.Context, rep Rep, id, service string) (*Session, error)

	ReplaceDraft(ctx context.Context, rep Rep, id string, details quotation.ServiceDetails) (*Session, error)
	AppendRow(ctx context.Context, rep Rep, id string, c draft.Collection) (*Session, int, error)
	RemoveRow(ctx context.Context, rep Rep, id string, c draft.Collection, index int) (*Session, error)
	DuplicateRow(ctx context.Context, rep Rep, id string, c draft.Collection, index int) (*Session, int, error)
	StageFiles(ctx context.Context, rep Rep, id string, field fields.Key, uploads []staging.Upload) ([]string, error)
	Fields(ctx context.Context, rep Rep, id string) ([]fields.Group, error)
	Validate(ctx context.Context, rep Rep, id string) (validation.Errors, error)

	SaveService(ctx context.Context, rep Rep, id string) (*Session, error)
	EditService(ctx context.Context, rep Rep, id string, index int) (*Session, error)
	RemoveService(ctx context.Context, rep Rep, id string, index int) (*Session, error)
	AddAnother(ctx context.Context, rep Rep, id string) (*Session, error)
	Back(ctx context.Context, rep Rep, id string) (*Session, error)

	Finalize(ctx context.Context, rep Rep, id string) (submission.Result, error)
}

type service struct {
	store       sessionStore
	staging     stagingArea
	clients     clientResolver
	coordinator finalizer
	locker      locker
	logg        *logger.Logger
	lockTTL     time.Duration
	now         func() time.Time
}

// NewService builds the wizard service.
func NewService(p ServiceParams) (Service, error) {
	switch {
	case p.Store == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session store is required")
	case p.Staging == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "staging area is required")
	case p.Clients == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client directory is required")
	case p.Coordinator == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "submission coordinator is required")
	case p.Locker == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "locker is required")
	case p.Logger == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	ttl := p.LockTTL
	if ttl <= 0 {
		ttl = defaultFinalizeLockTTL
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		store:       p.Store,
		staging:     p.Staging,
		clients:     p.Clients,
		coordinator: p.Coordinator,
		locker:      p.Locker,
		logg:        p.Logger,
		lockTTL:     ttl,
		now:         now,
	}, nil
}

func (s *service) Start(ctx context.Context, rep Rep) (*Session, error) {
	if rep.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sales rep is required")
	}
	sess := NewSession(rep, s.now())
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithSessionID(ctx, sess.ID), "wizard session started")
	return sess, nil
}

func (s *service) Get(ctx context.Context, rep Rep, id string) (*Session, error) {
	return s.load(ctx, rep, id)
}

// Abandon drops the session and its staged files.
func (s *service) Abandon(ctx context.Context, rep Rep, id string) error {
	sess, err := s.load(ctx, rep, id)
	if err != nil {
		return err
	}
	if err := s.staging.Clear(sess.ID); err != nil {
		s.logg.Warn(s.logg.WithField(s.logg.WithSessionID(ctx, sess.ID), "error", err.Error()), "clearing staged files failed")
	}
	return s.store.Delete(ctx, sess.ID)
}

// SelectClient reuses the directory spelling when the client already exists.
func (s *service) SelectClient(ctx context.Context, rep Rep, id, client, reference string) (*Session, error) {
	resolved, err := s.clients.Resolve(ctx, client)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "client directory unavailable, using name as entered")
		resolved = client
	}
	return s.mutate(ctx, rep, id, func(sess *Session) error {
		return sess.SelectClient(resolved, reference)
	})
}

func (s *service) SelectService(ctx context.Context, rep Rep, id, service string) (*Session, error) {
	return s.mutate(ctx, rep, id, func(sess *Session) error {
		return sess.SelectService(service)
	})
}

func (s *service) ReplaceDraft(ctx context.Context, rep Rep, id string, details quotation.ServiceDetails) (*Session, error) {
	return s.mutate(ctx, rep, id, func(sess *Session) error {
		d, err := sess.CurrentDraft()
		if err != nil {
			return err
		}
		if err := d.Replace(details); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "service details do not match the selected service")
		}
		return nil
	})
}

func (s *service) AppendRow(ctx context.Context, rep Rep, id string, c draft.Collection) (*Session, int, error) {
	index := -1
	sess, err := s.mutate(ctx, rep, id, func(sess *Session) error {
		d, err := sess.CurrentDraft()
		if err != nil {
			return err
		}
		index, err = d.AppendRow(c)
		return rowError(err)
	})
	return sess, index, err
}

func (s *service) RemoveRow(ctx context.Context, rep Rep, id string, c draft.Collection, index int) (*Session, error) {
	return s.mutate(ctx, rep, id, func(sess *Session) error {
		d, err := sess.CurrentDraft()
		if err != nil {
			return err
		}
		return rowError(d.RemoveRow(c, index))
	})
}

func (s *service) DuplicateRow(ctx context.Context, rep Rep, id string, c draft.Collection, index int) (*Session, int, error) {
	added := -1
	sess, err := s.mutate(ctx, rep, id, func(sess *Session) error {
		d, err := sess.CurrentDraft()
		if err != nil {
			return err
		}
		added, err = d.DuplicateRow(c, index)
		return rowError(err)
	})
	return sess, added, err
}

// StageFiles replaces the staged files of one attachment field of the draft.
func (s *service) StageFiles(ctx context.Context, rep Rep, id string, field fields.Key, uploads []staging.Upload) ([]string, error) {
	var names []string
	_, err := s.mutate(ctx, rep, id, func(sess *Session) error {
		d, err := sess.CurrentDraft()
		if err != nil {
			return err
		}
		if !fields.IsFileKey(field) || !fields.Allowed(d.Details.Selection())[field] {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("field %s does not take attachments for this service", field))
		}
		names, err = s.staging.Sync(sess.ID, d.ID, string(field), uploads)
		if err != nil {
			if errors.Is(err, staging.ErrInvalidName) {
				return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid file name")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "staging uploaded files")
		}
		if err := d.Details.SetFiles(field, names); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "attaching files")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Fields resolves the field groups for the draft as currently answered.
func (s *service) Fields(ctx context.Context, rep Rep, id string) ([]fields.Group, error) {
	sess, err := s.load(ctx, rep, id)
	if err != nil {
		return nil, err
	}
	d, err := sess.CurrentDraft()
	if err != nil {
		return nil, err
	}
	return d.Compose().Fields(), nil
}

// Validate reports the draft errors without changing the session.
func (s *service) Validate(ctx context.Context, rep Rep, id string) (validation.Errors, error) {
	sess, err := s.load(ctx, rep, id)
	if err != nil {
		return nil, err
	}
	d, err := sess.CurrentDraft()
	if err != nil {
		return nil, err
	}
	errs := validation.Validate(d.Compose())
	if errs == nil {
		errs = validation.Errors{}
	}
	return errs, nil
}

func (s *service) SaveService(ctx context.Context, rep Rep, id string) (*Session, error) {
	return s.mutate(ctx, rep, id, func(sess *Session) error {
		_, err := sess.SaveService()
		var errs validation.Errors
		if errors.As(err, &errs) {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, errs, "service details are incomplete").
				WithDetails(map[string]any{"errors": errs})
		}
		return err
	})
}

func (s *service) EditService(ctx context.Context, rep Rep, id string, index int) (*Session, error) {
	return s.mutate(ctx, rep, id, func(sess *Session) error {
		return sess.EditService(index)
	})
}

func (s *service) RemoveService(ctx context.Context, rep Rep, id string, index int) (*Session, error) {
	return s.mutate(ctx, rep, id, func(sess *Session) error {
		_, err := sess.RemoveService(index)
		return err
	})
}

func (s *service) AddAnother(ctx context.Context, rep Rep, id string) (*Session, error) {
	return s.mutate(ctx, rep, id, func(sess *Session) error {
		return sess.AddAnother()
	})
}

func (s *service) Back(ctx context.Context, rep Rep, id string) (*Session, error) {
	return s.mutate(ctx, rep, id, func(sess *Session) error {
		sess.Back()
		return nil
	})
}

// Finalize submits the ledger under a per-session lock. The checkpoint is saved into
// the session after every step, so a failed call resumes where it stopped.
func (s *service) Finalize(ctx context.Context, rep Rep, id string) (submission.Result, error) {
	sess, err := s.load(ctx, rep, id)
	if err != nil {
		return submission.Result{}, err
	}
	ctx = s.logg.WithSessionID(ctx, sess.ID)

	lockName := "finalize:" + sess.ID
	token := uuid.NewString()
	ok, err := s.locker.TryLock(ctx, lockName, token, s.lockTTL)
	if err != nil {
		return submission.Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire finalize lock")
	}
	if !ok {
		return submission.Result{}, pkgerrors.New(pkgerrors.CodeConflict, "quotation submission already in progress")
	}
	defer func() {
		if err := s.locker.Unlock(context.WithoutCancel(ctx), lockName, token); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "releasing finalize lock failed")
		}
	}()

	// reload under the lock so a concurrent finalize's checkpoint is visible
	sess, err = s.load(ctx, rep, id)
	if err != nil {
		return submission.Result{}, err
	}
	if sess.Checkpoint.Done() {
		return submission.Result{}, pkgerrors.New(pkgerrors.CodeConflict, "quotation already submitted")
	}
	if err := sess.Submittable(); err != nil {
		return submission.Result{}, err
	}

	repID := sess.SalesRepID
	req := submission.Request{
		SessionID:       sess.ID,
		SalesRepID:      &repID,
		SalesRep:        sess.SalesRep,
		SalesRepEmail:   sess.SalesRepEmail,
		SalesRepRole:    sess.SalesRepRole,
		Client:          sess.Client,
		ClientReference: sess.ClientReference,
		Entries:         sess.Ledger.List(),
		StartTime:       sess.StartTime,
	}
	save := func(ctx context.Context, cp submission.Checkpoint) error {
		sess.Checkpoint = cp
		sess.UpdatedAt = s.now()
		return s.store.Save(ctx, sess)
	}

	result, err := s.coordinator.Finalize(ctx, req, &sess.Checkpoint, save)
	if err != nil {
		if saveErr := s.store.Save(context.WithoutCancel(ctx), sess); saveErr != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", saveErr.Error()), "saving failed submission state failed")
		}
		return submission.Result{}, err
	}

	sess.Reset(result, s.now())
	sess.UpdatedAt = s.now()
	if err := s.store.Save(ctx, sess); err != nil {
		// the quotation is persisted; a stale session is rejected by its checkpoint
		s.logg.Error(ctx, "resetting wizard session failed", err)
	}
	s.logg.Info(s.logg.WithQuotationID(ctx, result.RequestID), "quotation submitted")
	return result, nil
}

func (s *service) load(ctx context.Context, rep Rep, id string) (*Session, error) {
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	sess, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.SalesRepID != rep.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "wizard session belongs to another sales rep")
	}
	return sess, nil
}

// mutate applies fn and saves the session. Staging scopes the session stopped
// referencing are cleared afterwards.
func (s *service) mutate(ctx context.Context, rep Rep, id string, fn func(*Session) error) (*Session, error) {
	sess, err := s.load(ctx, rep, id)
	if err != nil {
		return nil, err
	}
	before := sess.Scopes()
	if err := fn(sess); err != nil {
		return nil, err
	}
	sess.UpdatedAt = s.now()
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	after := sess.Scopes()
	for scope := range before {
		if after[scope] {
			continue
		}
		if err := s.staging.ClearScope(sess.ID, scope); err != nil {
			s.logg.Warn(s.logg.WithFields(s.logg.WithSessionID(ctx, sess.ID), map[string]any{
				"scope": scope,
				"error": err.Error(),
			}), "clearing staged scope failed")
		}
	}
	return sess, nil
}

func rowError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, draft.ErrCollectionNotApplicable):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "rows not available for this service")
	case errors.Is(err, quotation.ErrRowIndexOutOfRange):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "row not found")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update rows")
	}
}
