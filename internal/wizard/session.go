// Package wizard drives the quotation wizard: one session per sales rep holding the
// selected client, the draft being authored and the ledger of accepted services.
package wizard

import (
	"strings"
	"time"

	"github.com/angelmondragon/freightquote-backend/internal/draft"
	"github.com/angelmondragon/freightquote-backend/internal/ledger"
	"github.com/angelmondragon/freightquote-backend/internal/quotation"
	"github.com/angelmondragon/freightquote-backend/internal/submission"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
	"github.com/google/uuid"
)

// Rep is the authenticated sales rep driving a session.
type Rep struct {
	ID    uuid.UUID
	Name  string
	Email string
	Role  enums.SalesRepRole
}

// Session is the persisted wizard state.
type Session struct {
	ID            string             `json:"id"`
	SalesRepID    uuid.UUID          `json:"sales_rep_id"`
	SalesRep      string             `json:"sales_rep"`
	SalesRepEmail string             `json:"sales_rep_email"`
	SalesRepRole  enums.SalesRepRole `json:"sales_rep_role"`

	Client          string           `json:"client"`
	ClientReference string           `json:"client_reference"`
	Page            enums.WizardPage `json:"page"`
	// Service is the last concrete service type picked, used when back re-enters capture.
	Service   enums.ServiceType `json:"service,omitempty"`
	Draft     *draft.Draft      `json:"draft,omitempty"`
	EditIndex *int              `json:"edit_index,omitempty"`
	Ledger    ledger.Ledger     `json:"ledger"`

	StartTime  time.Time             `json:"start_time"`
	Checkpoint submission.Checkpoint `json:"checkpoint"`
	LastResult *submission.Result    `json:"last_result,omitempty"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// NewSession opens a session on the client selection page.
func NewSession(rep Rep, now time.Time) *Session {
	return &Session{
		ID:            uuid.NewString(),
		SalesRepID:    rep.ID,
		SalesRep:      rep.Name,
		SalesRepEmail: rep.Email,
		SalesRepRole:  rep.Role,
		Page:          enums.PageClientSelection,
		StartTime:     now,
		UpdatedAt:     now,
	}
}

// Editing reports whether the draft replaces an existing ledger entry.
func (s *Session) Editing() bool { return s.EditIndex != nil }

func (s *Session) expect(pages ...enums.WizardPage) error {
	for _, p := range pages {
		if s.Page == p {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, "action not available on page "+string(s.Page)).
		WithDetails(map[string]any{"page": s.Page})
}

// SelectClient records the client and moves to service type selection.
func (s *Session) SelectClient(client, reference string) error {
	if err := s.expect(enums.PageClientSelection); err != nil {
		return err
	}
	client = strings.TrimSpace(client)
	if client == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "Please enter a client name.")
	}
	s.Client = client
	s.ClientReference = strings.TrimSpace(reference)
	s.Page = enums.PageServiceTypeSelection
	return nil
}

// SelectService starts a fresh draft for service, prefilled from earlier entries.
func (s *Session) SelectService(raw string) error {
	if err := s.expect(enums.PageServiceTypeSelection); err != nil {
		return err
	}
	service, err := enums.ParseServiceType(strings.TrimSpace(raw))
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "Select a valid service before continuing.")
	}
	s.Service = service
	s.startDraft()
	s.Page = enums.PageServiceDetailCapture
	return nil
}

func (s *Session) startDraft() {
	d := draft.StartNew(s.Service)
	d.Prefill(s.Ledger.List())
	s.Draft = d
	s.EditIndex = nil
}

// CurrentDraft returns the draft being captured.
func (s *Session) CurrentDraft() (*draft.Draft, error) {
	if err := s.expect(enums.PageServiceDetailCapture); err != nil {
		return nil, err
	}
	if s.Draft == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateInconsistency, "no draft in progress")
	}
	return s.Draft, nil
}

// SaveService writes the draft into the ledger, in place when editing, and moves to
// review. A rejected draft stays on the capture page.
func (s *Session) SaveService() (int, error) {
	d, err := s.CurrentDraft()
	if err != nil {
		return -1, err
	}
	entry := d.Entry()
	index := -1
	if s.EditIndex != nil {
		index = *s.EditIndex
		err = s.Ledger.Update(index, entry)
	} else {
		index, err = s.Ledger.Add(entry)
	}
	if err != nil {
		return -1, err
	}
	s.Draft = nil
	s.EditIndex = nil
	s.Page = enums.PageServiceReview
	return index, nil
}

// EditService reopens the entry at index, jumping straight to capture.
func (s *Session) EditService(index int) error {
	if err := s.expect(enums.PageServiceReview); err != nil {
		return err
	}
	entry, err := s.Ledger.Get(index)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "service entry not found")
	}
	s.Draft = draft.LoadForEdit(entry)
	s.EditIndex = &index
	s.Service = entry.ServiceType
	s.Page = enums.PageServiceDetailCapture
	return nil
}

// RemoveService drops the entry at index. An emptied ledger returns to client selection.
func (s *Session) RemoveService(index int) (quotation.Entry, error) {
	if err := s.expect(enums.PageServiceReview); err != nil {
		return quotation.Entry{}, err
	}
	removed, err := s.Ledger.Remove(index)
	if err != nil {
		return quotation.Entry{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "service entry not found")
	}
	if s.Ledger.Len() == 0 {
		s.Page = enums.PageClientSelection
	}
	return removed, nil
}

// AddAnother leaves review for another service type.
func (s *Session) AddAnother() error {
	if err := s.expect(enums.PageServiceReview); err != nil {
		return err
	}
	s.Draft = nil
	s.EditIndex = nil
	s.Page = enums.PageServiceTypeSelection
	return nil
}

// Back moves one page down the fixed chain. It is a no-op on the first page.
// Leaving capture drops the draft; re-entering capture from review starts a fresh
// draft of the last picked service.
func (s *Session) Back() {
	i := s.Page.Index()
	if i <= 0 {
		return
	}
	target := enums.WizardPages()[i-1]
	switch target {
	case enums.PageServiceTypeSelection:
		s.Draft = nil
		s.EditIndex = nil
	case enums.PageServiceDetailCapture:
		if !s.Service.IsValid() {
			target = enums.PageServiceTypeSelection
			break
		}
		s.startDraft()
	}
	s.Page = target
}

// Submittable checks the session can be finalized.
func (s *Session) Submittable() error {
	if err := s.expect(enums.PageServiceReview); err != nil {
		return err
	}
	if s.Ledger.Len() == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "add at least one service before submitting")
	}
	return nil
}

// Reset clears the quotation after a successful submission, keeping the rep.
func (s *Session) Reset(result submission.Result, now time.Time) {
	s.Client = ""
	s.ClientReference = ""
	s.Service = ""
	s.Draft = nil
	s.EditIndex = nil
	s.Ledger = ledger.Ledger{}
	s.Checkpoint = submission.Checkpoint{}
	s.LastResult = &result
	s.StartTime = now
	s.Page = enums.PageClientSelection
}

// Scopes returns the staging scopes still referenced by the session.
func (s *Session) Scopes() map[string]bool {
	out := make(map[string]bool, s.Ledger.Len()+1)
	for _, e := range s.Ledger.List() {
		out[e.ID] = true
	}
	if s.Draft != nil {
		out[s.Draft.ID] = true
	}
	return out
}
