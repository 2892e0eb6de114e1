package contracts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/angelmondragon/freightquote-backend/pkg/db/models"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
	"github.com/angelmondragon/freightquote-backend/pkg/outbox"
	"github.com/angelmondragon/freightquote-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/freightquote-backend/pkg/sheets/sheetstest"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type staticCatalog struct {
	cat *Catalog
	err error
}

func (s staticCatalog) Load(context.Context) (*Catalog, error) { return s.cat, s.err }

type sequenceIDs struct{ next int }

func (s *sequenceIDs) Next(context.Context) (string, error) {
	s.next++
	return fmt.Sprintf("Q%04d", 9+s.next), nil
}

type memoryAudit struct {
	rows   map[string]models.QuotationAudit
	events []outbox.DomainEvent
}

func (m *memoryAudit) Record(_ context.Context, row models.QuotationAudit, event outbox.DomainEvent) error {
	m.rows[row.RequestID] = row
	m.events = append(m.events, event)
	return nil
}

func (m *memoryAudit) FindByRequestID(_ context.Context, id string) (*models.QuotationAudit, error) {
	row, ok := m.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &row, nil
}

type stubReps struct {
	rep *models.SalesRep
	err error
}

func (s stubReps) FindByID(context.Context, uuid.UUID) (*models.SalesRep, error) { return s.rep, s.err }

var deskRep = Requester{ID: uuid.MustParse("0b8f8d7c-1d55-4c1a-9a8e-3f3e9f0c2b10"), Name: "Ana Perez", Email: "ana@example.com", Role: enums.RoleSales}

type deskHarness struct {
	desk  *Desk
	store *sheetstest.Memory
	audit *memoryAudit
}

func newDeskHarness(t *testing.T, reps stubReps) *deskHarness {
	t.Helper()
	store := sheetstest.NewMemory()
	audit := &memoryAudit{rows: map[string]models.QuotationAudit{}}
	desk, err := NewDesk(DeskParams{
		Settings: Settings{
			QuotesSpreadsheetID: "contracts-quotes",
			Worksheet:           "CONTRATOS",
			TimeSpreadsheetID:   "time",
			DurationWorksheet:   "Duration Time Quotation",
			MaxAttempts:         2,
			Location:            time.UTC,
		},
		Catalog: staticCatalog{cat: fixtureCatalog()},
		IDs:     &sequenceIDs{},
		Sheets:  store,
		Audit:   audit,
		Reps:    reps,
		Logger:  logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Now:     func() time.Time { return testNow },
	})
	require.NoError(t, err)
	return &deskHarness{desk: desk, store: store, audit: audit}
}

func TestNewDeskRequiresSpreadsheets(t *testing.T) {
	_, err := NewDesk(DeskParams{
		Catalog: staticCatalog{}, IDs: &sequenceIDs{}, Sheets: sheetstest.NewMemory(),
		Audit: &memoryAudit{}, Reps: stubReps{}, Logger: logger.New(logger.Options{Output: io.Discard}),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConfiguration, pkgerrors.As(err).Code())
}

func TestDeskOptionsAndSearch(t *testing.T) {
	h := newDeskHarness(t, stubReps{})
	ctx := context.Background()

	opts, err := h.desk.Options(ctx, "Cartagena", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Cartagena"}, opts.Ports)
	assert.Equal(t, []string{"Antwerp", "Rotterdam"}, opts.Destinations)
	assert.Empty(t, opts.Commodities)

	_, err = h.desk.Search(ctx, Filter{POL: "Cartagena"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	found, err := h.desk.Search(ctx, Filter{POL: "Cartagena", POD: "Antwerp"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "C-500", found[0].ContractID)
}

func TestSubmitPersistsRowTimeLogAndAudit(t *testing.T) {
	h := newDeskHarness(t, stubReps{rep: &models.SalesRep{Name: "Ana Perez", Email: "ana@example.com", Position: "Sales Executive", Phone: "+57 300 000 0000"}})
	ctx := context.Background()

	sub, err := h.desk.Submit(ctx, deskRep, validRequest(), testNow.Add(-90*time.Second))
	require.NoError(t, err)
	assert.Equal(t, "Q0010", sub.RequestID)
	assert.Equal(t, 90, sub.DurationSeconds)
	assert.Equal(t, "$609.50", sub.Row["Total Profit"])

	rows := h.store.Rows("contracts-quotes", "CONTRATOS")
	require.Len(t, rows, 2)
	assert.Equal(t, Headers, rows[0])
	assert.Equal(t, "Q0010", rows[1][0])

	timeRows := h.store.Rows("time", "Duration Time Quotation")
	require.Len(t, timeRows, 2)
	assert.Equal(t, []string{"Q0010", "Contracts", "2026-03-01 11:58:30", "2026-03-01 12:00:00", "90"}, timeRows[1])

	audit, ok := h.audit.rows["Q0010"]
	require.True(t, ok)
	assert.Equal(t, enums.AggregateContractQuotation, audit.Kind)
	assert.Equal(t, deskRep.ID, *audit.SalesRepID)
	require.Len(t, h.audit.events, 1)
	event := h.audit.events[0]
	assert.Equal(t, enums.EventContractQuotationSubmitted, event.EventType)
	data, ok := event.Data.(payloads.ContractQuotationSubmittedEvent)
	require.True(t, ok)
	assert.Equal(t, "609.50", data.TotalProfit)
	assert.Equal(t, "C-100", data.ContractID)

	doc, err := h.desk.Document(ctx, "Q0010")
	require.NoError(t, err)
	f := openDocument(t, doc)
	assert.Equal(t, "Sales Executive", cell(t, f, "F5"))
	assert.Equal(t, "+57 300 000 0000", cell(t, f, "F6"))
}

func TestSubmitFallsBackToRequesterWhenDirectoryFails(t *testing.T) {
	h := newDeskHarness(t, stubReps{err: errors.New("db down")})
	_, err := h.desk.Submit(context.Background(), deskRep, validRequest(), time.Time{})
	require.NoError(t, err)

	doc, err := h.desk.Document(context.Background(), "Q0010")
	require.NoError(t, err)
	f := openDocument(t, doc)
	assert.Equal(t, "Ana Perez", cell(t, f, "F4"))
	assert.Equal(t, "N/A", cell(t, f, "F5"))
}

func TestSubmitRejectsInvalidRequests(t *testing.T) {
	h := newDeskHarness(t, stubReps{})
	ctx := context.Background()

	req := validRequest()
	req.Client = " "
	_, err := h.desk.Submit(ctx, deskRep, req, time.Time{})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, MsgClientRequired, typed.Message())

	req = validRequest()
	req.ContractID = "C-400"
	_, err = h.desk.Submit(ctx, deskRep, req, time.Time{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code(), "expired contracts cannot be quoted")

	req = validRequest()
	req.Surcharges = []string{"Switch"}
	req.Sales = map[string]map[string]decimal.Decimal{"Switch": {"20DC": dec("10"), "40HC": dec("10")}}
	_, err = h.desk.Submit(ctx, deskRep, req, time.Time{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	assert.Zero(t, h.store.Appends)
}

func TestDocumentNotFound(t *testing.T) {
	h := newDeskHarness(t, stubReps{})
	_, err := h.desk.Document(context.Background(), "Q9999")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	h.audit.rows["Q0001"] = models.QuotationAudit{RequestID: "Q0001", Kind: enums.AggregateQuotation}
	_, err = h.desk.Document(context.Background(), "Q0001")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
