package wizard

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/freightquote-backend/internal/draft"
	"github.com/angelmondragon/freightquote-backend/internal/fields"
	"github.com/angelmondragon/freightquote-backend/internal/submission"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
	"github.com/angelmondragon/freightquote-backend/pkg/staging"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryKV struct {
	values map[string]string
}

func (m *memoryKV) Get(_ context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memoryKV) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.values[key] = string(value.([]byte))
	return nil
}

func (m *memoryKV) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *memoryKV) WizardSessionKey(id string) string { return "fq:wizard:" + id }

type stubResolver struct {
	err error
}

func (r stubResolver) Resolve(_ context.Context, name string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	if strings.EqualFold(strings.TrimSpace(name), "acme") {
		return "Acme", nil
	}
	return strings.TrimSpace(name), nil
}

type fakeCoordinator struct {
	calls    int
	received []submission.Checkpoint
	fn       func(ctx context.Context, cp *submission.Checkpoint, save submission.SaveFunc) (submission.Result, error)
}

func (f *fakeCoordinator) Finalize(ctx context.Context, req submission.Request, cp *submission.Checkpoint, save submission.SaveFunc) (submission.Result, error) {
	f.calls++
	f.received = append(f.received, *cp)
	if f.fn != nil {
		return f.fn(ctx, cp, save)
	}
	cp.RequestID = "Q0001"
	cp.Step = enums.StepComplete
	cp.Submitted = true
	if err := save(ctx, *cp); err != nil {
		return submission.Result{}, err
	}
	return submission.Result{RequestID: "Q0001", Worksheets: []string{"All Quotes"}}, nil
}

type fakeLocker struct {
	held     map[string]string
	unlocked int
}

func (l *fakeLocker) TryLock(_ context.Context, name, token string, _ time.Duration) (bool, error) {
	if _, ok := l.held[name]; ok {
		return false, nil
	}
	l.held[name] = token
	return true, nil
}

func (l *fakeLocker) Unlock(_ context.Context, name, token string) error {
	if l.held[name] == token {
		delete(l.held, name)
		l.unlocked++
	}
	return nil
}

type harness struct {
	svc         Service
	store       *Store
	area        *staging.Area
	coordinator *fakeCoordinator
	locker      *fakeLocker
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store, err := NewStore(&memoryKV{values: map[string]string{}}, time.Hour)
	require.NoError(t, err)
	area, err := staging.New(t.TempDir())
	require.NoError(t, err)
	h := &harness{
		store:       store,
		area:        area,
		coordinator: &fakeCoordinator{},
		locker:      &fakeLocker{held: map[string]string{}},
	}
	h.svc, err = NewService(ServiceParams{
		Store:       store,
		Staging:     area,
		Clients:     stubResolver{},
		Coordinator: h.coordinator,
		Locker:      h.locker,
		Logger:      logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)
	return h
}

// toReview drives a new session to review with one customs entry.
func (h *harness) toReview(t *testing.T) *Session {
	t.Helper()
	ctx := context.Background()
	sess, err := h.svc.Start(ctx, testRep)
	require.NoError(t, err)
	_, err = h.svc.SelectClient(ctx, testRep, sess.ID, "acme", "")
	require.NoError(t, err)
	_, err = h.svc.SelectService(ctx, testRep, sess.ID, string(enums.ServiceCustomsBrokerage))
	require.NoError(t, err)
	_, err = h.svc.ReplaceDraft(ctx, testRep, sess.ID, customsDetails())
	require.NoError(t, err)
	sess, err = h.svc.SaveService(ctx, testRep, sess.ID)
	require.NoError(t, err)
	return sess
}

func TestReplaceDraftRejectsMissingPayload(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess, err := h.svc.Start(ctx, testRep)
	require.NoError(t, err)
	_, err = h.svc.SelectClient(ctx, testRep, sess.ID, "acme", "")
	require.NoError(t, err)
	_, err = h.svc.SelectService(ctx, testRep, sess.ID, string(enums.ServiceCustomsBrokerage))
	require.NoError(t, err)

	details := customsDetails()
	details.Customs = nil
	_, err = h.svc.ReplaceDraft(ctx, testRep, sess.ID, details)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	loaded, err := h.svc.Get(ctx, testRep, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Draft)
	assert.NotNil(t, loaded.Draft.Details.Customs)
}

func TestSelectClientUsesDirectorySpelling(t *testing.T) {
	h := newHarness(t)
	sess := h.toReview(t)
	assert.Equal(t, "Acme", sess.Client)

	loaded, err := h.svc.Get(context.Background(), testRep, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PageServiceReview, loaded.Page)
	assert.Equal(t, 1, loaded.Ledger.Len())
}

func TestSelectClientFallsBackWhenDirectoryDown(t *testing.T) {
	h := newHarness(t)
	svc, err := NewService(ServiceParams{
		Store:       h.store,
		Staging:     h.area,
		Clients:     stubResolver{err: errors.New("sheets down")},
		Coordinator: h.coordinator,
		Locker:      h.locker,
		Logger:      logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)
	sess, err := svc.Start(context.Background(), testRep)
	require.NoError(t, err)

	sess, err = svc.SelectClient(context.Background(), testRep, sess.ID, "Initech", "")
	require.NoError(t, err)
	assert.Equal(t, "Initech", sess.Client)
}

func TestSessionBelongsToRep(t *testing.T) {
	h := newHarness(t)
	sess, err := h.svc.Start(context.Background(), testRep)
	require.NoError(t, err)

	other := Rep{ID: uuid.New(), Name: "Luis"}
	_, err = h.svc.Get(context.Background(), other, sess.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	_, err = h.svc.Get(context.Background(), testRep, "missing")
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestSaveServiceReturnsOrderedValidationErrors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess, err := h.svc.Start(ctx, testRep)
	require.NoError(t, err)
	_, err = h.svc.SelectClient(ctx, testRep, sess.ID, "Acme", "")
	require.NoError(t, err)
	_, err = h.svc.SelectService(ctx, testRep, sess.ID, string(enums.ServiceCustomsBrokerage))
	require.NoError(t, err)

	errs, err := h.svc.Validate(ctx, testRep, sess.ID)
	require.NoError(t, err)
	require.NotEmpty(t, errs)

	_, err = h.svc.SaveService(ctx, testRep, sess.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, errs, details["errors"])
}

func TestScratchRows(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess, err := h.svc.Start(ctx, testRep)
	require.NoError(t, err)
	_, err = h.svc.SelectClient(ctx, testRep, sess.ID, "Acme", "")
	require.NoError(t, err)
	_, err = h.svc.SelectService(ctx, testRep, sess.ID, string(enums.ServiceGroundTransportation))
	require.NoError(t, err)

	sess, index, err := h.svc.AppendRow(ctx, testRep, sess.ID, draft.CollectionGroundRoutes)
	require.NoError(t, err)
	assert.Equal(t, 1, index)
	assert.Equal(t, 2, sess.Draft.GroundRoutes.Len())

	_, index, err = h.svc.DuplicateRow(ctx, testRep, sess.ID, draft.CollectionGroundRoutes, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, index)

	_, err = h.svc.RemoveRow(ctx, testRep, sess.ID, draft.CollectionGroundRoutes, 9)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	_, _, err = h.svc.AppendRow(ctx, testRep, sess.ID, draft.CollectionRoutes)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	loaded, err := h.svc.Get(ctx, testRep, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Draft.GroundRoutes.Len())
}

func TestEditKeepsEntryAttachments(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess := h.toReview(t)
	entryID := sess.Ledger.List()[0].ID

	_, err := h.svc.EditService(ctx, testRep, sess.ID, 0)
	require.NoError(t, err)
	_, err = h.svc.StageFiles(ctx, testRep, sess.ID, fields.KeyCommercialInvoices,
		[]staging.Upload{{Name: "invoice.pdf", Content: bytes.NewBufferString("pdf")}})
	require.NoError(t, err)
	sess, err = h.svc.SaveService(ctx, testRep, sess.ID)
	require.NoError(t, err)

	saved := sess.Ledger.List()[0]
	assert.Equal(t, entryID, saved.ID)
	assert.Equal(t, []string{"invoice.pdf"}, saved.Details.Files(fields.KeyCommercialInvoices))
	_, statErr := os.Stat(filepath.Join(h.area.Root(), sess.ID, entryID, string(fields.KeyCommercialInvoices), "invoice.pdf"))
	assert.NoError(t, statErr)

	// a second edit that touches no files keeps them on disk
	_, err = h.svc.EditService(ctx, testRep, sess.ID, 0)
	require.NoError(t, err)
	_, err = h.svc.SaveService(ctx, testRep, sess.ID)
	require.NoError(t, err)
	_, statErr = os.Stat(filepath.Join(h.area.Root(), sess.ID, entryID, string(fields.KeyCommercialInvoices), "invoice.pdf"))
	assert.NoError(t, statErr)
}

func TestStageFilesReplacesFieldSet(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess := h.toReview(t)
	_, err := h.svc.AddAnother(ctx, testRep, sess.ID)
	require.NoError(t, err)
	sess, err = h.svc.SelectService(ctx, testRep, sess.ID, string(enums.ServiceCustomsBrokerage))
	require.NoError(t, err)
	draftID := sess.Draft.ID

	upload := func(names ...string) []staging.Upload {
		out := make([]staging.Upload, 0, len(names))
		for _, n := range names {
			out = append(out, staging.Upload{Name: n, Content: bytes.NewBufferString("pdf")})
		}
		return out
	}

	names, err := h.svc.StageFiles(ctx, testRep, sess.ID, fields.KeyCommercialInvoices, upload("a.pdf", "b.pdf"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, names)

	names, err = h.svc.StageFiles(ctx, testRep, sess.ID, fields.KeyCommercialInvoices, upload("b.pdf"))
	require.NoError(t, err)
	assert.Equal(t, []string{"b.pdf"}, names)
	_, statErr := os.Stat(filepath.Join(h.area.Root(), sess.ID, draftID, string(fields.KeyCommercialInvoices), "a.pdf"))
	assert.True(t, os.IsNotExist(statErr))

	loaded, err := h.svc.Get(ctx, testRep, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.pdf"}, loaded.Draft.Details.Files(fields.KeyCommercialInvoices))

	_, err = h.svc.StageFiles(ctx, testRep, sess.ID, fields.KeyMSDSFiles, upload("msds.pdf"))
	require.NoError(t, err, "msds is in the customs allowlist")
	_, err = h.svc.StageFiles(ctx, testRep, sess.ID, fields.KeyCommodity, upload("x.pdf"))
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	// leaving capture drops the draft and its staged files
	_, err = h.svc.Back(ctx, testRep, sess.ID)
	require.NoError(t, err)
	_, statErr = os.Stat(filepath.Join(h.area.Root(), sess.ID, draftID))
	assert.True(t, os.IsNotExist(statErr))
}

func TestFinalizeResetsSession(t *testing.T) {
	h := newHarness(t)
	sess := h.toReview(t)

	result, err := h.svc.Finalize(context.Background(), testRep, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "Q0001", result.RequestID)
	assert.Equal(t, 1, h.locker.unlocked)

	loaded, err := h.svc.Get(context.Background(), testRep, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PageClientSelection, loaded.Page)
	assert.Equal(t, 0, loaded.Ledger.Len())
	assert.Empty(t, loaded.Client)
	assert.Empty(t, loaded.Checkpoint.RequestID)
	require.NotNil(t, loaded.LastResult)
	assert.Equal(t, "Q0001", loaded.LastResult.RequestID)

	_, err = h.svc.Finalize(context.Background(), testRep, sess.ID)
	require.Error(t, err)
	assert.Equal(t, 1, h.coordinator.calls)
}

func TestFinalizeResumesFromSavedCheckpoint(t *testing.T) {
	h := newHarness(t)
	sess := h.toReview(t)
	h.coordinator.fn = func(ctx context.Context, cp *submission.Checkpoint, save submission.SaveFunc) (submission.Result, error) {
		cp.RequestID = "Q0042"
		cp.Step = enums.StepIDAssigned
		cp.Attempts++
		if err := save(ctx, *cp); err != nil {
			return submission.Result{}, err
		}
		return submission.Result{}, pkgerrors.New(pkgerrors.CodeDependency, "drive unavailable")
	}

	_, err := h.svc.Finalize(context.Background(), testRep, sess.ID)
	require.Error(t, err)

	loaded, err := h.svc.Get(context.Background(), testRep, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PageServiceReview, loaded.Page)
	assert.Equal(t, "Q0042", loaded.Checkpoint.RequestID)

	h.coordinator.fn = nil
	_, err = h.svc.Finalize(context.Background(), testRep, sess.ID)
	require.NoError(t, err)
	require.Len(t, h.coordinator.received, 2)
	assert.Equal(t, "Q0042", h.coordinator.received[1].RequestID)
	assert.Equal(t, 1, h.coordinator.received[1].Attempts)
}

func TestFinalizeRejectsConcurrentSubmission(t *testing.T) {
	h := newHarness(t)
	sess := h.toReview(t)
	h.locker.held["finalize:"+sess.ID] = "someone-else"

	_, err := h.svc.Finalize(context.Background(), testRep, sess.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
	assert.Equal(t, 0, h.coordinator.calls)
}

func TestFinalizeRequiresReview(t *testing.T) {
	h := newHarness(t)
	sess, err := h.svc.Start(context.Background(), testRep)
	require.NoError(t, err)

	_, err = h.svc.Finalize(context.Background(), testRep, sess.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
	assert.Empty(t, h.locker.held)
}

func TestAbandonDropsSessionAndFiles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess := h.toReview(t)
	entryID := sess.Ledger.List()[0].ID
	_, err := h.area.Sync(sess.ID, entryID, string(fields.KeyCommercialInvoices), []staging.Upload{{Name: "inv.pdf", Content: bytes.NewBufferString("x")}})
	require.NoError(t, err)

	require.NoError(t, h.svc.Abandon(ctx, testRep, sess.ID))
	_, err = h.svc.Get(ctx, testRep, sess.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
	_, statErr := os.Stat(filepath.Join(h.area.Root(), sess.ID))
	assert.True(t, os.IsNotExist(statErr))
}
