package quotations

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/freightquote-backend/internal/audit"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
)

type stubAuditLog struct {
	kind  enums.OutboxAggregateType
	limit int
	calls int
}

func (s *stubAuditLog) Recent(_ context.Context, kind enums.OutboxAggregateType, limit int) ([]audit.Entry, error) {
	s.calls++
	s.kind, s.limit = kind, limit
	return []audit.Entry{{RequestID: "Q0001", Kind: kind}}, nil
}

func TestRecentDefaultsToWizardQuotations(t *testing.T) {
	svc := &stubAuditLog{}
	rec := httptest.NewRecorder()
	Recent(svc, nil)(rec, httptest.NewRequest(http.MethodGet, "/api/v1/quotations/recent", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.kind != enums.AggregateQuotation || svc.limit != 0 {
		t.Fatalf("unexpected call kind=%s limit=%d", svc.kind, svc.limit)
	}
}

func TestRecentParsesKindAndLimit(t *testing.T) {
	svc := &stubAuditLog{}
	rec := httptest.NewRecorder()
	Recent(svc, nil)(rec, httptest.NewRequest(http.MethodGet, "/api/v1/quotations/recent?kind=contract_quotation&limit=5", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.kind != enums.AggregateContractQuotation || svc.limit != 5 {
		t.Fatalf("unexpected call kind=%s limit=%d", svc.kind, svc.limit)
	}
}

func TestRecentRejectsBadQuery(t *testing.T) {
	for _, query := range []string{"kind=order", "limit=abc", "limit=-1"} {
		svc := &stubAuditLog{}
		rec := httptest.NewRecorder()
		Recent(svc, nil)(rec, httptest.NewRequest(http.MethodGet, "/api/v1/quotations/recent?"+query, nil))
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("%s: expected 422, got %d", query, rec.Code)
		}
		if svc.calls != 0 {
			t.Errorf("%s: service should not be called", query)
		}
	}
}
