package analytics

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/freightquote-backend/api/middleware"
	"github.com/angelmondragon/freightquote-backend/internal/analytics/types"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
	"github.com/google/uuid"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func withPrincipal(req *http.Request, name string, role enums.SalesRepRole) *http.Request {
	ctx := middleware.WithPrincipal(req.Context(), middleware.Principal{
		ID:   uuid.New(),
		Name: name,
		Role: role,
	})
	return req.WithContext(ctx)
}

func TestQuotationAnalyticsRequiresPrincipal(t *testing.T) {
	stub := &testAnalyticsService{}
	handler := QuotationAnalytics(stub, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/quotations", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without principal, got %d", resp.Code)
	}
	if stub.called() {
		t.Fatal("service should not be invoked without principal")
	}
}

func TestQuotationAnalyticsUsesPresetAndOwnName(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	restore := clock
	clock = func() time.Time { return now }
	defer func() { clock = restore }()

	stub := &testAnalyticsService{
		response: &types.QuotationQueryResponse{
			QuotationsSeries: []types.TimeSeriesPoint{{Date: "2026-03-09", Value: 4}},
			TopClients:       []types.LabelValue{{Label: "Acme", Value: 3}},
		},
	}
	handler := QuotationAnalytics(stub, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/quotations?preset=7d&sales_rep=Other", nil)
	req = withPrincipal(req, "Ana Perez", enums.RoleSales)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if stub.period() != 7*24*time.Hour {
		t.Fatalf("expected 7d range, got %v", stub.period())
	}
	if stub.last.SalesRep != "Ana Perez" {
		t.Fatalf("sales reps only see their own numbers, got %q", stub.last.SalesRep)
	}

	var envelope struct {
		Data types.QuotationQueryResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.QuotationsSeries) != 1 || envelope.Data.QuotationsSeries[0].Value != 4 {
		t.Fatalf("unexpected series: %+v", envelope.Data.QuotationsSeries)
	}
}

func TestQuotationAnalyticsManagerChoosesRep(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  string
	}{
		{"one rep", "?sales_rep=Luis%20Gomez", "Luis Gomez"},
		{"whole team", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &testAnalyticsService{}
			handler := QuotationAnalytics(stub, testLogger())
			req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/quotations"+tc.query, nil)
			req = withPrincipal(req, "Marta", enums.RoleManager)
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)
			if resp.Code != http.StatusOK {
				t.Fatalf("unexpected status %d", resp.Code)
			}
			if stub.last.SalesRep != tc.want {
				t.Fatalf("sales rep = %q, want %q", stub.last.SalesRep, tc.want)
			}
		})
	}
}

func TestParseWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name    string
		query   string
		wantErr bool
		span    time.Duration
	}{
		{"default preset", "", false, 30 * 24 * time.Hour},
		{"90d", "?preset=90D", false, 90 * 24 * time.Hour},
		{"unknown preset", "?preset=1y", true, 0},
		{"explicit", "?from=2026-03-01T00:00:00Z&to=2026-03-02T00:00:00Z", false, 24 * time.Hour},
		{"dates", "?from=2026-03-01&to=2026-03-08", false, 7 * 24 * time.Hour},
		{"half range", "?from=2026-03-01T00:00:00Z", true, 0},
		{"inverted", "?from=2026-03-02T00:00:00Z&to=2026-03-01T00:00:00Z", true, 0},
		{"bad timestamp", "?from=yesterday&to=2026-03-01T00:00:00Z", true, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/quotations"+tc.query, nil)
			w, err := parseWindow(req, now)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := w.end.Sub(w.start); got != tc.span {
				t.Fatalf("span = %v, want %v", got, tc.span)
			}
		})
	}
}
