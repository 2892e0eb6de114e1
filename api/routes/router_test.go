package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/freightquote-backend/internal/draft"
	"github.com/angelmondragon/freightquote-backend/internal/salesreps"
	"github.com/angelmondragon/freightquote-backend/internal/submission"
	"github.com/angelmondragon/freightquote-backend/internal/wizard"
	pkgAuth "github.com/angelmondragon/freightquote-backend/pkg/auth"
	"github.com/angelmondragon/freightquote-backend/pkg/auth/session"
	"github.com/angelmondragon/freightquote-backend/pkg/config"
	"github.com/angelmondragon/freightquote-backend/pkg/db/models"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
	"github.com/angelmondragon/freightquote-backend/pkg/redis"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type memoryKV struct {
	data     map[string]string
	counters map[string]int64
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: map[string]string{}, counters: map[string]int64{}}
}

func (m *memoryKV) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", goredis.Nil
}

func (m *memoryKV) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryKV) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryKV) IdempotencyKey(scope, id string) string {
	return "fq:idem:" + scope + ":" + id
}

func (m *memoryKV) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.counters[key]++
	return m.counters[key], nil
}

type stubSalesReps struct {
	salesreps.Service
}

func (stubSalesReps) Login(context.Context, salesreps.LoginRequest) (*salesreps.LoginResponse, error) {
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
}

func (stubSalesReps) List(context.Context, bool) ([]salesreps.SalesRepDTO, error) {
	return []salesreps.SalesRepDTO{}, nil
}

type stubWizard struct {
	wizard.Service
	finalized int
	appended  int
}

func (s *stubWizard) Get(_ context.Context, rep wizard.Rep, id string) (*wizard.Session, error) {
	return &wizard.Session{ID: id, SalesRepID: rep.ID, SalesRep: rep.Name}, nil
}

func (s *stubWizard) Finalize(context.Context, wizard.Rep, string) (submission.Result, error) {
	s.finalized++
	return submission.Result{RequestID: fmt.Sprintf("Q%04d", s.finalized)}, nil
}

func (s *stubWizard) AppendRow(_ context.Context, rep wizard.Rep, id string, _ draft.Collection) (*wizard.Session, int, error) {
	s.appended++
	return &wizard.Session{ID: id, SalesRepID: rep.ID}, s.appended - 1, nil
}

type stubClients struct{}

func (stubClients) List(context.Context) ([]string, error) { return []string{"Acme"}, nil }

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Timezone: "UTC"},
		JWT: config.JWTConfig{
			Secret:            "test-secret",
			Issuer:            "freightquote",
			ExpirationMinutes: 60,
		},
		AuthRateLimit: config.AuthRateLimitConfig{
			LoginWindow:     time.Minute,
			LoginIPLimit:    2,
			LoginEmailLimit: 5,
		},
	}
}

type harness struct {
	cfg    *config.Config
	router http.Handler
	wizard *stubWizard
}

func newHarness(t *testing.T, mutate func(*Deps)) *harness {
	t.Helper()
	cfg := testConfig()
	wiz := &stubWizard{}
	deps := Deps{
		Config:    cfg,
		Logger:    logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard}),
		Checks:    map[string]redis.Pinger{"db": stubPinger{}, "redis": stubPinger{}},
		Redis:     newMemoryKV(),
		Sessions:  stubSessionManager{},
		SalesReps: stubSalesReps{},
		Clients:   stubClients{},
		Wizard:    wiz,
	}
	if mutate != nil {
		mutate(&deps)
	}
	return &harness{cfg: cfg, router: NewRouter(deps), wizard: wiz}
}

func buildToken(t *testing.T, cfg *config.Config, role enums.SalesRepRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		SalesRepID: uuid.New(),
		Email:      "ana@example.com",
		Name:       "Ana Perez",
		Role:       role,
		JTI:        session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func (h *harness) do(t *testing.T, method, path, token string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	h.router.ServeHTTP(resp, req)
	return resp
}

func TestHealthEndpoints(t *testing.T) {
	h := newHarness(t, nil)
	if resp := h.do(t, http.MethodGet, "/health/live", "", nil); resp.Code != http.StatusOK {
		t.Fatalf("expected live 200 got %d", resp.Code)
	}
	if resp := h.do(t, http.MethodGet, "/health/ready", "", nil); resp.Code != http.StatusOK {
		t.Fatalf("expected ready 200 got %d", resp.Code)
	}

	down := newHarness(t, func(d *Deps) {
		d.Checks = map[string]redis.Pinger{"db": stubPinger{err: fmt.Errorf("down")}}
	})
	if resp := down.do(t, http.MethodGet, "/health/ready", "", nil); resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected ready 503 got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	h := newHarness(t, nil)
	for _, path := range []string{"/api/v1/ping", "/api/v1/clients", "/api/v1/wizard/sessions/abc", "/api/v1/quotations"} {
		if resp := h.do(t, http.MethodGet, path, "", nil); resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 without token got %d", path, resp.Code)
		}
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	h := newHarness(t, nil)
	token := buildToken(t, h.cfg, enums.RoleSales)
	if resp := h.do(t, http.MethodGet, "/api/v1/ping", token, nil); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for private ping got %d", resp.Code)
	}
	resp := h.do(t, http.MethodGet, "/api/v1/wizard/sessions/abc", token, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for session snapshot got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"sales_rep":"Ana Perez"`) {
		t.Fatalf("expected rep name from token, got %s", resp.Body.String())
	}
}

func TestSalesRepAdminRequiresManager(t *testing.T) {
	h := newHarness(t, nil)

	resp := h.do(t, http.MethodGet, "/api/v1/salesreps", buildToken(t, h.cfg, enums.RoleSales), nil)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for sales rep got %d", resp.Code)
	}

	resp = h.do(t, http.MethodGet, "/api/v1/salesreps", buildToken(t, h.cfg, enums.RoleManager), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for manager got %d", resp.Code)
	}
}

type stubDeadLetters struct{}

func (stubDeadLetters) List(context.Context, int) ([]models.OutboxDeadLetter, error) {
	return []models.OutboxDeadLetter{}, nil
}

func (stubDeadLetters) Get(context.Context, uuid.UUID) (*models.OutboxDeadLetter, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dead letter not found")
}

func TestDeadLettersRequireManager(t *testing.T) {
	h := newHarness(t, func(d *Deps) { d.Outbox = stubDeadLetters{} })

	resp := h.do(t, http.MethodGet, "/api/v1/outbox/dead-letters", buildToken(t, h.cfg, enums.RoleSales), nil)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for sales rep got %d", resp.Code)
	}

	resp = h.do(t, http.MethodGet, "/api/v1/outbox/dead-letters", buildToken(t, h.cfg, enums.RoleManager), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for manager got %d", resp.Code)
	}
}

func TestFinalizeRequiresIdempotencyKeyAndReplays(t *testing.T) {
	h := newHarness(t, nil)
	token := buildToken(t, h.cfg, enums.RoleSales)
	path := "/api/v1/wizard/sessions/abc/finalize"

	if resp := h.do(t, http.MethodPost, path, token, nil); resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 without Idempotency-Key got %d", resp.Code)
	}

	header := map[string]string{"Idempotency-Key": "submit-1"}
	first := h.do(t, http.MethodPost, path, token, header)
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", first.Code, first.Body.String())
	}
	second := h.do(t, http.MethodPost, path, token, header)
	if second.Code != http.StatusCreated || second.Body.String() != first.Body.String() {
		t.Fatalf("expected replay, got %d %s", second.Code, second.Body.String())
	}
	if h.wizard.finalized != 1 {
		t.Fatalf("expected a single submission, got %d", h.wizard.finalized)
	}
}

func TestMutatingWizardRoutesRequireIdempotencyKey(t *testing.T) {
	h := newHarness(t, nil)
	token := buildToken(t, h.cfg, enums.RoleSales)
	base := "/api/v1/wizard/sessions"

	routes := []struct{ method, path string }{
		{http.MethodPost, base},
		{http.MethodPost, base + "/abc/draft/routes"},
		{http.MethodDelete, base + "/abc/draft/routes/0"},
		{http.MethodPost, base + "/abc/draft/routes/0/duplicate"},
		{http.MethodPost, base + "/abc/services"},
		{http.MethodPost, base + "/abc/services/0/edit"},
		{http.MethodDelete, base + "/abc/services/0"},
		{http.MethodPost, base + "/abc/add-another"},
		{http.MethodPost, base + "/abc/back"},
	}
	for _, rt := range routes {
		if resp := h.do(t, rt.method, rt.path, token, nil); resp.Code != http.StatusUnprocessableEntity {
			t.Fatalf("%s %s: expected 422 without Idempotency-Key got %d", rt.method, rt.path, resp.Code)
		}
	}

	header := map[string]string{"Idempotency-Key": "append-1"}
	first := h.do(t, http.MethodPost, base+"/abc/draft/routes", token, header)
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", first.Code, first.Body.String())
	}
	second := h.do(t, http.MethodPost, base+"/abc/draft/routes", token, header)
	if second.Code != http.StatusCreated || second.Body.String() != first.Body.String() {
		t.Fatalf("expected replay, got %d %s", second.Code, second.Body.String())
	}
	if h.wizard.appended != 1 {
		t.Fatalf("retried append added %d rows", h.wizard.appended)
	}
}

func TestLoginIsRateLimited(t *testing.T) {
	h := newHarness(t, nil)
	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"ana@example.com","password":"wrong"}`))
		req.RemoteAddr = "10.0.0.1:1234"
		resp := httptest.NewRecorder()
		h.router.ServeHTTP(resp, req)
		last = resp.Code
		if i < 2 && resp.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401 got %d", i, resp.Code)
		}
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit got %d", last)
	}
}

func TestAnalyticsUnavailableWithoutWarehouse(t *testing.T) {
	h := newHarness(t, nil)
	resp := h.do(t, http.MethodGet, "/api/v1/analytics/quotations", buildToken(t, h.cfg, enums.RoleManager), nil)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when analytics is not wired got %d", resp.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t, nil)
	resp := h.do(t, http.MethodOptions, "/api/v1/wizard/sessions", "", map[string]string{
		"Origin":                         "http://localhost:8501",
		"Access-Control-Request-Method":  http.MethodPost,
		"Access-Control-Request-Headers": "Authorization, Idempotency-Key",
	})
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:8501" {
		t.Fatalf("expected allowed origin, got %q", got)
	}
}
