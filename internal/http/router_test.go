package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/clinicline/go-sms-backend/internal/config"
	"github.com/clinicline/go-sms-backend/internal/domain"
	"github.com/clinicline/go-sms-backend/internal/repo"
	"github.com/clinicline/go-sms-backend/internal/services"
)

type stubDirectory struct{ ready bool }

func (d stubDirectory) Ready() bool { return d.ready }
func (d stubDirectory) IsInRegion(zip, state string) bool {
	return d.ready && zip == "63101" && strings.EqualFold(state, "MO")
}

type stubLocator struct{}

func (stubLocator) FindNearest(context.Context, string) ([]domain.Clinic, error) {
	return []domain.Clinic{{Name: "Affinia Healthcare", City: "saint louis", State: "MO", Phone: "3145550100"}}, nil
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	t.Setenv("CLINIC_API_KEY", "test-key")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func newRouter(t *testing.T, cfg config.Config, pingErr error) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, App{
		Engine: &services.Engine{
			Directory:  stubDirectory{ready: true},
			Locator:    stubLocator{},
			RegionCode: cfg.RegionCode,
			RegionName: cfg.RegionName,
		},
		PingStore: func(context.Context) error { return pingErr },
	}, cfg)
	return r
}

func TestRouter_WebhookEndToEnd(t *testing.T) {
	r := newRouter(t, testConfig(t), nil)

	form := url.Values{"Body": {"63101"}, "From": {"+13145550100"}}
	req := httptest.NewRequest(http.MethodPost, "/sms", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Affinia Healthcare") {
		t.Fatalf("expected clinic reply, got %q", w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestRouter_HealthReportsDependencies(t *testing.T) {
	r := newRouter(t, testConfig(t), errors.New("redis down"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", w.Code)
	}

	var body struct {
		Status    string `json:"status"`
		Store     bool   `json:"store"`
		Directory bool   `json:"directory"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Store || !body.Directory {
		t.Fatalf("unexpected health report: %+v", body)
	}
}

func TestRouter_DevEndpointGated(t *testing.T) {
	cfg := testConfig(t)

	r := newRouter(t, cfg, nil)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/dev/sms", strings.NewReader(`{"message":"hi","from":"u1"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("dev endpoint must be absent by default, got %d", w.Code)
	}

	cfg.DevEndpointEnabled = true
	r = newRouter(t, cfg, nil)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/dev/sms", strings.NewReader(`{"message":"hi","from":"u1"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("dev endpoint must be mounted when enabled, got %d", w.Code)
	}
}

func TestRouter_AuditRouteGated(t *testing.T) {
	cfg := testConfig(t)

	// Absent without an audit database.
	r := newRouter(t, cfg, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/audit/messages/u1", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("audit route must be absent without a database, got %d", w.Code)
	}

	db, err := gorm.Open(sqlite.Open("file:routeraudit?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	gin.SetMode(gin.TestMode)
	r = gin.New()
	RegisterRoutes(r, App{
		Engine: &services.Engine{
			Directory:  stubDirectory{ready: true},
			Locator:    stubLocator{},
			RegionCode: cfg.RegionCode,
			RegionName: cfg.RegionName,
		},
		AuditDB: db,
	}, cfg)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/audit/messages/u1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("audit route must be mounted with a database, got %d", w.Code)
	}
}

func TestRouter_MetricsAndFallbacks(t *testing.T) {
	r := newRouter(t, testConfig(t), nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics endpoint: %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "not_found") {
		t.Fatalf("unexpected fallback: %d %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/sms", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}
