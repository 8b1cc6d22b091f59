package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/chatport/wagateway-extras/internal/instance"
)

func newTestEngine(prober *Prober) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	RegisterRoutes(engine, "", prober)
	return engine
}

func getJSON(t *testing.T, engine *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	var body map[string]any
	if errDecode := json.Unmarshal(rec.Body.Bytes(), &body); errDecode != nil {
		t.Fatalf("decode body: %v", errDecode)
	}
	return rec, body
}

func TestDetailedHealthy(t *testing.T) {
	prober := NewProber(openTestDB(t), nil, instance.NewRegistry())
	prober.cacheFn = func(context.Context) Check { return Check{Status: StatusOK} }
	engine := newTestEngine(prober)

	rec, body := getJSON(t, engine, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["status"] != StatusHealthy {
		t.Fatalf("expected healthy, got %v", body["status"])
	}
	checks, okChecks := body["checks"].(map[string]any)
	if !okChecks || len(checks) != 3 {
		t.Fatalf("expected 3 checks, got %v", body["checks"])
	}
	if body["version"] == "" || body["uptime"] == "" {
		t.Fatalf("expected version and uptime, got %v", body)
	}
}

func TestDetailedUnhealthyOnMandatoryFailure(t *testing.T) {
	prober := NewProber(openTestDB(t), nil, instance.NewRegistry())
	prober.cacheFn = func(context.Context) Check {
		return Check{Status: StatusError, Error: "connection refused"}
	}
	engine := newTestEngine(prober)

	rec, body := getJSON(t, engine, "/health")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if body["status"] != StatusUnhealthy {
		t.Fatalf("expected unhealthy, got %v", body["status"])
	}
}

func TestDetailedOptionalFailureDoesNotFlipAggregate(t *testing.T) {
	prober := NewProber(openTestDB(t), nil, nil)
	prober.cacheFn = func(context.Context) Check { return Check{Status: StatusOK} }
	prober.instancesFn = func() Check {
		return Check{Status: StatusError, Error: "registry poisoned"}
	}
	engine := newTestEngine(prober)

	rec, body := getJSON(t, engine, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 despite optional failure, got %d", rec.Code)
	}
	if body["status"] != StatusHealthy {
		t.Fatalf("expected healthy, got %v", body["status"])
	}
}

func TestLiveAlwaysSucceeds(t *testing.T) {
	prober := NewProber(nil, nil, nil)
	prober.databaseFn = func(context.Context) Check {
		t.Fatalf("liveness must not probe dependencies")
		return Check{}
	}
	engine := newTestEngine(prober)

	rec, body := getJSON(t, engine, "/health/live")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["alive"] != true {
		t.Fatalf("expected alive=true, got %v", body["alive"])
	}
}

func TestReadyOK(t *testing.T) {
	prober := NewProber(openTestDB(t), nil, nil)
	prober.cacheFn = func(context.Context) Check { return Check{Status: StatusOK} }
	engine := newTestEngine(prober)

	rec, body := getJSON(t, engine, "/health/ready")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["ready"] != true {
		t.Fatalf("expected ready=true, got %v", body["ready"])
	}
	if _, hasChecks := body["checks"]; hasChecks {
		t.Fatalf("expected no checks on success, got %v", body)
	}
}

func TestReadyFailsWhenMandatoryDown(t *testing.T) {
	prober := NewProber(openTestDB(t), nil, nil)
	prober.cacheFn = func(context.Context) Check {
		return Check{Status: StatusError, Error: "connection refused"}
	}
	engine := newTestEngine(prober)

	rec, body := getJSON(t, engine, "/health/ready")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if body["ready"] != false {
		t.Fatalf("expected ready=false, got %v", body["ready"])
	}
	checks, okChecks := body["checks"].(map[string]any)
	if !okChecks || len(checks) != 2 {
		t.Fatalf("expected per-dependency detail, got %v", body["checks"])
	}
}
