package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/daypilot/internal/db"
	"github.com/gin-gonic/gin"
)

func TestSetupRouterPing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db.DB = nil

	r := SetupRouter("test-secret")

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["message"] != "pong" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestSetupRouterRequiresLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db.DB = nil

	r := SetupRouter("test-secret")

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/daily-plan"},
		{http.MethodPost, "/api/daily-plan/generate"},
		{http.MethodPost, "/api/shopping/optimize"},
		{http.MethodGet, "/api/exit-gate/template"},
	}

	for _, p := range paths {
		req := httptest.NewRequest(p.method, p.path, nil)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected status %d, got %d", p.method, p.path, http.StatusUnauthorized, rr.Code)
		}
	}
}
