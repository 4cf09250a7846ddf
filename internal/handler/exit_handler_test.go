package handler

import (
	"net/http"
	"testing"

	"github.com/daypilot/internal/service"
	"github.com/gin-gonic/gin"
)

func generatePlanForExitTests(t *testing.T, router *gin.Engine) uint {
	t.Helper()
	recorder := performJSON(t, router, http.MethodPost, "/api/daily-plan/generate", generateBody())
	if recorder.Code != http.StatusCreated {
		t.Fatalf("failed to generate plan: %s", recorder.Body.String())
	}
	plan := decodeBody(t, recorder)["plan"].(map[string]interface{})
	return uint(plan["id"].(float64))
}

func TestComputeExitTimeEndpoint(t *testing.T) {
	api, cleanup := setupHandlerTest(t)
	defer cleanup()
	router := newTestRouter(api, 1, "tester")
	planID := generatePlanForExitTests(t, router)

	// 起终点相同步行路程为零，出门时刻只扣准备时间
	body := map[string]interface{}{
		"plan_id":          planID,
		"commitment_name":  "门诊复查",
		"commitment_start": "2030-05-01T12:00:00Z",
		"origin":           map[string]float64{"lat": 31.23, "lng": 121.47},
		"destination":      map[string]float64{"lat": 31.23, "lng": 121.47},
		"travel_method":    service.TravelWalk,
		"prep_minutes":     10,
	}

	recorder := performJSON(t, router, http.MethodPost, "/api/exit-times/compute", body)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", recorder.Code, recorder.Body.String())
	}

	exit := decodeBody(t, recorder)["exit_time"].(map[string]interface{})
	if exit["exit_at"] != "2030-05-01T11:50:00Z" {
		t.Fatalf("unexpected exit_at: %v", exit["exit_at"])
	}
	if exit["commitment_id"] == "" {
		t.Fatal("expected a minted commitment id")
	}

	// 计划里应能看到刚算出的出门时刻
	recorder = performJSON(t, router, http.MethodGet, "/api/daily-plan?date=2030-05-01", nil)
	plan := decodeBody(t, recorder)["plan"].(map[string]interface{})
	exitTimes, _ := plan["exit_times"].([]interface{})
	if len(exitTimes) != 1 {
		t.Fatalf("expected 1 exit time on plan, got %d", len(exitTimes))
	}
}

func TestComputeExitTimeEndpointValidation(t *testing.T) {
	api, cleanup := setupHandlerTest(t)
	defer cleanup()
	router := newTestRouter(api, 1, "tester")
	planID := generatePlanForExitTests(t, router)

	badStart := map[string]interface{}{
		"plan_id":          planID,
		"commitment_start": "12:00",
		"travel_method":    service.TravelWalk,
	}
	if recorder := performJSON(t, router, http.MethodPost, "/api/exit-times/compute", badStart); recorder.Code != http.StatusBadRequest {
		t.Fatalf("bad start: expected 400, got %d", recorder.Code)
	}

	badMethod := map[string]interface{}{
		"plan_id":          planID,
		"commitment_start": "2030-05-01T12:00:00Z",
		"travel_method":    "teleport",
	}
	if recorder := performJSON(t, router, http.MethodPost, "/api/exit-times/compute", badMethod); recorder.Code != http.StatusBadRequest {
		t.Fatalf("bad method: expected 400, got %d", recorder.Code)
	}

	foreign := newTestRouter(api, 2, "other")
	valid := map[string]interface{}{
		"plan_id":          planID,
		"commitment_start": "2030-05-01T12:00:00Z",
		"travel_method":    service.TravelWalk,
	}
	if recorder := performJSON(t, foreign, http.MethodPost, "/api/exit-times/compute", valid); recorder.Code != http.StatusForbidden {
		t.Fatalf("foreign plan: expected 403, got %d", recorder.Code)
	}
}

func TestCompareExitTimesEndpoint(t *testing.T) {
	api, cleanup := setupHandlerTest(t)
	defer cleanup()
	router := newTestRouter(api, 1, "tester")
	planID := generatePlanForExitTests(t, router)

	body := map[string]interface{}{
		"plan_id":          planID,
		"commitment_start": "2030-05-01T12:00:00Z",
		"origin":           map[string]float64{"lat": 31.23, "lng": 121.47},
		"destination":      map[string]float64{"lat": 31.25, "lng": 121.50},
		"travel_methods":   []string{service.TravelWalk, service.TravelDrive},
	}

	recorder := performJSON(t, router, http.MethodPost, "/api/exit-times/compare", body)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	candidates, _ := decodeBody(t, recorder)["candidates"].([]interface{})
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}

	delete(body, "travel_methods")
	if recorder := performJSON(t, router, http.MethodPost, "/api/exit-times/compare", body); recorder.Code != http.StatusBadRequest {
		t.Fatalf("empty methods: expected 400, got %d", recorder.Code)
	}
}

func TestGateTemplateEndpoints(t *testing.T) {
	api, cleanup := setupHandlerTest(t)
	defer cleanup()
	router := newTestRouter(api, 1, "tester")

	recorder := performJSON(t, router, http.MethodGet, "/api/exit-gate/template", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("get template: expected 200, got %d", recorder.Code)
	}
	conditions, _ := decodeBody(t, recorder)["conditions"].([]interface{})
	if len(conditions) != len(service.DefaultGateConditions) {
		t.Fatalf("expected %d default conditions, got %d", len(service.DefaultGateConditions), len(conditions))
	}

	update := map[string]interface{}{
		"conditions": []map[string]interface{}{
			{"id": "keys", "name": "Keys present", "enabled": false},
			{"id": "umbrella", "name": "Umbrella packed", "enabled": true},
		},
	}
	recorder = performJSON(t, router, http.MethodPut, "/api/exit-gate/template", update)
	if recorder.Code != http.StatusOK {
		t.Fatalf("put template: expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	conditions, _ = decodeBody(t, recorder)["conditions"].([]interface{})
	byID := map[string]map[string]interface{}{}
	for _, raw := range conditions {
		entry := raw.(map[string]interface{})
		byID[entry["id"].(string)] = entry
	}
	if byID["keys"]["enabled"] != false {
		t.Fatal("keys should be disabled after update")
	}
	if entry, ok := byID["umbrella"]; !ok || entry["name"] != "Umbrella packed" {
		t.Fatalf("custom condition missing: %v", entry)
	}
}

func TestEvaluateGateEndpoint(t *testing.T) {
	api, cleanup := setupHandlerTest(t)
	defer cleanup()
	router := newTestRouter(api, 1, "tester")

	body := map[string]interface{}{
		"tags":      []string{"keys", "water"},
		"satisfied": map[string]bool{"water": true},
	}

	recorder := performJSON(t, router, http.MethodPost, "/api/exit-gate/evaluate", body)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	result := decodeBody(t, recorder)
	if result["status"] != service.GateStatusBlocked {
		t.Fatalf("expected blocked, got %v", result["status"])
	}
	reasons, _ := result["blocked_reasons"].([]interface{})
	if len(reasons) != 1 || reasons[0] != "Keys present" {
		t.Fatalf("unexpected blocked reasons: %v", reasons)
	}

	// 勾掉全部条件后放行
	body["satisfied"] = map[string]bool{"water": true, "keys": true}
	recorder = performJSON(t, router, http.MethodPost, "/api/exit-gate/evaluate", body)
	if result := decodeBody(t, recorder); result["status"] != service.GateStatusReady {
		t.Fatalf("expected ready, got %v", result["status"])
	}

	// 勾选未知条件应报错
	body["satisfied"] = map[string]bool{"umbrella": true}
	if recorder := performJSON(t, router, http.MethodPost, "/api/exit-gate/evaluate", body); recorder.Code != http.StatusBadRequest {
		t.Fatalf("unknown condition: expected 400, got %d", recorder.Code)
	}
}

func TestEvaluateGateUsesStoredTemplate(t *testing.T) {
	api, cleanup := setupHandlerTest(t)
	defer cleanup()
	router := newTestRouter(api, 1, "tester")

	update := map[string]interface{}{
		"conditions": []map[string]interface{}{
			{"id": "keys", "name": "Keys present", "enabled": true},
			{"id": "phone", "name": "Phone packed", "enabled": false},
		},
	}
	if recorder := performJSON(t, router, http.MethodPut, "/api/exit-gate/template", update); recorder.Code != http.StatusOK {
		t.Fatalf("put template: expected 200, got %d", recorder.Code)
	}

	recorder := performJSON(t, router, http.MethodPost, "/api/exit-gate/evaluate", map[string]interface{}{})
	if recorder.Code != http.StatusOK {
		t.Fatalf("evaluate: expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	result := decodeBody(t, recorder)
	conditions, _ := result["conditions"].([]interface{})
	expected := len(service.DefaultGateConditions) - 1
	if len(conditions) != expected {
		t.Fatalf("expected %d conditions from template, got %d", expected, len(conditions))
	}
	for _, raw := range conditions {
		if raw.(map[string]interface{})["id"] == "phone" {
			t.Fatal("disabled condition leaked into the gate")
		}
	}
}
