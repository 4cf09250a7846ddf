package service

import (
	"errors"
	"testing"
)

func TestExitGateEvaluateBlockedReasons(t *testing.T) {
	gate := NewExitGate([]GateCondition{
		{ID: "keys", Name: "Keys present", Satisfied: false},
		{ID: "water", Name: "Water bottle filled", Satisfied: true},
	})

	result := gate.Evaluate()
	if result.Status != GateStatusBlocked {
		t.Fatalf("expected status blocked, got %s", result.Status)
	}
	if len(result.BlockedReasons) != 1 || result.BlockedReasons[0] != "Keys present" {
		t.Fatalf("unexpected blocked reasons: %v", result.BlockedReasons)
	}

	if err := gate.Toggle("keys", true); err != nil {
		t.Fatalf("failed to toggle keys: %v", err)
	}

	result = gate.Evaluate()
	if result.Status != GateStatusReady {
		t.Fatalf("expected status ready, got %s", result.Status)
	}
	if len(result.BlockedReasons) != 0 {
		t.Fatalf("expected no blocked reasons, got %v", result.BlockedReasons)
	}
}

func TestExitGateBlockedReasonsKeepInsertionOrder(t *testing.T) {
	gate := NewDefaultExitGate()

	result := gate.Evaluate()
	if result.Status != GateStatusBlocked {
		t.Fatalf("expected fresh default gate to be blocked, got %s", result.Status)
	}
	if len(result.BlockedReasons) != len(DefaultGateConditions) {
		t.Fatalf("expected %d reasons, got %d", len(DefaultGateConditions), len(result.BlockedReasons))
	}
	for i, cond := range DefaultGateConditions {
		if result.BlockedReasons[i] != cond.Name {
			t.Fatalf("reason %d out of order: expected %q, got %q", i, cond.Name, result.BlockedReasons[i])
		}
	}
}

func TestExitGateToggleUnknownCondition(t *testing.T) {
	gate := NewDefaultExitGate()

	err := gate.Toggle("umbrella", true)
	if !errors.Is(err, ErrGateConditionNotFound) {
		t.Fatalf("expected ErrGateConditionNotFound, got %v", err)
	}
	if gate.Len() != len(DefaultGateConditions) {
		t.Fatal("toggle must never create new conditions")
	}
}

func TestGateFromTagsKeepsCanonicalNames(t *testing.T) {
	gate := GateFromTags([]string{"water", "meds"})

	if gate.Len() != 2 {
		t.Fatalf("expected 2 conditions, got %d", gate.Len())
	}

	result := gate.Evaluate()
	expected := map[string]string{"water": "Water bottle filled", "meds": "Medication taken"}
	for _, cond := range result.Conditions {
		if cond.Satisfied {
			t.Fatalf("condition %s should start unsatisfied", cond.ID)
		}
		if expected[cond.ID] != cond.Name {
			t.Fatalf("condition %s has wrong name %q", cond.ID, cond.Name)
		}
	}
}

func TestExitGateSatisfyAllAndReset(t *testing.T) {
	gate := NewDefaultExitGate()

	gate.SatisfyAll()
	if result := gate.Evaluate(); result.Status != GateStatusReady {
		t.Fatalf("expected ready after SatisfyAll, got %s", result.Status)
	}

	gate.Reset()
	if result := gate.Evaluate(); result.Status != GateStatusBlocked {
		t.Fatalf("expected blocked after Reset, got %s", result.Status)
	}
}
