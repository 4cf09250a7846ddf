package service

import (
	"errors"
	"testing"

	"github.com/daypilot/internal/db"
)

func routineFixture() RoutineInput {
	return RoutineInput{
		Name:            "背单词",
		Description:     "雅思核心词 50 个",
		ActivityType:    db.ActivityStudy,
		DurationMinutes: 30,
		MinEnergy:       db.EnergyMedium,
		TypeTag:         "语言",
	}
}

func TestRoutineCreateAndGet(t *testing.T) {
	cleanup := setupPlanTestDB(t)
	defer cleanup()

	svc := NewRoutineService(db.DB)

	created, err := svc.Create(routineFixture())
	if err != nil {
		t.Fatalf("failed to create routine: %v", err)
	}
	if created.Status != "active" {
		t.Fatalf("status should default to active, got %s", created.Status)
	}

	loaded, err := svc.Get(created.ID)
	if err != nil {
		t.Fatalf("failed to get routine: %v", err)
	}
	if loaded.Name != "背单词" || loaded.DurationMinutes != 30 {
		t.Fatalf("unexpected routine: %+v", loaded)
	}
}

func TestRoutineCreateValidation(t *testing.T) {
	cleanup := setupPlanTestDB(t)
	defer cleanup()

	svc := NewRoutineService(db.DB)

	cases := []struct {
		name string
		mod  func(*RoutineInput)
	}{
		{"empty name", func(in *RoutineInput) { in.Name = "  " }},
		{"zero duration", func(in *RoutineInput) { in.DurationMinutes = 0 }},
		{"bad energy", func(in *RoutineInput) { in.MinEnergy = "super" }},
	}

	for _, tc := range cases {
		input := routineFixture()
		tc.mod(&input)
		if _, err := svc.Create(input); !errors.Is(err, ErrRoutineInvalid) {
			t.Fatalf("%s: expected ErrRoutineInvalid, got %v", tc.name, err)
		}
	}
}

func TestRoutineListFilters(t *testing.T) {
	cleanup := setupPlanTestDB(t)
	defer cleanup()

	svc := NewRoutineService(db.DB)

	first := routineFixture()
	if _, err := svc.Create(first); err != nil {
		t.Fatalf("failed to create routine: %v", err)
	}

	second := routineFixture()
	second.Name = "晨跑"
	second.TypeTag = "运动"
	second.Status = "inactive"
	if _, err := svc.Create(second); err != nil {
		t.Fatalf("failed to create routine: %v", err)
	}

	active, err := svc.List(RoutineFilter{Status: "active"})
	if err != nil {
		t.Fatalf("failed to list routines: %v", err)
	}
	if len(active) != 1 || active[0].Name != "背单词" {
		t.Fatalf("unexpected active routines: %+v", active)
	}

	tagged, err := svc.List(RoutineFilter{TypeTag: "运动"})
	if err != nil {
		t.Fatalf("failed to list routines: %v", err)
	}
	if len(tagged) != 1 || tagged[0].Name != "晨跑" {
		t.Fatalf("unexpected tagged routines: %+v", tagged)
	}

	searched, err := svc.List(RoutineFilter{Search: "雅思"})
	if err != nil {
		t.Fatalf("failed to list routines: %v", err)
	}
	if len(searched) != 1 {
		t.Fatalf("expected description search to match once, got %d", len(searched))
	}
}

func TestRoutineUpdateAndDelete(t *testing.T) {
	cleanup := setupPlanTestDB(t)
	defer cleanup()

	svc := NewRoutineService(db.DB)

	created, err := svc.Create(routineFixture())
	if err != nil {
		t.Fatalf("failed to create routine: %v", err)
	}

	input := routineFixture()
	input.Name = "精听练习"
	input.DurationMinutes = 45
	input.Status = "inactive"

	updated, err := svc.Update(created.ID, input)
	if err != nil {
		t.Fatalf("failed to update routine: %v", err)
	}
	if updated.Name != "精听练习" || updated.DurationMinutes != 45 || updated.Status != "inactive" {
		t.Fatalf("unexpected updated routine: %+v", updated)
	}

	if _, err := svc.Update(9999, input); !errors.Is(err, ErrRoutineNotFound) {
		t.Fatalf("expected ErrRoutineNotFound, got %v", err)
	}

	if err := svc.Delete(created.ID); err != nil {
		t.Fatalf("failed to delete routine: %v", err)
	}
	if _, err := svc.Get(created.ID); !errors.Is(err, ErrRoutineNotFound) {
		t.Fatalf("expected ErrRoutineNotFound after delete, got %v", err)
	}
}
