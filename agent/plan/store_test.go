package plan

import (
	"errors"
	"testing"

	contractx "github.com/krzycho/dbagent/agent/contract"
)

func twoStepPlan() contractx.Plan {
	return contractx.Plan{Steps: []contractx.PlanStep{
		{Tool: "get_tables", Rationale: "list tables", Status: contractx.StepPending},
		{Tool: "final_answer", Rationale: "submit", Status: contractx.StepPending},
	}}
}

func TestPushAssignsRevisions(t *testing.T) {
	t.Parallel()

	s := NewStore()

	first, err := s.Push(twoStepPlan())
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if first.Revision != 1 {
		t.Fatalf("expected revision 1, got %d", first.Revision)
	}

	// Attempted fabrication of a history position is ignored.
	forged := twoStepPlan()
	forged.Revision = 99
	second, err := s.Push(forged)
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if second.Revision != 2 {
		t.Fatalf("expected revision 2, got %d", second.Revision)
	}

	if s.Revisions() != 2 {
		t.Fatalf("expected 2 revisions, got %d", s.Revisions())
	}
}

func TestPushRejectsEmptyPlan(t *testing.T) {
	t.Parallel()

	s := NewStore()
	_, err := s.Push(contractx.Plan{})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, ok := s.Current(); ok {
		t.Fatal("empty push must not create a revision")
	}
}

func TestHistoryIsImmutable(t *testing.T) {
	t.Parallel()

	s := NewStore()
	original := twoStepPlan()
	if _, err := s.Push(original); err != nil {
		t.Fatalf("Push() error = %v", err)
	}

	// Mutating the pushed value or any accessor result must not leak back.
	original.Steps[0].Tool = "mutated"

	current, ok := s.Current()
	if !ok {
		t.Fatal("expected a current plan")
	}
	current.Steps[1].Status = contractx.StepDone

	history := s.History()
	history[0].Steps[0].Rationale = "rewritten"

	fresh, _ := s.Current()
	if fresh.Steps[0].Tool != "get_tables" {
		t.Fatalf("caller mutation leaked into store: %s", fresh.Steps[0].Tool)
	}
	if fresh.Steps[1].Status != contractx.StepPending {
		t.Fatalf("accessor mutation leaked into store: %s", fresh.Steps[1].Status)
	}
	if fresh.Steps[0].Rationale != "list tables" {
		t.Fatalf("history mutation leaked into store: %s", fresh.Steps[0].Rationale)
	}
}

func TestCurrentOnEmptyStore(t *testing.T) {
	t.Parallel()

	s := NewStore()
	if _, ok := s.Current(); ok {
		t.Fatal("empty store reported a current plan")
	}
	if len(s.History()) != 0 {
		t.Fatal("empty store reported history")
	}
}
