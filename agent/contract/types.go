package contract

import (
	"strings"
	"time"
)

type Role string

const (
	RoleReviser   Role = "reviser"
	RoleDecider   Role = "decider"
	RoleDescriber Role = "describer"
)

// Task is one external request worked on by a single loop instance.
type Task struct {
	ID           string    `json:"id"`
	Goal         string    `json:"goal"`
	TerminalTool string    `json:"terminal_tool"`
	CreatedAt    time.Time `json:"created_at"`
}

type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepDone    StepStatus = "done"
	StepFailed  StepStatus = "failed"
)

// PlanStep names a tool the plan intends to run next and why.
type PlanStep struct {
	Tool      string     `json:"tool"`
	Rationale string     `json:"rationale,omitempty"`
	Status    StepStatus `json:"status"`
}

// Plan is one immutable revision of the remaining execution intent.
// Revising produces a new Plan value; existing values are never edited.
type Plan struct {
	Revision int        `json:"revision"`
	Steps    []PlanStep `json:"steps"`
}

// Clone returns a deep copy so callers can hold a Plan without aliasing
// the store's history.
func (p Plan) Clone() Plan {
	out := Plan{Revision: p.Revision}
	if len(p.Steps) > 0 {
		out.Steps = make([]PlanStep, len(p.Steps))
		copy(out.Steps, p.Steps)
	}
	return out
}

// FirstPending returns the first step still waiting to run.
func (p Plan) FirstPending() (PlanStep, bool) {
	for _, step := range p.Steps {
		if step.Status == StepPending {
			return step, true
		}
	}
	return PlanStep{}, false
}

// PendingTools lists the tool names of all pending steps in plan order.
func (p Plan) PendingTools() []string {
	out := make([]string, 0, len(p.Steps))
	for _, step := range p.Steps {
		if step.Status == StepPending {
			out = append(out, step.Tool)
		}
	}
	return out
}

// Action is the fully parameterized tool call for one cycle.
// It is immutable once handed to the dispatcher.
type Action struct {
	Tool      string         `json:"tool"`
	Rationale string         `json:"rationale,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Clone copies the action including its argument map. Argument values and
// result payloads are shared by reference and treated as immutable.
func (a Action) Clone() Action {
	out := a
	if a.Arguments != nil {
		out.Arguments = make(map[string]any, len(a.Arguments))
		for k, v := range a.Arguments {
			out.Arguments[k] = v
		}
	}
	return out
}

type ResultStatus string

const (
	ResultOK    ResultStatus = "ok"
	ResultError ResultStatus = "error"
)

// ExecutionResult is produced exactly once per dispatched Action.
type ExecutionResult struct {
	Status  ResultStatus `json:"status"`
	Payload any          `json:"payload,omitempty"`
	Detail  string       `json:"detail,omitempty"`
}

func (r ExecutionResult) OK() bool {
	return r.Status == ResultOK
}

// TraceEntry freezes one full cycle: the plan it started from, the action
// taken, and what came back. Reflection is diagnostic text only; control
// logic never branches on it.
type TraceEntry struct {
	Cycle        int             `json:"cycle"`
	PlanSnapshot Plan            `json:"plan_snapshot"`
	Action       Action          `json:"action"`
	Result       ExecutionResult `json:"result"`
	Reflection   string          `json:"reflection,omitempty"`
}

type OutcomeStatus string

const (
	OutcomeCompleted OutcomeStatus = "completed"
	OutcomeExhausted OutcomeStatus = "exhausted"
	OutcomeCancelled OutcomeStatus = "cancelled"
	OutcomeFailed    OutcomeStatus = "failed"
)

// Outcome reports how a task ended, carrying the final trace for diagnostics.
type Outcome struct {
	Status OutcomeStatus `json:"status"`
	Answer []string      `json:"answer,omitempty"`
	Cycles int           `json:"cycles"`
	Trace  []TraceEntry  `json:"trace,omitempty"`
}

// NewTask builds a task targeting the given terminal tool.
func NewTask(id, goal, terminalTool string, now time.Time) Task {
	return Task{
		ID:           strings.TrimSpace(id),
		Goal:         strings.TrimSpace(goal),
		TerminalTool: strings.TrimSpace(terminalTool),
		CreatedAt:    now.UTC(),
	}
}
