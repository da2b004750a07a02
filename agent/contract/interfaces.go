package contract

import "context"

type ReviseRequest struct {
	Task  Task         `json:"task"`
	Plan  *Plan        `json:"plan,omitempty"`
	Trace []TraceEntry `json:"trace,omitempty"`
}

type DecideRequest struct {
	Task  Task         `json:"task"`
	Plan  Plan         `json:"plan"`
	Trace []TraceEntry `json:"trace,omitempty"`
}

type DecideResponse struct {
	Tool      string `json:"tool"`
	Rationale string `json:"rationale,omitempty"`
}

type DescribeRequest struct {
	Task  Task         `json:"task"`
	Tool  string       `json:"tool"`
	Plan  Plan         `json:"plan"`
	Trace []TraceEntry `json:"trace,omitempty"`
}

// Reviser produces the next plan revision from everything learned so far.
type Reviser interface {
	Revise(ctx context.Context, req ReviseRequest) (Plan, error)
}

// Decider picks the next tool to invoke. It must return a registered tool
// and must not re-select discovery steps the trace already satisfies.
type Decider interface {
	SelectTool(ctx context.Context, req DecideRequest) (DecideResponse, error)
}

// Describer synthesizes the argument payload for the selected tool from the
// trace. It fails with ErrArgumentConstruction when a required precondition
// is not yet present in the trace.
type Describer interface {
	BuildArguments(ctx context.Context, req DescribeRequest) (map[string]any, error)
}

// Registry bundles the reasoning roles behind one seam.
type Registry interface {
	Reviser() Reviser
	Decider() Decider
	Describer() Describer
}

// Analyzer turns accumulated table DDL plus a task description into raw SQL.
// An empty result is the failure signal; there is no error envelope.
type Analyzer interface {
	Analyze(ctx context.Context, tableStructures map[string]string, taskDescription string) (string, error)
}
