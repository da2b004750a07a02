package reasoner

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"

	contractx "github.com/krzycho/dbagent/agent/contract"
	registryx "github.com/krzycho/dbagent/agent/registry"
	tracex "github.com/krzycho/dbagent/agent/trace"
)

type deciderImpl struct {
	runner   compose.Runnable[map[string]any, deciderLLMOutput]
	registry *registryx.Registry
}

type deciderLLMOutput struct {
	Thoughts string `json:"_thoughts,omitempty"`
	Tool     string `json:"tool"`
}

func newDecider(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	reg *registryx.Registry,
) (*deciderImpl, error) {
	runner, err := compileStructuredLLMGraph[deciderLLMOutput](ctx, chatModel, systemPrompt, "decider.model_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile decider graph: %v", contractx.ErrModelInvoke, err)
	}
	return &deciderImpl{runner: runner, registry: reg}, nil
}

func (d *deciderImpl) SelectTool(ctx context.Context, req contractx.DecideRequest) (contractx.DecideResponse, error) {
	payload := map[string]any{
		"goal":            req.Task.Goal,
		"terminal_tool":   req.Task.TerminalTool,
		"available_tools": toolSummaries(d.registry),
		"existing_plan":   planSummary(req.Plan),
		"actions_taken":   traceSummary(req.Trace),
	}
	input, err := marshalInput(payload)
	if err != nil {
		return contractx.DecideResponse{}, err
	}

	out, err := d.runner.Invoke(ctx, input)
	if err != nil {
		return contractx.DecideResponse{}, fmt.Errorf("%w: decider invoke: %v", contractx.ErrModelInvoke, err)
	}

	tool := strings.TrimSpace(out.Tool)
	if !d.registry.Has(tool) {
		return contractx.DecideResponse{}, fmt.Errorf("%w: decider chose %q", contractx.ErrUnknownTool, tool)
	}

	// Defend against redundant discovery: if the model picked a step whose
	// answer the trace already holds, take the next actionable plan step
	// instead of repeating the call.
	if satisfied(tool, req.Trace) {
		if next, ok := nextActionable(req.Plan, req.Trace); ok {
			return contractx.DecideResponse{
				Tool:      next,
				Rationale: fmt.Sprintf("%s already satisfied, advancing to %s", tool, next),
			}, nil
		}
	}

	return contractx.DecideResponse{
		Tool:      tool,
		Rationale: strings.TrimSpace(out.Thoughts),
	}, nil
}

func satisfied(tool string, entries []contractx.TraceEntry) bool {
	switch tool {
	case contractx.ToolGetTables:
		_, listed := tracex.TablesListed(entries)
		return listed
	case contractx.ToolGetTableStructure:
		tables, listed := tracex.TablesListed(entries)
		if !listed || len(tables) == 0 {
			return false
		}
		for _, table := range tables {
			if !tracex.HasStructure(entries, table) {
				return false
			}
		}
		return true
	case contractx.ToolAnalyzeStructure:
		_, known := tracex.LastQuery(entries)
		return known
	default:
		return false
	}
}

func nextActionable(plan contractx.Plan, entries []contractx.TraceEntry) (string, bool) {
	for _, step := range plan.Steps {
		if step.Status != contractx.StepPending {
			continue
		}
		if satisfied(step.Tool, entries) {
			continue
		}
		return step.Tool, true
	}
	return "", false
}
