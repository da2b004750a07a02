package reasoner

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"

	contractx "github.com/krzycho/dbagent/agent/contract"
	registryx "github.com/krzycho/dbagent/agent/registry"
)

type reviserImpl struct {
	runner   compose.Runnable[map[string]any, reviserLLMOutput]
	registry *registryx.Registry
}

type reviserLLMOutput struct {
	Thoughts string        `json:"_thoughts,omitempty"`
	Steps    []reviserStep `json:"steps"`
}

type reviserStep struct {
	Tool      string `json:"tool"`
	Rationale string `json:"rationale,omitempty"`
}

func newReviser(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	reg *registryx.Registry,
) (*reviserImpl, error) {
	runner, err := compileStructuredLLMGraph[reviserLLMOutput](ctx, chatModel, systemPrompt, "reviser.model_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile reviser graph: %v", contractx.ErrModelInvoke, err)
	}
	return &reviserImpl{runner: runner, registry: reg}, nil
}

func (r *reviserImpl) Revise(ctx context.Context, req contractx.ReviseRequest) (contractx.Plan, error) {
	if strings.TrimSpace(req.Task.Goal) == "" {
		return contractx.Plan{}, fmt.Errorf("%w: task goal is required", contractx.ErrValidation)
	}

	payload := map[string]any{
		"goal":            req.Task.Goal,
		"terminal_tool":   req.Task.TerminalTool,
		"available_tools": toolSummaries(r.registry),
		"actions_taken":   traceSummary(req.Trace),
	}
	if req.Plan != nil {
		payload["existing_plan"] = planSummary(*req.Plan)
	} else {
		payload["existing_plan"] = "no plan yet, create one"
	}

	input, err := marshalInput(payload)
	if err != nil {
		return contractx.Plan{}, err
	}

	out, err := r.runner.Invoke(ctx, input)
	if err != nil {
		return contractx.Plan{}, fmt.Errorf("%w: reviser invoke: %v", contractx.ErrModelInvoke, err)
	}

	if len(out.Steps) == 0 {
		return contractx.Plan{}, fmt.Errorf("%w: revised plan has no steps", contractx.ErrSchemaViolation)
	}

	steps := make([]contractx.PlanStep, 0, len(out.Steps))
	for _, step := range out.Steps {
		tool := strings.TrimSpace(step.Tool)
		if !r.registry.Has(tool) {
			return contractx.Plan{}, fmt.Errorf("%w: planned tool %q is not registered", contractx.ErrSchemaViolation, tool)
		}
		steps = append(steps, contractx.PlanStep{
			Tool:      tool,
			Rationale: strings.TrimSpace(step.Rationale),
			Status:    contractx.StepPending,
		})
	}

	return contractx.Plan{Steps: steps}, nil
}
