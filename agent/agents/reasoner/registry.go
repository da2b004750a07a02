package reasoner

import (
	"context"
	"fmt"

	contractx "github.com/krzycho/dbagent/agent/contract"
	llmx "github.com/krzycho/dbagent/agent/llm"
	promptx "github.com/krzycho/dbagent/agent/prompt"
	registryx "github.com/krzycho/dbagent/agent/registry"
)

type registryImpl struct {
	reviser   contractx.Reviser
	decider   contractx.Decider
	describer contractx.Describer
}

func (r *registryImpl) Reviser() contractx.Reviser {
	return r.reviser
}

func (r *registryImpl) Decider() contractx.Decider {
	return r.decider
}

func (r *registryImpl) Describer() contractx.Describer {
	return r.describer
}

// NewRegistry builds the three LLM-backed reasoning roles against the given
// tool registry. Each role may run a different model per configuration.
func NewRegistry(ctx context.Context, cfg llmx.Config, tools *registryx.Registry) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if tools == nil {
		return nil, fmt.Errorf("%w: tool registry is required", contractx.ErrValidation)
	}

	prompts := promptx.LoadPromptSet()

	reviserModelCfg := cfg.OpenRouterFor(contractx.RoleReviser)
	reviserModel, err := reviserModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create reviser model: %v", contractx.ErrModelInvoke, err)
	}
	deciderModelCfg := cfg.OpenRouterFor(contractx.RoleDecider)
	deciderModel, err := deciderModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create decider model: %v", contractx.ErrModelInvoke, err)
	}
	describerModelCfg := cfg.OpenRouterFor(contractx.RoleDescriber)
	describerModel, err := describerModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create describer model: %v", contractx.ErrModelInvoke, err)
	}

	reviser, err := newReviser(ctx, reviserModel, prompts.Reviser, tools)
	if err != nil {
		return nil, err
	}
	decider, err := newDecider(ctx, deciderModel, prompts.Decider, tools)
	if err != nil {
		return nil, err
	}
	describer, err := newDescriber(ctx, describerModel, prompts.Describer, tools)
	if err != nil {
		return nil, err
	}

	return &registryImpl{
		reviser:   reviser,
		decider:   decider,
		describer: describer,
	}, nil
}
