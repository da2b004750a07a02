package reasoner

import (
	"encoding/json"
	"fmt"

	contractx "github.com/krzycho/dbagent/agent/contract"
	registryx "github.com/krzycho/dbagent/agent/registry"
)

// Compact views of the registry, plan and trace that go into role prompts.

func toolSummaries(reg *registryx.Registry) []map[string]any {
	descriptors := reg.List()
	out := make([]map[string]any, 0, len(descriptors))
	for _, d := range descriptors {
		params := make(map[string]string, len(d.Params))
		for name, spec := range d.Params {
			params[name] = fmt.Sprintf("%s: %s", spec.Type, spec.Desc)
		}
		out = append(out, map[string]any{
			"name":        d.Name,
			"description": d.Desc,
			"parameters":  params,
			"output":      d.OutputDesc,
		})
	}
	return out
}

func planSummary(p contractx.Plan) []map[string]any {
	out := make([]map[string]any, 0, len(p.Steps))
	for _, step := range p.Steps {
		out = append(out, map[string]any{
			"tool":      step.Tool,
			"rationale": step.Rationale,
			"status":    string(step.Status),
		})
	}
	return out
}

func traceSummary(entries []contractx.TraceEntry) []map[string]any {
	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]any{
			"cycle":     e.Cycle,
			"tool":      e.Action.Tool,
			"arguments": e.Action.Arguments,
			"status":    string(e.Result.Status),
			"result":    payloadText(e.Result),
		})
	}
	return out
}

func payloadText(r contractx.ExecutionResult) string {
	if !r.OK() {
		return "error: " + r.Detail
	}
	raw, err := json.Marshal(r.Payload)
	if err != nil {
		return fmt.Sprintf("%v", r.Payload)
	}
	return string(raw)
}

func marshalInput(payload map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal prompt payload: %v", contractx.ErrValidation, err)
	}
	return map[string]any{"input": string(raw)}, nil
}
