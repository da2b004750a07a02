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

type describerImpl struct {
	runner   compose.Runnable[map[string]any, describerLLMOutput]
	registry *registryx.Registry
}

type describerLLMOutput struct {
	Thoughts  string         `json:"_thoughts,omitempty"`
	Arguments map[string]any `json:"arguments"`
}

func newDescriber(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	reg *registryx.Registry,
) (*describerImpl, error) {
	runner, err := compileStructuredLLMGraph[describerLLMOutput](ctx, chatModel, systemPrompt, "describer.model_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile describer graph: %v", contractx.ErrModelInvoke, err)
	}
	return &describerImpl{runner: runner, registry: reg}, nil
}

// BuildArguments synthesizes the payload for the selected tool. Arguments
// whose value the trace fully determines are assembled mechanically; the
// model is consulted only where a judgment call remains (which table to
// inspect next, what the answer values are). Either way, nothing already in
// the trace is ever requested again.
func (d *describerImpl) BuildArguments(ctx context.Context, req contractx.DescribeRequest) (map[string]any, error) {
	switch req.Tool {
	case contractx.ToolGetTables:
		return map[string]any{}, nil

	case contractx.ToolGetTableStructure:
		tables, listed := tracex.TablesListed(req.Trace)
		if !listed {
			return nil, fmt.Errorf("%w: table list not fetched yet", contractx.ErrArgumentConstruction)
		}
		args, err := d.llmArguments(ctx, req)
		if err != nil {
			return nil, err
		}
		table, _ := args["table_name"].(string)
		table = strings.TrimSpace(table)
		if table == "" {
			return nil, fmt.Errorf("%w: describer produced no table_name", contractx.ErrSchemaViolation)
		}
		// A table whose DDL the trace already holds is never fetched
		// again: take the first listed table still missing instead.
		if tracex.HasStructure(req.Trace, table) {
			next, ok := firstUnfetched(tables, req.Trace)
			if !ok {
				return nil, fmt.Errorf("%w: every listed table structure is already in the trace", contractx.ErrArgumentConstruction)
			}
			table = next
		}
		return map[string]any{"table_name": table}, nil

	case contractx.ToolAnalyzeStructure:
		structures := tracex.Structures(req.Trace)
		if len(structures) == 0 {
			return nil, fmt.Errorf("%w: no table structures in trace", contractx.ErrArgumentConstruction)
		}
		return map[string]any{
			"table_structures": structures,
			"task_description": req.Task.Goal,
		}, nil

	case contractx.ToolExecuteQuery:
		query, ok := tracex.LastQuery(req.Trace)
		if !ok {
			return nil, fmt.Errorf("%w: no analyzed query in trace", contractx.ErrArgumentConstruction)
		}
		return map[string]any{"query": query}, nil

	case contractx.ToolFinalAnswer:
		if _, ok := tracex.LastRows(req.Trace); !ok {
			return nil, fmt.Errorf("%w: no query result in trace", contractx.ErrArgumentConstruction)
		}
		args, err := d.llmArguments(ctx, req)
		if err != nil {
			return nil, err
		}
		answer, err := toAnswerList(args["answer"])
		if err != nil {
			return nil, err
		}
		return map[string]any{"answer": answer}, nil

	default:
		if !d.registry.Has(req.Tool) {
			return nil, fmt.Errorf("%w: %q", contractx.ErrUnknownTool, req.Tool)
		}
		return d.llmArguments(ctx, req)
	}
}

func (d *describerImpl) llmArguments(ctx context.Context, req contractx.DescribeRequest) (map[string]any, error) {
	desc, err := d.registry.Describe(req.Tool)
	if err != nil {
		return nil, err
	}

	params := make(map[string]string, len(desc.Params))
	for name, spec := range desc.Params {
		params[name] = fmt.Sprintf("%s: %s", spec.Type, spec.Desc)
	}

	payload := map[string]any{
		"goal":          req.Task.Goal,
		"tool":          desc.Name,
		"description":   desc.Desc,
		"parameters":    params,
		"existing_plan": planSummary(req.Plan),
		"actions_taken": traceSummary(req.Trace),
	}
	input, err := marshalInput(payload)
	if err != nil {
		return nil, err
	}

	out, err := d.runner.Invoke(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("%w: describer invoke: %v", contractx.ErrModelInvoke, err)
	}
	if out.Arguments == nil {
		return nil, fmt.Errorf("%w: describer returned no arguments", contractx.ErrSchemaViolation)
	}
	return out.Arguments, nil
}

func firstUnfetched(tables []string, entries []contractx.TraceEntry) (string, bool) {
	for _, table := range tables {
		if !tracex.HasStructure(entries, table) {
			return table, true
		}
	}
	return "", false
}

func toAnswerList(raw any) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: answer list is empty", contractx.ErrSchemaViolation)
		}
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprintf("%v", item))
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("%w: answer list is empty", contractx.ErrSchemaViolation)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: answer must be a list", contractx.ErrSchemaViolation)
	}
}
