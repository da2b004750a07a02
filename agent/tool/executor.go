package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	contractx "github.com/krzycho/dbagent/agent/contract"
	dispatchx "github.com/krzycho/dbagent/agent/dispatch"
	"github.com/krzycho/dbagent/pkg/dbgate"
	"github.com/krzycho/dbagent/pkg/report"
)

// AnswerSink submits a finished answer upstream.
type AnswerSink interface {
	Submit(ctx context.Context, task string, answer any) (report.Receipt, error)
}

// Deps are the collaborators behind the capability set.
type Deps struct {
	Gateway    dbgate.Gateway
	Analyzer   contractx.Analyzer
	Reporter   AnswerSink
	ReportTask string
}

// NewExecutor binds tool names to their collaborators. Domain failures are
// returned as errors; the dispatcher converts them into error results.
func NewExecutor(deps Deps) (dispatchx.Executor, error) {
	if deps.Gateway == nil {
		return nil, fmt.Errorf("%w: database gateway is required", contractx.ErrValidation)
	}
	if deps.Analyzer == nil {
		return nil, fmt.Errorf("%w: analyzer is required", contractx.ErrValidation)
	}
	if deps.Reporter == nil {
		return nil, fmt.Errorf("%w: reporter is required", contractx.ErrValidation)
	}
	reportTask := strings.TrimSpace(deps.ReportTask)
	if reportTask == "" {
		reportTask = "database"
	}

	return func(ctx context.Context, tool string, args map[string]any) (any, error) {
		switch tool {
		case contractx.ToolGetTables:
			return queryRows[contractx.TableRow](ctx, deps.Gateway, "show tables")

		case contractx.ToolGetTableStructure:
			table, _ := args["table_name"].(string)
			return queryRows[contractx.StructureRow](ctx, deps.Gateway, "show create table "+table)

		case contractx.ToolAnalyzeStructure:
			structures, err := toStructureMap(args["table_structures"])
			if err != nil {
				return nil, err
			}
			description, _ := args["task_description"].(string)
			query, err := deps.Analyzer.Analyze(ctx, structures, description)
			if err != nil {
				return nil, err
			}
			query = strings.TrimSpace(query)
			if query == "" {
				return nil, errors.New("analyzer produced no usable query")
			}
			return query, nil

		case contractx.ToolExecuteQuery:
			query, _ := args["query"].(string)
			return queryRows[contractx.QueryRow](ctx, deps.Gateway, query)

		case contractx.ToolFinalAnswer:
			receipt, err := deps.Reporter.Submit(ctx, reportTask, args["answer"])
			if err != nil {
				return nil, err
			}
			if !receipt.Accepted() {
				return nil, fmt.Errorf("answer rejected: %s", receipt.Message)
			}
			return receipt, nil

		default:
			return nil, fmt.Errorf("tool %q has no collaborator", tool)
		}
	}, nil
}

func queryRows[T any](ctx context.Context, gw dbgate.Gateway, query string) ([]T, error) {
	env, err := gw.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	if !env.OK() {
		return nil, errors.New(env.Error)
	}
	var rows []T
	if len(env.Reply) > 0 {
		if err := json.Unmarshal(env.Reply, &rows); err != nil {
			return nil, fmt.Errorf("decode %q reply: %w", query, err)
		}
	}
	return rows, nil
}

func toStructureMap(raw any) (map[string]string, error) {
	switch v := raw.(type) {
	case map[string]string:
		return v, nil
	case map[string]any:
		out := make(map[string]string, len(v))
		for k, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("table structure for %q must be a string", k)
			}
			out[k] = s
		}
		return out, nil
	default:
		return nil, errors.New("table_structures must be a map of table name to DDL")
	}
}
