package tool

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	contractx "github.com/krzycho/dbagent/agent/contract"
	"github.com/krzycho/dbagent/pkg/dbgate"
	"github.com/krzycho/dbagent/pkg/report"
)

type fakeGateway struct {
	envelopes map[string]dbgate.Envelope
	err       error
	queries   []string
}

func (f *fakeGateway) Query(ctx context.Context, query string) (dbgate.Envelope, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return dbgate.Envelope{}, f.err
	}
	env, ok := f.envelopes[query]
	if !ok {
		return dbgate.Envelope{Error: "unknown query"}, nil
	}
	return env, nil
}

type fakeAnalyzer struct {
	query string
	err   error
	calls int
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, tableStructures map[string]string, taskDescription string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.query, nil
}

type fakeReporter struct {
	receipt report.Receipt
	err     error
	answers []any
}

func (f *fakeReporter) Submit(ctx context.Context, task string, answer any) (report.Receipt, error) {
	f.answers = append(f.answers, answer)
	if f.err != nil {
		return report.Receipt{}, f.err
	}
	return f.receipt, nil
}

func mustEnvelope(t *testing.T, payload any) dbgate.Envelope {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return dbgate.Envelope{Reply: raw, Error: dbgate.StatusOK}
}

func newTestExecutor(t *testing.T, gw *fakeGateway, an *fakeAnalyzer, rep *fakeReporter) func(context.Context, string, map[string]any) (any, error) {
	t.Helper()

	exec, err := NewExecutor(Deps{Gateway: gw, Analyzer: an, Reporter: rep})
	if err != nil {
		t.Fatalf("NewExecutor() error = %v", err)
	}
	return exec
}

func TestExecutorGetTables(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{envelopes: map[string]dbgate.Envelope{
		"show tables": mustEnvelope(t, []contractx.TableRow{{TableName: "users"}, {TableName: "datacenters"}}),
	}}
	exec := newTestExecutor(t, gw, &fakeAnalyzer{}, &fakeReporter{})

	payload, err := exec(context.Background(), contractx.ToolGetTables, map[string]any{})
	if err != nil {
		t.Fatalf("exec error = %v", err)
	}
	rows, ok := payload.([]contractx.TableRow)
	if !ok || len(rows) != 2 || rows[0].TableName != "users" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestExecutorGetTableStructure(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{envelopes: map[string]dbgate.Envelope{
		"show create table users": mustEnvelope(t, []contractx.StructureRow{
			{Table: "users", CreateTable: "CREATE TABLE users (id int)"},
		}),
	}}
	exec := newTestExecutor(t, gw, &fakeAnalyzer{}, &fakeReporter{})

	payload, err := exec(context.Background(), contractx.ToolGetTableStructure, map[string]any{"table_name": "users"})
	if err != nil {
		t.Fatalf("exec error = %v", err)
	}
	rows, ok := payload.([]contractx.StructureRow)
	if !ok || len(rows) != 1 || rows[0].Table != "users" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestExecutorDomainErrorSurfaces(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{envelopes: map[string]dbgate.Envelope{
		"show create table nope": {Error: "table nope does not exist"},
	}}
	exec := newTestExecutor(t, gw, &fakeAnalyzer{}, &fakeReporter{})

	_, err := exec(context.Background(), contractx.ToolGetTableStructure, map[string]any{"table_name": "nope"})
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Fatalf("expected domain error, got %v", err)
	}
}

func TestExecutorAnalyzeStructure(t *testing.T) {
	t.Parallel()

	an := &fakeAnalyzer{query: "  SELECT dc_id FROM datacenters  "}
	exec := newTestExecutor(t, &fakeGateway{}, an, &fakeReporter{})

	payload, err := exec(context.Background(), contractx.ToolAnalyzeStructure, map[string]any{
		"table_structures": map[string]any{"datacenters": "CREATE TABLE datacenters (dc_id int)"},
		"task_description": "find datacenter ids",
	})
	if err != nil {
		t.Fatalf("exec error = %v", err)
	}
	if payload != "SELECT dc_id FROM datacenters" {
		t.Fatalf("unexpected query: %v", payload)
	}
	if an.calls != 1 {
		t.Fatalf("expected one analyzer call, got %d", an.calls)
	}
}

func TestExecutorAnalyzeStructureEmptyQuery(t *testing.T) {
	t.Parallel()

	exec := newTestExecutor(t, &fakeGateway{}, &fakeAnalyzer{query: "   "}, &fakeReporter{})

	_, err := exec(context.Background(), contractx.ToolAnalyzeStructure, map[string]any{
		"table_structures": map[string]string{"t": "CREATE TABLE t (id int)"},
		"task_description": "anything",
	})
	if err == nil || !strings.Contains(err.Error(), "no usable query") {
		t.Fatalf("expected empty-query error, got %v", err)
	}
}

func TestExecutorAnalyzeStructureBadStructures(t *testing.T) {
	t.Parallel()

	exec := newTestExecutor(t, &fakeGateway{}, &fakeAnalyzer{query: "SELECT 1"}, &fakeReporter{})

	_, err := exec(context.Background(), contractx.ToolAnalyzeStructure, map[string]any{
		"table_structures": map[string]any{"t": 42},
		"task_description": "anything",
	})
	if err == nil || !strings.Contains(err.Error(), "must be a string") {
		t.Fatalf("expected structure type error, got %v", err)
	}
}

func TestExecutorExecuteQuery(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{envelopes: map[string]dbgate.Envelope{
		"SELECT dc_id FROM datacenters": mustEnvelope(t, []contractx.QueryRow{{"dc_id": "4278"}, {"dc_id": "9294"}}),
	}}
	exec := newTestExecutor(t, gw, &fakeAnalyzer{}, &fakeReporter{})

	payload, err := exec(context.Background(), contractx.ToolExecuteQuery, map[string]any{"query": "SELECT dc_id FROM datacenters"})
	if err != nil {
		t.Fatalf("exec error = %v", err)
	}
	rows, ok := payload.([]contractx.QueryRow)
	if !ok || len(rows) != 2 || rows[1]["dc_id"] != "9294" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestExecutorFinalAnswer(t *testing.T) {
	t.Parallel()

	rep := &fakeReporter{receipt: report.Receipt{Code: 0, Message: "accepted"}}
	exec := newTestExecutor(t, &fakeGateway{}, &fakeAnalyzer{}, rep)

	payload, err := exec(context.Background(), contractx.ToolFinalAnswer, map[string]any{
		"answer": []string{"4278", "9294"},
	})
	if err != nil {
		t.Fatalf("exec error = %v", err)
	}
	receipt, ok := payload.(report.Receipt)
	if !ok || !receipt.Accepted() {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if len(rep.answers) != 1 {
		t.Fatalf("expected one submission, got %d", len(rep.answers))
	}
}

func TestExecutorFinalAnswerRejected(t *testing.T) {
	t.Parallel()

	rep := &fakeReporter{receipt: report.Receipt{Code: -304, Message: "wrong answer"}}
	exec := newTestExecutor(t, &fakeGateway{}, &fakeAnalyzer{}, rep)

	_, err := exec(context.Background(), contractx.ToolFinalAnswer, map[string]any{
		"answer": []string{"0"},
	})
	if err == nil || !strings.Contains(err.Error(), "wrong answer") {
		t.Fatalf("expected rejection error, got %v", err)
	}
}

func TestExecutorTransportErrorPropagates(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{err: errors.New("connection refused")}
	exec := newTestExecutor(t, gw, &fakeAnalyzer{}, &fakeReporter{})

	_, err := exec(context.Background(), contractx.ToolGetTables, map[string]any{})
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestNewExecutorRequiresCollaborators(t *testing.T) {
	t.Parallel()

	if _, err := NewExecutor(Deps{Analyzer: &fakeAnalyzer{}, Reporter: &fakeReporter{}}); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation without gateway, got %v", err)
	}
	if _, err := NewExecutor(Deps{Gateway: &fakeGateway{}, Reporter: &fakeReporter{}}); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation without analyzer, got %v", err)
	}
	if _, err := NewExecutor(Deps{Gateway: &fakeGateway{}, Analyzer: &fakeAnalyzer{}}); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation without reporter, got %v", err)
	}
}
