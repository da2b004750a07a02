package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/krzycho/dbagent/agent/contract"
	dispatchx "github.com/krzycho/dbagent/agent/dispatch"
	cyclenode "github.com/krzycho/dbagent/agent/nodes"
	planx "github.com/krzycho/dbagent/agent/plan"
	tracex "github.com/krzycho/dbagent/agent/trace"
)

const DefaultMaxCycles = 10

type Config struct {
	MaxCycles int
	Writer    tracex.Writer
}

// Controller drives the task loop: seed a plan, then cycle through
// decide -> describe -> execute -> observe -> replan until the terminal
// tool lands or the budget runs out. One Controller instance serves one
// task at a time; run independent tasks on independent instances.
type Controller struct {
	models     contractx.Registry
	dispatcher *dispatchx.Dispatcher
	writer     tracex.Writer
	maxCycles  int

	cycleRunner compose.Runnable[*cyclenode.CycleState, cyclenode.CycleOutput]
}

func New(models contractx.Registry, dispatcher *dispatchx.Dispatcher, cfg Config) (*Controller, error) {
	if models == nil {
		return nil, errors.New("reasoning registry is required")
	}
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}

	maxCycles := cfg.MaxCycles
	if maxCycles <= 0 {
		maxCycles = DefaultMaxCycles
	}
	writer := cfg.Writer
	if writer == nil {
		writer = tracex.NopWriter{}
	}

	c := &Controller{
		models:     models,
		dispatcher: dispatcher,
		writer:     writer,
		maxCycles:  maxCycles,
	}

	cycleRunner, err := c.compileCycleGraph(context.Background())
	if err != nil {
		return nil, err
	}
	c.cycleRunner = cycleRunner

	return c, nil
}

// Run drives one task to completion. The returned error is non-nil only
// for fatal controller-level failures; exhausted and cancelled runs come
// back as their own outcome statuses carrying the trace so far.
func (c *Controller) Run(ctx context.Context, task contractx.Task) (contractx.Outcome, error) {
	if strings.TrimSpace(task.Goal) == "" {
		return contractx.Outcome{Status: contractx.OutcomeFailed}, fmt.Errorf("%w: task goal is empty", contractx.ErrValidation)
	}
	if strings.TrimSpace(task.TerminalTool) == "" {
		task.TerminalTool = contractx.ToolFinalAnswer
	}

	plans := planx.NewStore()
	traceLog := tracex.NewLog()

	if err := c.revise(ctx, task, plans, traceLog); err != nil {
		return c.failed(traceLog), err
	}

	violationStrikes := 0

	for cycle := 1; cycle <= c.maxCycles; cycle++ {
		if ctx.Err() != nil {
			log.Warn().Str("task", task.ID).Int("cycle", cycle).Msg("task cancelled between cycles")
			return c.terminal(contractx.OutcomeCancelled, traceLog, cycle-1), nil
		}

		current, _ := plans.Current()
		out, err := c.cycleRunner.Invoke(ctx, &cyclenode.CycleState{
			CycleInput: cyclenode.CycleInput{
				Task:  task,
				Cycle: cycle,
				Plan:  current,
				Trace: traceLog.Entries(),
			},
		})

		switch {
		case err == nil:
			// dispatched; handled below

		case errors.Is(err, contractx.ErrArgumentConstruction):
			// Missing precondition: no dispatch happened. Force a plan
			// revision so the missing discovery step gets scheduled.
			c.writer.Action("Describe", err.Error())
			log.Info().Str("task", task.ID).Int("cycle", cycle).Err(err).Msg("forcing plan revision")
			if rerr := c.revise(ctx, task, plans, traceLog); rerr != nil {
				return c.failed(traceLog), rerr
			}
			continue

		case errors.Is(err, contractx.ErrSchemaViolation):
			violationStrikes++
			if violationStrikes > 1 {
				return c.failed(traceLog), fmt.Errorf("repeated schema violation: %w", err)
			}
			log.Warn().Str("task", task.ID).Int("cycle", cycle).Err(err).Msg("schema violation, replanning once")
			if rerr := c.revise(ctx, task, plans, traceLog); rerr != nil {
				return c.failed(traceLog), rerr
			}
			continue

		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return c.terminal(contractx.OutcomeCancelled, traceLog, cycle-1), nil

		default:
			// Unknown tool or a reasoning-model failure: controller bug
			// territory, abort with the trace for diagnostics.
			return c.failed(traceLog), err
		}

		entry := out.Entry
		if err := traceLog.Append(entry); err != nil {
			return c.failed(traceLog), err
		}
		c.observe(entry)
		log.Info().
			Str("task", task.ID).
			Int("cycle", cycle).
			Str("tool", entry.Action.Tool).
			Str("status", string(entry.Result.Status)).
			Msg("cycle complete")

		if entry.Action.Tool == task.TerminalTool && entry.Result.OK() {
			return contractx.Outcome{
				Status: contractx.OutcomeCompleted,
				Answer: answerOf(entry.Action),
				Cycles: cycle,
				Trace:  traceLog.Entries(),
			}, nil
		}

		if dispatchx.IsSchemaViolation(entry.Result) {
			violationStrikes++
			if violationStrikes > 1 {
				return c.failed(traceLog), fmt.Errorf("%w: repeated argument schema violation for %s", contractx.ErrSchemaViolation, entry.Action.Tool)
			}
		} else {
			violationStrikes = 0
		}

		// Errors included: a failed result is input to the next plan,
		// not a reason to stop.
		if err := c.revise(ctx, task, plans, traceLog); err != nil {
			return c.failed(traceLog), err
		}
	}

	log.Warn().Str("task", task.ID).Int("max_cycles", c.maxCycles).Msg("iteration budget exhausted")
	return c.terminal(contractx.OutcomeExhausted, traceLog, c.maxCycles), nil
}

func (c *Controller) revise(
	ctx context.Context,
	task contractx.Task,
	plans *planx.Store,
	traceLog *tracex.Log,
) error {
	req := contractx.ReviseRequest{
		Task:  task,
		Trace: traceLog.Entries(),
	}
	if current, ok := plans.Current(); ok {
		req.Plan = &current
	}

	revised, err := c.models.Reviser().Revise(ctx, req)
	if err != nil {
		return err
	}

	pushed, err := plans.Push(revised)
	if err != nil {
		return err
	}

	c.writer.Basic("Planning", planText(pushed))
	return nil
}

func (c *Controller) observe(entry contractx.TraceEntry) {
	c.writer.Action("Decide", fmt.Sprintf("tool=%s %s", entry.Action.Tool, entry.Action.Rationale))
	if len(entry.Action.Arguments) > 0 {
		if raw, err := json.Marshal(entry.Action.Arguments); err == nil {
			c.writer.Action("Describe", string(raw))
		}
	}
	c.writer.Result("Execution", resultText(entry.Result))
}

func (c *Controller) terminal(status contractx.OutcomeStatus, traceLog *tracex.Log, cycles int) contractx.Outcome {
	return contractx.Outcome{
		Status: status,
		Cycles: cycles,
		Trace:  traceLog.Entries(),
	}
}

func (c *Controller) failed(traceLog *tracex.Log) contractx.Outcome {
	return contractx.Outcome{
		Status: contractx.OutcomeFailed,
		Cycles: traceLog.Len(),
		Trace:  traceLog.Entries(),
	}
}

func answerOf(action contractx.Action) []string {
	switch v := action.Arguments["answer"].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	default:
		return nil
	}
}

func planText(p contractx.Plan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "revision %d\n", p.Revision)
	for _, step := range p.Steps {
		fmt.Fprintf(&b, "- %s: %s\n", step.Tool, step.Rationale)
	}
	return strings.TrimRight(b.String(), "\n")
}

func resultText(r contractx.ExecutionResult) string {
	if !r.OK() {
		return "error: " + r.Detail
	}
	raw, err := json.Marshal(r.Payload)
	if err != nil {
		return fmt.Sprintf("%v", r.Payload)
	}
	return string(raw)
}
