package cyclenode

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/krzycho/dbagent/agent/contract"
	dispatchx "github.com/krzycho/dbagent/agent/dispatch"
)

var ErrNoAction = errors.New("cycle has no action to dispatch")

// CycleInput is what one loop iteration starts from.
type CycleInput struct {
	Task  contractx.Task
	Cycle int
	Plan  contractx.Plan
	Trace []contractx.TraceEntry
}

// CycleState threads one iteration through decide -> describe -> execute.
type CycleState struct {
	CycleInput

	Action contractx.Action
	Result contractx.ExecutionResult
}

// CycleOutput is the frozen record of the iteration.
type CycleOutput struct {
	Entry contractx.TraceEntry
}

func Decide(ctx context.Context, in *CycleState, decider contractx.Decider) (*CycleState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: cycle state is nil", contractx.ErrValidation)
	}

	resp, err := decider.SelectTool(ctx, contractx.DecideRequest{
		Task:  in.Task,
		Plan:  in.Plan,
		Trace: in.Trace,
	})
	if err != nil {
		return nil, err
	}

	in.Action.Tool = resp.Tool
	in.Action.Rationale = resp.Rationale
	return in, nil
}

func Describe(ctx context.Context, in *CycleState, describer contractx.Describer) (*CycleState, error) {
	if in == nil || in.Action.Tool == "" {
		return nil, ErrNoAction
	}

	args, err := describer.BuildArguments(ctx, contractx.DescribeRequest{
		Task:  in.Task,
		Tool:  in.Action.Tool,
		Plan:  in.Plan,
		Trace: in.Trace,
	})
	if err != nil {
		return nil, err
	}

	in.Action.Arguments = args
	return in, nil
}

func Execute(ctx context.Context, in *CycleState, dispatcher *dispatchx.Dispatcher) (*CycleState, error) {
	if in == nil || in.Action.Tool == "" {
		return nil, ErrNoAction
	}

	result, err := dispatcher.Invoke(ctx, in.Action)
	if err != nil {
		return nil, err
	}

	in.Result = result
	return in, nil
}

// Observe freezes the cycle into its trace entry.
func Observe(in *CycleState) (CycleOutput, error) {
	if in == nil || in.Action.Tool == "" {
		return CycleOutput{}, ErrNoAction
	}

	return CycleOutput{
		Entry: contractx.TraceEntry{
			Cycle:        in.Cycle,
			PlanSnapshot: in.Plan.Clone(),
			Action:       in.Action,
			Result:       in.Result,
		},
	}, nil
}
