package controller

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	cyclenode "github.com/krzycho/dbagent/agent/nodes"
)

// compileCycleGraph wires one loop iteration: decide -> describe ->
// execute -> observe. The controller invokes it once per cycle; looping and
// replanning stay outside the graph.
func (c *Controller) compileCycleGraph(
	ctx context.Context,
) (compose.Runnable[*cyclenode.CycleState, cyclenode.CycleOutput], error) {
	graph := compose.NewGraph[*cyclenode.CycleState, cyclenode.CycleOutput]()

	if err := graph.AddLambdaNode("decide",
		compose.InvokableLambda(func(ctx context.Context, in *cyclenode.CycleState) (*cyclenode.CycleState, error) {
			return cyclenode.Decide(ctx, in, c.models.Decider())
		}),
	); err != nil {
		return nil, fmt.Errorf("add node decide: %w", err)
	}

	if err := graph.AddLambdaNode("describe",
		compose.InvokableLambda(func(ctx context.Context, in *cyclenode.CycleState) (*cyclenode.CycleState, error) {
			return cyclenode.Describe(ctx, in, c.models.Describer())
		}),
	); err != nil {
		return nil, fmt.Errorf("add node describe: %w", err)
	}

	if err := graph.AddLambdaNode("execute",
		compose.InvokableLambda(func(ctx context.Context, in *cyclenode.CycleState) (*cyclenode.CycleState, error) {
			return cyclenode.Execute(ctx, in, c.dispatcher)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node execute: %w", err)
	}

	if err := graph.AddLambdaNode("observe",
		compose.InvokableLambda(func(ctx context.Context, in *cyclenode.CycleState) (cyclenode.CycleOutput, error) {
			return cyclenode.Observe(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node observe: %w", err)
	}

	edges := [][2]string{
		{compose.START, "decide"},
		{"decide", "describe"},
		{"describe", "execute"},
		{"execute", "observe"},
		{"observe", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("controller.cycle"))
	if err != nil {
		return nil, fmt.Errorf("compile cycle graph: %w", err)
	}
	return runner, nil
}
