package pipeline

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	nodex "github.com/tanpawarit/Chative-Pipeline-Agent/agent/nodes"
)

func (a *Agent) compileTurnGraph(
	ctx context.Context,
) (compose.Runnable[nodex.TurnInput, nodex.TurnOutput], error) {
	graph := compose.NewGraph[nodex.TurnInput, nodex.TurnOutput]()

	if err := graph.AddLambdaNode("begin_turn",
		compose.InvokableLambda(func(ctx context.Context, in nodex.TurnInput) (*nodex.TurnState, error) {
			return nodex.BeginTurn(in, a.role)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node begin_turn: %w", err)
	}

	if err := graph.AddLambdaNode("observe",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.TurnState) (*nodex.TurnState, error) {
			return nodex.Observe(in, a.dst, &a.history)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node observe: %w", err)
	}

	if err := graph.AddLambdaNode("understand",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.TurnState) (*nodex.TurnState, error) {
			return nodex.Understand(ctx, in, a.nlu, &a.history)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node understand: %w", err)
	}

	if err := graph.AddLambdaNode("track",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.TurnState) (*nodex.TurnState, error) {
			return nodex.Track(ctx, in, a.dst)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node track: %w", err)
	}

	if err := graph.AddLambdaNode("decide",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.TurnState) (*nodex.TurnState, error) {
			return nodex.Decide(ctx, in, a.policy)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node decide: %w", err)
	}

	if err := graph.AddLambdaNode("generate",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.TurnState) (*nodex.TurnState, error) {
			return nodex.Generate(ctx, in, a.nlg)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node generate: %w", err)
	}

	if err := graph.AddLambdaNode("reconcile",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.TurnState) (*nodex.TurnState, error) {
			return nodex.Reconcile(ctx, in, a.dst, &a.domains, a.scanInputAction)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node reconcile: %w", err)
	}

	if err := graph.AddLambdaNode("finalize",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.TurnState) (nodex.TurnOutput, error) {
			return nodex.Finalize(in, &a.history, &a.turn)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize: %w", err)
	}

	edges := [][2]string{
		{compose.START, "begin_turn"},
		{"begin_turn", "observe"},
		{"observe", "understand"},
		{"understand", "track"},
		{"track", "decide"},
		{"decide", "generate"},
		{"generate", "reconcile"},
		{"reconcile", "finalize"},
		{"finalize", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("pipeline.turn"))
	if err != nil {
		return nil, fmt.Errorf("compile turn graph: %w", err)
	}
	return runner, nil
}
