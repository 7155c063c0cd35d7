// Package llmnlu parses utterances into dialogue acts with a chat model.
package llmnlu

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	actx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/act"
	contractx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/contract"
	llmx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/llm"
)

// maxContextTurns bounds how much history is sent with each utterance.
const maxContextTurns = 6

type llmOutput struct {
	Acts [][]string `json:"acts"`
}

type NLU struct {
	runner compose.Runnable[map[string]any, llmOutput]

	predictions int
	lastActs    int
}

var (
	_ contractx.NLU         = (*NLU)(nil)
	_ contractx.Diagnosable = (*NLU)(nil)
)

func New(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*NLU, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: nlu system prompt", contractx.ErrPromptMissing)
	}
	runner, err := llmx.CompileStructuredGraph[llmOutput](ctx, chatModel, systemPrompt, "nlu.model_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile nlu graph: %v", contractx.ErrModelInvoke, err)
	}
	return &NLU{runner: runner}, nil
}

func (n *NLU) InitSession() error {
	n.predictions = 0
	n.lastActs = 0
	return nil
}

func (n *NLU) Predict(ctx context.Context, utterance string, context []string) (actx.Act, error) {
	if len(context) > maxContextTurns {
		context = context[len(context)-maxContextTurns:]
	}
	payload := map[string]any{
		"utterance": utterance,
		"context":   context,
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal nlu payload: %v", contractx.ErrValidation, err)
	}

	out, err := n.runner.Invoke(ctx, map[string]any{
		"input": string(input),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: nlu invoke: %v", contractx.ErrModelInvoke, err)
	}

	acts := make(actx.Structured, 0, len(out.Acts))
	for i, row := range out.Acts {
		if len(row) != 4 {
			return nil, fmt.Errorf("%w: act %d has %d fields, want 4", contractx.ErrSchemaViolation, i, len(row))
		}
		acts = append(acts, actx.T(
			strings.TrimSpace(row[0]),
			strings.TrimSpace(row[1]),
			strings.TrimSpace(row[2]),
			strings.TrimSpace(row[3]),
		))
	}

	n.predictions++
	n.lastActs = len(acts)
	return acts, nil
}

func (n *NLU) InfoDict() map[string]any {
	return map[string]any{
		"predictions": n.predictions,
		"last_acts":   n.lastActs,
	}
}
