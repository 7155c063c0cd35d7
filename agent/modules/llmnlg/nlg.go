// Package llmnlg realises dialogue acts as text through an OpenAI-compatible
// chat completion endpoint.
package llmnlg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"
	actx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/act"
	contractx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/contract"
)

type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

type NLG struct {
	client       *openaisdk.Client
	cfg          Config
	systemPrompt string

	calls     int
	lastUsage int64
}

var (
	_ contractx.NLG         = (*NLG)(nil)
	_ contractx.Diagnosable = (*NLG)(nil)
)

func New(client *openaisdk.Client, cfg Config, systemPrompt string) (*NLG, error) {
	if client == nil {
		return nil, errors.New("openai client is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("%w: nlg model is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: nlg system prompt", contractx.ErrPromptMissing)
	}
	return &NLG{client: client, cfg: cfg, systemPrompt: systemPrompt}, nil
}

func (n *NLG) InitSession() error {
	n.calls = 0
	n.lastUsage = 0
	return nil
}

// Generate returns an utterance unchanged and an empty string for a nil or
// empty act; only structured acts reach the model.
func (n *NLG) Generate(ctx context.Context, action actx.Act) (string, error) {
	switch v := action.(type) {
	case nil:
		return "", nil
	case actx.Utterance:
		return string(v), nil
	case actx.Structured:
		if len(v) == 0 {
			return "", nil
		}
	}

	input, err := json.Marshal(actx.JSON{Act: action})
	if err != nil {
		return "", fmt.Errorf("%w: marshal nlg payload: %v", contractx.ErrValidation, err)
	}

	params := openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(n.cfg.Model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(n.systemPrompt),
			openaisdk.UserMessage(string(input)),
		},
		Temperature: openaisdk.Float(n.cfg.Temperature),
	}
	if n.cfg.MaxTokens > 0 {
		params.MaxCompletionTokens = openaisdk.Int(int64(n.cfg.MaxTokens))
	}

	resp, err := n.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: nlg invoke: %v", contractx.ErrModelInvoke, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: nlg returned no choices", contractx.ErrSchemaViolation)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: nlg returned empty content", contractx.ErrSchemaViolation)
	}

	n.calls++
	n.lastUsage = resp.Usage.TotalTokens
	return text, nil
}

func (n *NLG) InfoDict() map[string]any {
	return map[string]any{
		"model":       n.cfg.Model,
		"calls":       n.calls,
		"last_tokens": n.lastUsage,
	}
}
