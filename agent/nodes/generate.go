package nodes

import (
	"context"
	"fmt"

	actx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/act"
	contractx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/contract"
)

// Generate realises the output act as text. Without an NLG the response is
// the output act itself.
func Generate(ctx context.Context, in *TurnState, nlg contractx.NLG) (*TurnState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: turn state is nil", contractx.ErrValidation)
	}
	if nlg == nil {
		in.Response = actx.Clone(in.OutputAction)
		return in, nil
	}

	text, err := nlg.Generate(ctx, actx.Clone(in.OutputAction))
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	in.Response = actx.Utterance(text)
	return in, nil
}
