package nodes

import (
	"context"
	"fmt"

	actx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/act"
	contractx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/contract"
	statex "github.com/tanpawarit/Chative-Pipeline-Agent/agent/state"
)

// Understand derives the input act. Without an NLU the observation passes
// through unchanged. The user side predicts twice: once for evaluation and
// once for its own use.
func Understand(
	ctx context.Context,
	in *TurnState,
	nlu contractx.NLU,
	history *statex.HistoryLog,
) (*TurnState, error) {
	if in == nil || history == nil {
		return nil, fmt.Errorf("%w: turn state is incomplete", contractx.ErrValidation)
	}

	if nlu == nil {
		in.InputAction = actx.Clone(in.Observation)
		if in.Role == statex.RoleUser {
			in.InputActionEval = actx.Clone(in.Observation)
		}
		return in, nil
	}

	utterance, ok := in.Observation.(actx.Utterance)
	if !ok {
		return nil, fmt.Errorf("understand: %w: nlu expects an utterance, got %T", contractx.ErrModality, in.Observation)
	}

	if in.Role == statex.RoleUser {
		eval, err := nlu.Predict(ctx, string(utterance), history.Context())
		if err != nil {
			return nil, fmt.Errorf("understand: %w", err)
		}
		in.InputActionEval = actx.Clone(eval)
	}

	action, err := nlu.Predict(ctx, string(utterance), history.Context())
	if err != nil {
		return nil, fmt.Errorf("understand: %w", err)
	}
	in.InputAction = actx.Clone(action)
	return in, nil
}
