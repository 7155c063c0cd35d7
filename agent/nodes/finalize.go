package nodes

import (
	"fmt"

	actx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/act"
	contractx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/contract"
	statex "github.com/tanpawarit/Chative-Pipeline-Agent/agent/state"
)

// Finalize appends the agent's own turn to its history and advances the turn
// counter.
func Finalize(in *TurnState, history *statex.HistoryLog, turn *int) (TurnOutput, error) {
	if in == nil || history == nil || turn == nil {
		return TurnOutput{}, fmt.Errorf("%w: turn state is incomplete", contractx.ErrValidation)
	}

	history.Append(in.Role, actx.Clone(in.Response))
	*turn++
	in.Turn = *turn

	return TurnOutput{
		InputAction:     in.InputAction,
		InputActionEval: in.InputActionEval,
		PolicyState:     in.PolicyState,
		OutputAction:    in.OutputAction,
		Response:        in.Response,
		Turn:            in.Turn,
	}, nil
}
