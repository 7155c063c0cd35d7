package nodes

import (
	"fmt"

	actx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/act"
	contractx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/contract"
	statex "github.com/tanpawarit/Chative-Pipeline-Agent/agent/state"
)

// Observe records the opponent's turn in the tracker history (when a DST is
// present) and in the agent history.
func Observe(in *TurnState, dst contractx.DST, history *statex.HistoryLog) (*TurnState, error) {
	if in == nil || history == nil {
		return nil, fmt.Errorf("%w: turn state is incomplete", contractx.ErrValidation)
	}

	speaker := in.Role.Opponent()
	if dst != nil {
		st := dst.State()
		if st == nil {
			return nil, fmt.Errorf("observe: %w", ErrNoPolicyState)
		}
		st.AppendHistory(speaker, actx.Clone(in.Observation))
	}
	history.Append(speaker, actx.Clone(in.Observation))
	return in, nil
}
