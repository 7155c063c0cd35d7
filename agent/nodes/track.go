package nodes

import (
	"context"
	"fmt"

	actx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/act"
	contractx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/contract"
	statex "github.com/tanpawarit/Chative-Pipeline-Agent/agent/state"
)

// Track stores the input act on the tracker and lets the DST update. The
// policy receives a deep copy of the resulting state.
func Track(ctx context.Context, in *TurnState, dst contractx.DST) (*TurnState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: turn state is nil", contractx.ErrValidation)
	}
	if dst == nil {
		return in, nil
	}

	st := dst.State()
	if st == nil {
		return nil, fmt.Errorf("track: %w", ErrNoPolicyState)
	}
	if in.Role == statex.RoleSys {
		st.SetUserAction(actx.Clone(in.InputAction))
	} else {
		st.SetSystemAction(actx.Clone(in.InputAction))
	}

	updated, err := dst.Update(ctx, actx.Clone(in.InputAction))
	if err != nil {
		return nil, fmt.Errorf("track: %w", err)
	}
	if updated == nil {
		updated = dst.State()
	}
	if updated == nil {
		return nil, fmt.Errorf("track: %w", ErrNoPolicyState)
	}

	in.PolicyState = updated.Clone()
	return in, nil
}
