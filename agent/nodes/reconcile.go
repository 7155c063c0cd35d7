package nodes

import (
	"context"
	"fmt"

	actx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/act"
	contractx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/contract"
	statex "github.com/tanpawarit/Chative-Pipeline-Agent/agent/state"
)

// Reconcile writes the agent's own turn back into the tracker. The system
// side applies the booking rules; the user side feeds its output act through
// its DST a second time.
func Reconcile(
	ctx context.Context,
	in *TurnState,
	dst contractx.DST,
	domains *statex.DomainTracker,
	scanInput bool,
) (*TurnState, error) {
	if in == nil || domains == nil {
		return nil, fmt.Errorf("%w: turn state is incomplete", contractx.ErrValidation)
	}
	if dst == nil {
		return in, nil
	}

	st := dst.State()
	if st == nil {
		return nil, fmt.Errorf("reconcile: %w", ErrNoPolicyState)
	}
	st.AppendHistory(in.Role, actx.Clone(in.Response))

	if in.Role == statex.RoleSys {
		st.SetSystemAction(actx.Clone(in.OutputAction))
		statex.Reconcile(st, domains, in.InputAction, in.OutputAction, scanInput)
		return in, nil
	}

	st.SetUserAction(actx.Clone(in.OutputAction))
	if _, err := dst.Update(ctx, actx.Clone(in.OutputAction)); err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	return in, nil
}
