package nodes

import (
	"errors"
	"fmt"

	actx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/act"
	contractx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/contract"
	statex "github.com/tanpawarit/Chative-Pipeline-Agent/agent/state"
)

var ErrNoPolicyState = errors.New("dst returned no state")

type TurnInput struct {
	Observation actx.Act
}

// TurnOutput is everything one turn produced. Acts are owned by the caller.
type TurnOutput struct {
	InputAction     actx.Act
	InputActionEval actx.Act
	PolicyState     *statex.TrackerState
	OutputAction    actx.Act
	Response        actx.Act
	Turn            int
}

// TurnState flows between the steps of a single turn.
type TurnState struct {
	Role        statex.Role
	Observation actx.Act

	InputAction     actx.Act
	InputActionEval actx.Act

	// PolicyState is set when a DST is present; otherwise the policy sees
	// InputAction directly.
	PolicyState *statex.TrackerState

	OutputAction actx.Act
	Response     actx.Act
	Turn         int
}

func BeginTurn(in TurnInput, role statex.Role) (*TurnState, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: role=%q", contractx.ErrConfiguration, role)
	}
	return &TurnState{
		Role:        role,
		Observation: actx.Clone(in.Observation),
	}, nil
}
