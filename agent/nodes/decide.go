package nodes

import (
	"context"
	"fmt"

	actx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/act"
	contractx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/contract"
)

func Decide(ctx context.Context, in *TurnState, policy contractx.Policy) (*TurnState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: turn state is nil", contractx.ErrValidation)
	}
	if policy == nil {
		return nil, fmt.Errorf("%w: policy is required", contractx.ErrConfiguration)
	}

	req := contractx.PolicyInput{State: in.PolicyState}
	if in.PolicyState == nil {
		req.Action = actx.Clone(in.InputAction)
	}

	out, err := policy.Predict(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("decide: %w", err)
	}
	in.OutputAction = actx.Clone(out)
	return in, nil
}
