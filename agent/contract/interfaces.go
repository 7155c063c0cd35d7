package contract

import (
	"context"

	actx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/act"
	statex "github.com/tanpawarit/Chative-Pipeline-Agent/agent/state"
)

// Module is the lifecycle shared by every pipeline component.
type Module interface {
	InitSession() error
}

// NLU turns an utterance into a dialogue act. Implementations must not mutate
// context.
type NLU interface {
	Module
	Predict(ctx context.Context, utterance string, context []string) (actx.Act, error)
}

// DST owns a TrackerState and updates it from an act. The returned pointer
// may be the live state; callers clone before handing it on.
type DST interface {
	Module
	Update(ctx context.Context, action actx.Act) (*statex.TrackerState, error)
	State() *statex.TrackerState
}

type Policy interface {
	Module
	Predict(ctx context.Context, in PolicyInput) (actx.Act, error)
}

type NLG interface {
	Module
	Generate(ctx context.Context, action actx.Act) (string, error)
}

/* ------------------------- Optional capabilities ------------------------ */

// Diagnosable modules expose per-turn diagnostics for SaveRecords.
type Diagnosable interface {
	InfoDict() map[string]any
}

// LastActionReporting policies expose the raw action they chose before any
// post-processing.
type LastActionReporting interface {
	LastAction() actx.Act
}

type ProbabilityReporting interface {
	Prob() []float64
}

type Terminable interface {
	IsTerminated() bool
}

type RewardReporting interface {
	Reward() float64
}

// SessionConfigurable policies accept keyword configuration at session start.
// When implemented it is called instead of InitSession.
type SessionConfigurable interface {
	InitSessionWith(cfg map[string]any) error
}

// GoalReporting user policies expose the goal they pursue for evaluation.
type GoalReporting interface {
	Goal() map[string]any
}

// Evaluator scores a simulated dialogue. Implementations live outside this
// module.
type Evaluator interface {
	AddGoal(goal map[string]any)
	AddSysAct(action actx.Act, belief statex.BeliefState)
	AddUsrAct(action actx.Act)
	Reward() float64
}
