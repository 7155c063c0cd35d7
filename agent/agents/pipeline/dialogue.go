package pipeline

import (
	"context"
	"strconv"
	"time"

	actx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/act"
	contractx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/contract"
	statex "github.com/tanpawarit/Chative-Pipeline-Agent/agent/state"
)

const (
	inactiveAfterStart  = 10 * time.Minute
	inactiveAfterUpdate = time.Minute
)

// PolicyState is what the policy saw on a turn: the tracker state when a DST
// is configured, the input act otherwise.
type PolicyState struct {
	Tracker *statex.TrackerState
	Action  actx.Act
}

func newPolicyState(tracker *statex.TrackerState, input actx.Act) PolicyState {
	if tracker != nil {
		return PolicyState{Tracker: tracker.Clone()}
	}
	return PolicyState{Action: actx.Clone(input)}
}

func (p PolicyState) Clone() PolicyState {
	return PolicyState{Tracker: p.Tracker.Clone(), Action: actx.Clone(p.Action)}
}

// TurnInfo is the per-turn record a DialogueAgent keeps for a human-rated
// session.
type TurnInfo struct {
	Observation   actx.Act
	InputAction   actx.Act
	State         PolicyState
	OutputAction  actx.Act
	ModelResponse actx.Act
}

// Feedback is a user's rating of one system turn.
type Feedback struct {
	Text   string `json:"text"`
	IsGood bool   `json:"isGood"`
}

// DialogueAgent is the system-side agent used for human evaluation. It skips
// input scanning for the current domain and keeps per-turn histories for
// later reward assignment.
type DialogueAgent struct {
	*Agent

	TaskID   string
	Feedback map[string]Feedback

	stateHistory     []PolicyState
	actionHistory    []actx.Act
	probHistory      [][]float64
	utteranceHistory []actx.Act
	outputHistory    []actx.Act
	fundamental      []TurnInfo
	infos            []contractx.SaveRecord

	initTime   time.Time
	lastUpdate time.Time
}

func NewDialogueAgent(
	nlu contractx.NLU,
	dst contractx.DST,
	policy contractx.Policy,
	nlg contractx.NLG,
	opts ...Option,
) (*DialogueAgent, error) {
	opts = append(opts, WithScanInputAction(false), WithReturnSemanticActs(false))
	agent, err := New(nlu, dst, policy, nlg, statex.RoleSys, opts...)
	if err != nil {
		return nil, err
	}

	now := agent.now()
	return &DialogueAgent{
		Agent:      agent,
		initTime:   now,
		lastUpdate: now,
	}, nil
}

func (d *DialogueAgent) Response(ctx context.Context, observation actx.Act) (actx.Act, error) {
	out, err := d.runTurn(ctx, observation)
	if err != nil {
		return nil, err
	}

	state := newPolicyState(out.PolicyState, out.InputAction)
	d.utteranceHistory = append(d.utteranceHistory, actx.Clone(observation))
	d.stateHistory = append(d.stateHistory, state.Clone())
	if la, ok := d.policy.(contractx.LastActionReporting); ok {
		d.actionHistory = append(d.actionHistory, actx.Clone(la.LastAction()))
	} else {
		d.actionHistory = append(d.actionHistory, actx.Clone(out.OutputAction))
	}
	if p, ok := d.policy.(contractx.ProbabilityReporting); ok {
		d.probHistory = append(d.probHistory, append([]float64(nil), p.Prob()...))
	}
	d.outputHistory = append(d.outputHistory, actx.Clone(out.Response))

	d.fundamental = append(d.fundamental, TurnInfo{
		Observation:   actx.Clone(observation),
		InputAction:   actx.Clone(out.InputAction),
		State:         state,
		OutputAction:  actx.Clone(out.OutputAction),
		ModelResponse: actx.Clone(out.Response),
	})
	d.infos = append(d.infos, d.Info())
	d.lastUpdate = d.now()

	return actx.Clone(out.Response), nil
}

// Info returns the diagnostics of every module.
func (d *DialogueAgent) Info() contractx.SaveRecord {
	return d.SaveInfo()
}

// Infos returns the diagnostics recorded after each turn.
func (d *DialogueAgent) Infos() []contractx.SaveRecord {
	out := make([]contractx.SaveRecord, len(d.infos))
	for i, r := range d.infos {
		out[i] = r.Clone()
	}
	return out
}

func (d *DialogueAgent) TurnInfos() []TurnInfo {
	out := make([]TurnInfo, len(d.fundamental))
	for i, f := range d.fundamental {
		out[i] = TurnInfo{
			Observation:   actx.Clone(f.Observation),
			InputAction:   actx.Clone(f.InputAction),
			State:         f.State.Clone(),
			OutputAction:  actx.Clone(f.OutputAction),
			ModelResponse: actx.Clone(f.ModelResponse),
		}
	}
	return out
}

func (d *DialogueAgent) StateHistory() []PolicyState {
	out := make([]PolicyState, len(d.stateHistory))
	for i, s := range d.stateHistory {
		out[i] = s.Clone()
	}
	return out
}

func (d *DialogueAgent) ActionHistory() []actx.Act {
	return cloneActs(d.actionHistory)
}

func (d *DialogueAgent) ProbHistory() [][]float64 {
	out := make([][]float64, len(d.probHistory))
	for i, p := range d.probHistory {
		out[i] = append([]float64(nil), p...)
	}
	return out
}

func (d *DialogueAgent) UtteranceHistory() []actx.Act {
	return cloneActs(d.utteranceHistory)
}

func (d *DialogueAgent) OutputHistory() []actx.Act {
	return cloneActs(d.outputHistory)
}

// RetrieveReward maps Feedback onto system turns. Feedback keys are dialogue
// turn numbers counted over both speakers; key k rates system turn (k-2)/2.
// Unrated turns get a reward of 1.
func (d *DialogueAgent) RetrieveReward() []int {
	rewards := make([]int, len(d.stateHistory))
	for i := range rewards {
		rewards[i] = 1
	}
	for key, fb := range d.Feedback {
		k, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		idx := (k - 2) / 2
		if idx < 0 || idx >= len(rewards) {
			continue
		}
		if fb.IsGood {
			rewards[idx] = 1
		} else {
			rewards[idx] = 0
		}
	}
	return rewards
}

// IsInactive reports whether the session is at least ten minutes old and has
// been idle for at least a minute.
func (d *DialogueAgent) IsInactive(now time.Time) bool {
	return now.Sub(d.initTime) >= inactiveAfterStart && now.Sub(d.lastUpdate) >= inactiveAfterUpdate
}

func cloneActs(in []actx.Act) []actx.Act {
	out := make([]actx.Act, len(in))
	for i, a := range in {
		out[i] = actx.Clone(a)
	}
	return out
}
