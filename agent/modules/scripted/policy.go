// Package scripted replays a fixed scenario as a dialogue policy.
package scripted

import (
	"context"

	actx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/act"
	contractx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/contract"
)

// GoalKey is the session config key that overrides the scenario goal.
const GoalKey = "goal"

var byeAct = actx.Structured{actx.T("bye", "general", "none", "none")}

// Policy emits the scenario's turns in order, ignoring its input. It
// terminates after the last scripted turn and says bye if asked again.
type Policy struct {
	scenario *Scenario
	turns    []actx.Structured

	cursor     int
	last       actx.Act
	terminated bool
	goal       map[string]any
}

var (
	_ contractx.Policy               = (*Policy)(nil)
	_ contractx.SessionConfigurable  = (*Policy)(nil)
	_ contractx.Terminable           = (*Policy)(nil)
	_ contractx.RewardReporting      = (*Policy)(nil)
	_ contractx.LastActionReporting  = (*Policy)(nil)
	_ contractx.ProbabilityReporting = (*Policy)(nil)
	_ contractx.GoalReporting        = (*Policy)(nil)
	_ contractx.Diagnosable          = (*Policy)(nil)
)

func New(s *Scenario) (*Policy, error) {
	turns, err := s.Acts()
	if err != nil {
		return nil, err
	}
	p := &Policy{scenario: s, turns: turns}
	p.reset(nil)
	return p, nil
}

func (p *Policy) InitSession() error {
	p.reset(nil)
	return nil
}

func (p *Policy) InitSessionWith(cfg map[string]any) error {
	p.reset(cfg)
	return nil
}

func (p *Policy) reset(cfg map[string]any) {
	p.cursor = 0
	p.last = nil
	p.terminated = false
	p.goal = p.scenario.goal()
	if g, ok := cfg[GoalKey].(map[string]any); ok {
		p.goal = g
	}
}

func (p *Policy) Predict(ctx context.Context, in contractx.PolicyInput) (actx.Act, error) {
	if p.cursor >= len(p.turns) {
		p.terminated = true
		p.last = actx.Clone(byeAct)
		return actx.Clone(byeAct), nil
	}

	out := p.turns[p.cursor]
	p.cursor++
	if p.cursor == len(p.turns) {
		p.terminated = true
	}
	p.last = actx.Clone(out)
	return actx.Clone(out), nil
}

func (p *Policy) IsTerminated() bool {
	return p.terminated
}

// Reward is the success reward once the scenario is complete, minus a
// penalty per emitted turn.
func (p *Policy) Reward() float64 {
	r := -p.scenario.turnPenalty() * float64(p.cursor)
	if p.terminated {
		r += p.scenario.successReward()
	}
	return r
}

func (p *Policy) LastAction() actx.Act {
	return actx.Clone(p.last)
}

func (p *Policy) Prob() []float64 {
	return []float64{1}
}

func (p *Policy) Goal() map[string]any {
	return p.goal
}

func (p *Policy) InfoDict() map[string]any {
	return map[string]any{
		"scenario":  p.scenario.Name,
		"cursor":    p.cursor,
		"remaining": len(p.turns) - p.cursor,
	}
}
