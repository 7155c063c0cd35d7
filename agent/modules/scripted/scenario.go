package scripted

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	actx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/act"
)

var ErrEmptyScenario = errors.New("scenario has no turns")

const (
	defaultSuccessReward = 40
	defaultTurnPenalty   = 1
)

// Scenario is a scripted side of a dialogue. Each turn is a list of
// [intent, domain, slot, value] rows:
//
//	name: book-taxi
//	goal:
//	  taxi: {destination: museum}
//	turns:
//	  - [[Inform, Taxi, Destination, museum]]
//	  - [[bye, general, none, none]]
type Scenario struct {
	Name          string                       `yaml:"name"`
	Goal          map[string]map[string]string `yaml:"goal"`
	Turns         [][][]string                 `yaml:"turns"`
	SuccessReward *float64                     `yaml:"success_reward,omitempty"`
	TurnPenalty   *float64                     `yaml:"turn_penalty,omitempty"`
}

func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(raw)
}

func ParseScenario(raw []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if _, err := s.Acts(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Acts converts the scripted turns into structured acts.
func (s *Scenario) Acts() ([]actx.Structured, error) {
	if s == nil || len(s.Turns) == 0 {
		return nil, ErrEmptyScenario
	}
	out := make([]actx.Structured, 0, len(s.Turns))
	for i, turn := range s.Turns {
		acts := make(actx.Structured, 0, len(turn))
		for j, row := range turn {
			if len(row) != 4 {
				return nil, fmt.Errorf("scenario %q turn %d act %d: got %d fields, want 4", s.Name, i, j, len(row))
			}
			acts = append(acts, actx.T(row[0], row[1], row[2], row[3]))
		}
		out = append(out, acts)
	}
	return out, nil
}

func (s *Scenario) successReward() float64 {
	if s.SuccessReward == nil {
		return defaultSuccessReward
	}
	return *s.SuccessReward
}

func (s *Scenario) turnPenalty() float64 {
	if s.TurnPenalty == nil {
		return defaultTurnPenalty
	}
	return *s.TurnPenalty
}

func (s *Scenario) goal() map[string]any {
	out := make(map[string]any, len(s.Goal))
	for domain, slots := range s.Goal {
		cp := make(map[string]string, len(slots))
		for k, v := range slots {
			cp[k] = v
		}
		out[domain] = cp
	}
	return out
}
