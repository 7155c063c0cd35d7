// Package ruledst is a rule-based dialogue state tracker over structured acts.
package ruledst

import (
	"context"
	"fmt"
	"strings"

	actx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/act"
	contractx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/contract"
	statex "github.com/tanpawarit/Chative-Pipeline-Agent/agent/state"
)

const requestedValue = "?"

// Tracker fills the belief state from inform acts and records request acts.
// The TrackerState pointer stays the same for the lifetime of the Tracker.
type Tracker struct {
	st      *statex.TrackerState
	updates int
	filled  int
}

var (
	_ contractx.DST         = (*Tracker)(nil)
	_ contractx.Diagnosable = (*Tracker)(nil)
)

func New() *Tracker {
	return &Tracker{st: statex.NewTrackerState()}
}

func (t *Tracker) InitSession() error {
	t.st.ReplaceWith(nil)
	t.updates = 0
	t.filled = 0
	return nil
}

func (t *Tracker) State() *statex.TrackerState {
	return t.st
}

// Update applies action to the belief state. A nil action is a no-op.
func (t *Tracker) Update(ctx context.Context, action actx.Act) (*statex.TrackerState, error) {
	switch v := action.(type) {
	case nil:
		return t.st, nil
	case actx.Utterance:
		return nil, fmt.Errorf("%w: rule tracker needs structured acts", contractx.ErrModality)
	case actx.Structured:
		t.updates++
		for _, tuple := range v {
			t.apply(tuple)
		}
		return t.st, nil
	default:
		return nil, fmt.Errorf("%w: unknown act %T", contractx.ErrValidation, action)
	}
}

func (t *Tracker) apply(tuple actx.Tuple) {
	domain := strings.ToLower(tuple.Domain)
	switch domain {
	case "general", "booking", "":
		return
	}

	switch strings.ToLower(tuple.Intent) {
	case "inform":
		if strings.EqualFold(tuple.Value, "none") || tuple.Value == "" {
			return
		}
		belief := t.st.BeliefState.Domain(domain)
		if key, ok := matchKey(belief.Book.Slots, tuple.Slot); ok {
			belief.Book.Slots[key] = tuple.Value
		} else {
			key, _ := matchKey(belief.Semi, tuple.Slot)
			if belief.Semi == nil {
				belief.Semi = map[string]string{}
			}
			belief.Semi[key] = tuple.Value
		}
		t.filled++
		if req := t.st.RequestState[domain]; req != nil {
			delete(req, strings.ToLower(tuple.Slot))
		}
	case "request":
		if t.st.RequestState == nil {
			t.st.RequestState = map[string]map[string]string{}
		}
		req := t.st.RequestState[domain]
		if req == nil {
			req = map[string]string{}
			t.st.RequestState[domain] = req
		}
		req[strings.ToLower(tuple.Slot)] = requestedValue
	}
}

// matchKey finds slot in m ignoring case. It returns the lowercased slot when
// there is no match.
func matchKey(m map[string]string, slot string) (string, bool) {
	for k := range m {
		if strings.EqualFold(k, slot) {
			return k, true
		}
	}
	return strings.ToLower(slot), false
}

func (t *Tracker) InfoDict() map[string]any {
	return map[string]any{
		"updates":      t.updates,
		"slots_filled": t.filled,
	}
}
