package state

import (
	"encoding/json"
	"fmt"
	"strings"

	actx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/act"
)

// Role is the side of the dialogue an agent plays.
type Role string

const (
	RoleUser Role = "user"
	RoleSys  Role = "sys"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleSys
}

// Opponent returns the other side of the dialogue.
func (r Role) Opponent() Role {
	if r == RoleSys {
		return RoleUser
	}
	return RoleSys
}

// NullUtterance seeds the system tracker history at session start.
const NullUtterance = actx.Utterance("null")

// Turn is one [speaker, content] history entry.
type Turn struct {
	Speaker Role
	Content actx.Act
}

func (t Turn) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{string(t.Speaker), actx.JSON{Act: t.Content}})
}

func (t *Turn) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("decode history turn: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("decode history turn: got %d elements, want 2", len(pair))
	}
	var speaker string
	if err := json.Unmarshal(pair[0], &speaker); err != nil {
		return fmt.Errorf("decode history speaker: %w", err)
	}
	var content actx.JSON
	if err := json.Unmarshal(pair[1], &content); err != nil {
		return err
	}
	t.Speaker = Role(speaker)
	t.Content = content.Act
	return nil
}

func cloneTurns(in []Turn) []Turn {
	if in == nil {
		return nil
	}
	out := make([]Turn, len(in))
	for i, t := range in {
		out[i] = Turn{Speaker: t.Speaker, Content: actx.Clone(t.Content)}
	}
	return out
}

/* ------------------------------ Belief state ----------------------------- */

// BookState is the booking section of a domain belief.
type BookState struct {
	Booked []map[string]string `json:"booked"`
	Slots  map[string]string   `json:"slots,omitempty"`
}

// DomainBelief holds the accumulated slot fills for one domain.
type DomainBelief struct {
	Book BookState         `json:"book"`
	Semi map[string]string `json:"semi,omitempty"`
}

// BeliefState maps a lowercase domain name to its belief.
type BeliefState map[string]*DomainBelief

var defaultDomains = map[string][]string{
	"attraction": {"type", "name", "area"},
	"hospital":   {"department"},
	"hotel":      {"name", "area", "parking", "pricerange", "stars", "internet", "type"},
	"police":     {},
	"restaurant": {"food", "pricerange", "name", "area"},
	"taxi":       {"leaveAt", "destination", "departure", "arriveBy"},
	"train":      {"leaveAt", "destination", "day", "arriveBy", "departure"},
}

var defaultBookSlots = map[string][]string{
	"hotel":      {"people", "day", "stay"},
	"restaurant": {"people", "day", "time"},
	"train":      {"people"},
}

// DefaultBeliefState returns an empty belief state over the MultiWOZ domains.
func DefaultBeliefState() BeliefState {
	bs := make(BeliefState, len(defaultDomains))
	for domain, slots := range defaultDomains {
		d := &DomainBelief{
			Book: BookState{Booked: []map[string]string{}},
			Semi: make(map[string]string, len(slots)),
		}
		for _, s := range slots {
			d.Semi[s] = ""
		}
		if book := defaultBookSlots[domain]; len(book) > 0 {
			d.Book.Slots = make(map[string]string, len(book))
			for _, s := range book {
				d.Book.Slots[s] = ""
			}
		}
		bs[domain] = d
	}
	return bs
}

// Domain returns the belief for domain, creating an empty entry if absent.
func (b BeliefState) Domain(domain string) *DomainBelief {
	key := strings.ToLower(domain)
	d, ok := b[key]
	if !ok || d == nil {
		d = &DomainBelief{
			Book: BookState{Booked: []map[string]string{}},
			Semi: map[string]string{},
		}
		b[key] = d
	}
	return d
}

// Booked returns the booked entries of domain, or nil when the domain is unknown.
func (b BeliefState) Booked(domain string) []map[string]string {
	d, ok := b[strings.ToLower(domain)]
	if !ok || d == nil {
		return nil
	}
	return d.Book.Booked
}

func (b BeliefState) Clone() BeliefState {
	if b == nil {
		return nil
	}
	out := make(BeliefState, len(b))
	for k, d := range b {
		if d == nil {
			out[k] = nil
			continue
		}
		cp := &DomainBelief{
			Book: BookState{Slots: cloneStrMap(d.Book.Slots)},
			Semi: cloneStrMap(d.Semi),
		}
		if d.Book.Booked != nil {
			cp.Book.Booked = make([]map[string]string, len(d.Book.Booked))
			for i, m := range d.Book.Booked {
				cp.Book.Booked[i] = cloneStrMap(m)
			}
		}
		out[k] = cp
	}
	return out
}

func cloneStrMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

/* ------------------------------ Tracker state ---------------------------- */

// TrackerState is the dialogue state owned by a DST module. The pipeline agent
// writes to the same instance through the setter methods below.
type TrackerState struct {
	History      []Turn
	UserAction   actx.Act
	SystemAction actx.Act
	BeliefState  BeliefState
	RequestState map[string]map[string]string
	Terminated   bool
}

// NewTrackerState returns an empty state over the default belief domains.
func NewTrackerState() *TrackerState {
	return &TrackerState{
		History:      []Turn{},
		BeliefState:  DefaultBeliefState(),
		RequestState: map[string]map[string]string{},
	}
}

func (s *TrackerState) AppendHistory(speaker Role, content actx.Act) {
	s.History = append(s.History, Turn{Speaker: speaker, Content: content})
}

func (s *TrackerState) SetUserAction(a actx.Act) {
	s.UserAction = a
}

func (s *TrackerState) SetSystemAction(a actx.Act) {
	s.SystemAction = a
}

func (s *TrackerState) SetTerminated(v bool) {
	s.Terminated = v
}

// MarkBooked overwrites the booked entries of domain with a single {slot: value}.
func (s *TrackerState) MarkBooked(domain, slot, value string) {
	if s.BeliefState == nil {
		s.BeliefState = BeliefState{}
	}
	d := s.BeliefState.Domain(domain)
	d.Book.Booked = []map[string]string{{strings.ToLower(slot): value}}
}

// Clone returns a deep copy of the state.
func (s *TrackerState) Clone() *TrackerState {
	if s == nil {
		return nil
	}
	out := &TrackerState{
		History:      cloneTurns(s.History),
		UserAction:   actx.Clone(s.UserAction),
		SystemAction: actx.Clone(s.SystemAction),
		BeliefState:  s.BeliefState.Clone(),
		Terminated:   s.Terminated,
	}
	if s.RequestState != nil {
		out.RequestState = make(map[string]map[string]string, len(s.RequestState))
		for k, v := range s.RequestState {
			out.RequestState[k] = cloneStrMap(v)
		}
	}
	return out
}

// ReplaceWith overwrites s in place with a deep copy of other.
func (s *TrackerState) ReplaceWith(other *TrackerState) {
	if other == nil {
		*s = *NewTrackerState()
		return
	}
	*s = *other.Clone()
}

type trackerStateJSON struct {
	History      []Turn                       `json:"history"`
	UserAction   actx.JSON                    `json:"user_action"`
	SystemAction actx.JSON                    `json:"system_action"`
	BeliefState  BeliefState                  `json:"belief_state"`
	RequestState map[string]map[string]string `json:"request_state,omitempty"`
	Terminated   bool                         `json:"terminated"`
}

func (s TrackerState) MarshalJSON() ([]byte, error) {
	return json.Marshal(trackerStateJSON{
		History:      s.History,
		UserAction:   actx.JSON{Act: s.UserAction},
		SystemAction: actx.JSON{Act: s.SystemAction},
		BeliefState:  s.BeliefState,
		RequestState: s.RequestState,
		Terminated:   s.Terminated,
	})
}

func (s *TrackerState) UnmarshalJSON(data []byte) error {
	var raw trackerStateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = TrackerState{
		History:      raw.History,
		UserAction:   raw.UserAction.Act,
		SystemAction: raw.SystemAction.Act,
		BeliefState:  raw.BeliefState,
		RequestState: raw.RequestState,
		Terminated:   raw.Terminated,
	}
	return nil
}
