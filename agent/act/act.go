// Package act defines the dialogue act exchanged between pipeline modules.
//
// An Act is either a Structured sequence of (intent, domain, slot, value)
// tuples or an opaque natural-language Utterance. Which one flows between two
// modules depends on which modules are present in the pipeline.
package act

import (
	"fmt"
	"strings"
)

// Act is a sealed union of Structured and Utterance. A nil Act means no act.
type Act interface {
	isAct()
}

// Tuple is a single (intent, domain, slot, value) dialogue act.
type Tuple struct {
	Intent string `json:"intent"`
	Domain string `json:"domain"`
	Slot   string `json:"slot"`
	Value  string `json:"value"`
}

// Structured is an ordered sequence of dialogue act tuples.
type Structured []Tuple

// Utterance is raw natural-language text.
type Utterance string

func (Structured) isAct() {}
func (Utterance) isAct()  {}

// T is shorthand for building a Tuple in the conventional (intent, domain, slot, value) order.
func T(intent, domain, slot, value string) Tuple {
	return Tuple{Intent: intent, Domain: domain, Slot: slot, Value: value}
}

// Key returns the lowercase composite "domain-intent-slot" key of the tuple.
func (t Tuple) Key() string {
	return strings.ToLower(t.Domain) + "-" + strings.ToLower(t.Intent) + "-" + strings.ToLower(t.Slot)
}

// Clone returns a deep copy of a. Structured acts get a fresh backing array.
func Clone(a Act) Act {
	switch v := a.(type) {
	case nil:
		return nil
	case Structured:
		if v == nil {
			return Structured(nil)
		}
		out := make(Structured, len(v))
		copy(out, v)
		return out
	case Utterance:
		return v
	default:
		panic(fmt.Sprintf("act: unknown act type %T", a))
	}
}

// AsStructured reports whether a is a Structured act and returns it.
func AsStructured(a Act) (Structured, bool) {
	s, ok := a.(Structured)
	return s, ok
}

// Text renders a as plain text. Structured acts are rendered as
// "intent-domain-slot-value" tuples separated by "; ".
func Text(a Act) string {
	switch v := a.(type) {
	case nil:
		return ""
	case Utterance:
		return string(v)
	case Structured:
		parts := make([]string, 0, len(v))
		for _, t := range v {
			parts = append(parts, strings.Join([]string{t.Intent, t.Domain, t.Slot, t.Value}, "-"))
		}
		return strings.Join(parts, "; ")
	default:
		return fmt.Sprint(v)
	}
}

// Equal reports whether a and b hold the same variant and content.
func Equal(a, b Act) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case Utterance:
		y, ok := b.(Utterance)
		return ok && x == y
	case Structured:
		y, ok := b.(Structured)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if x[i] != y[i] {
				return false
			}
		}
		return true
	default:
		return false
	}
}
