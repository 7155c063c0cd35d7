package state

import (
	"strings"

	actx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/act"
)

// Composite "domain-intent-slot" keys that carry a booking side effect.
const (
	KeyBookingBookRef      = "booking-book-ref"
	KeyTrainOfferBookedRef = "train-offerbooked-ref"
	KeyTrainInformRef      = "train-inform-ref"
	KeyTaxiInformCar       = "taxi-inform-car"
)

var bookableDomains = map[string]bool{
	"hotel":      true,
	"restaurant": true,
	"train":      true,
}

// DomainTracker remembers the last concrete domain mentioned in the session.
// "general" and "booking" never become the current domain.
type DomainTracker struct {
	current string
}

func (d *DomainTracker) Current() string {
	return d.current
}

func (d *DomainTracker) Reset() {
	d.current = ""
}

// Set restores a previously observed domain.
func (d *DomainTracker) Set(domain string) {
	d.current = domain
}

// Observe updates the current domain from one tuple. The stored value keeps
// the original casing.
func (d *DomainTracker) Observe(t actx.Tuple) {
	switch strings.ToLower(t.Domain) {
	case "general", "booking":
		return
	}
	d.current = t.Domain
}

// ObserveAll applies Observe to every tuple in order.
func (d *DomainTracker) ObserveAll(acts actx.Structured) {
	for _, t := range acts {
		d.Observe(t)
	}
}

// ApplyBookingRule applies the booking rule table for a single tuple given the
// current domain. It reports whether the belief state was written.
func ApplyBookingRule(st *TrackerState, t actx.Tuple, currentDomain string) bool {
	switch t.Key() {
	case KeyBookingBookRef:
		if currentDomain == "" || !bookableDomains[strings.ToLower(currentDomain)] {
			return false
		}
		st.MarkBooked(currentDomain, t.Slot, t.Value)
		return true
	case KeyTrainOfferBookedRef, KeyTrainInformRef:
		st.MarkBooked("train", t.Slot, t.Value)
		return true
	case KeyTaxiInformCar:
		st.MarkBooked("taxi", t.Slot, t.Value)
		return true
	default:
		return false
	}
}

// Reconcile keeps the belief state consistent with the booking side effects of
// a system turn. When scanInput is set the input act's domains are observed
// first; a non-structured input falls back to the tracker's stored user action.
// Output tuples update the current domain before their own rule is applied.
// Non-structured output acts leave the belief state untouched.
func Reconcile(st *TrackerState, domains *DomainTracker, input, output actx.Act, scanInput bool) int {
	if scanInput {
		if _, ok := actx.AsStructured(input); !ok {
			input = st.UserAction
		}
		if in, ok := actx.AsStructured(input); ok {
			domains.ObserveAll(in)
		}
	}

	out, ok := actx.AsStructured(output)
	if !ok {
		return 0
	}

	applied := 0
	for _, t := range out {
		domains.Observe(t)
		if ApplyBookingRule(st, t, domains.Current()) {
			applied++
		}
	}
	return applied
}
