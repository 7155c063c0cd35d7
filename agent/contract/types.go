package contract

import (
	actx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/act"
	statex "github.com/tanpawarit/Chative-Pipeline-Agent/agent/state"
)

// ModuleKind names a pipeline slot.
type ModuleKind string

const (
	ModuleNLU    ModuleKind = "nlu"
	ModuleDST    ModuleKind = "dst"
	ModulePolicy ModuleKind = "policy"
	ModuleNLG    ModuleKind = "nlg"
)

// ModuleKinds lists the pipeline slots in execution order.
var ModuleKinds = []ModuleKind{ModuleNLU, ModuleDST, ModulePolicy, ModuleNLG}

// PolicyInput carries the tracker state when a DST is present, otherwise the
// input act.
type PolicyInput struct {
	State  *statex.TrackerState
	Action actx.Act
}

// SaveRecord maps each module slot to its diagnostics. A nil entry means the
// module is absent or not Diagnosable.
type SaveRecord map[ModuleKind]map[string]any

func (r SaveRecord) Clone() SaveRecord {
	if r == nil {
		return nil
	}
	out := make(SaveRecord, len(r))
	for k, v := range r {
		if v == nil {
			out[k] = nil
			continue
		}
		cp := make(map[string]any, len(v))
		for kk, vv := range v {
			cp[kk] = vv
		}
		out[k] = cp
	}
	return out
}
