package state

import (
	actx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/act"
)

// HistoryLog is the agent-owned, append-only turn history used to build NLU
// context windows.
type HistoryLog struct {
	entries []Turn
}

func (h *HistoryLog) Append(speaker Role, content actx.Act) {
	h.entries = append(h.entries, Turn{Speaker: speaker, Content: content})
}

func (h *HistoryLog) Len() int {
	return len(h.entries)
}

// Reset clears the log.
func (h *HistoryLog) Reset() {
	h.entries = nil
}

// Context returns the content of every entry except the most recent one.
func (h *HistoryLog) Context() []string {
	if len(h.entries) <= 1 {
		return []string{}
	}
	out := make([]string, 0, len(h.entries)-1)
	for _, t := range h.entries[:len(h.entries)-1] {
		out = append(out, actx.Text(t.Content))
	}
	return out
}

// Entries returns a deep copy of the log.
func (h *HistoryLog) Entries() []Turn {
	out := cloneTurns(h.entries)
	if out == nil {
		return []Turn{}
	}
	return out
}

// Replace overwrites the log with a deep copy of entries.
func (h *HistoryLog) Replace(entries []Turn) {
	h.entries = cloneTurns(entries)
}
