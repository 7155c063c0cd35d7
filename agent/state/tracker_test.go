package state

import (
	"encoding/json"
	"testing"

	actx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/act"
)

func TestTrackerStateCloneIsDeep(t *testing.T) {
	t.Parallel()

	st := NewTrackerState()
	st.AppendHistory(RoleUser, actx.Utterance("hi"))
	st.SetUserAction(actx.Structured{actx.T("Inform", "Hotel", "Area", "north")})
	st.MarkBooked("hotel", "Ref", "X1")
	st.RequestState["hotel"] = map[string]string{"phone": "?"}

	cp := st.Clone()
	cp.BeliefState.Domain("hotel").Book.Booked[0]["ref"] = "changed"
	cp.RequestState["hotel"]["phone"] = "changed"
	cp.UserAction.(actx.Structured)[0].Value = "south"
	cp.AppendHistory(RoleSys, actx.Utterance("extra"))

	if st.BeliefState.Booked("hotel")[0]["ref"] != "X1" {
		t.Fatal("booking mutated through clone")
	}
	if st.RequestState["hotel"]["phone"] != "?" {
		t.Fatal("request state mutated through clone")
	}
	if st.UserAction.(actx.Structured)[0].Value != "north" {
		t.Fatal("user action mutated through clone")
	}
	if len(st.History) != 1 {
		t.Fatalf("history len = %d, want 1", len(st.History))
	}
}

func TestTrackerStateReplaceWithKeepsPointer(t *testing.T) {
	t.Parallel()

	st := NewTrackerState()
	ptr := st

	other := NewTrackerState()
	other.SetTerminated(true)
	other.MarkBooked("taxi", "car", "BMW")

	st.ReplaceWith(other)
	if ptr != st || !ptr.Terminated {
		t.Fatal("ReplaceWith must overwrite in place")
	}
	other.MarkBooked("taxi", "car", "Audi")
	if st.BeliefState.Booked("taxi")[0]["car"] != "BMW" {
		t.Fatal("ReplaceWith must copy")
	}

	st.ReplaceWith(nil)
	if st.Terminated || len(st.History) != 0 {
		t.Fatalf("ReplaceWith(nil) = %+v, want fresh state", st)
	}
}

func TestTrackerStateJSON(t *testing.T) {
	t.Parallel()

	st := NewTrackerState()
	st.AppendHistory(RoleSys, NullUtterance)
	st.SetSystemAction(actx.Structured{actx.T("Request", "Taxi", "Leave", "?")})

	raw, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var back TrackerState
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back.UserAction != nil {
		t.Fatalf("UserAction = %#v, want nil", back.UserAction)
	}
	if !actx.Equal(back.SystemAction, st.SystemAction) {
		t.Fatalf("SystemAction = %#v", back.SystemAction)
	}
	if len(back.History) != 1 || back.History[0].Speaker != RoleSys {
		t.Fatalf("History = %#v", back.History)
	}
	if _, ok := back.BeliefState["police"]; !ok {
		t.Fatal("belief state lost police domain")
	}
}

func TestTurnJSONShape(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(Turn{Speaker: RoleUser, Content: actx.Utterance("hello")})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(raw) != `["user","hello"]` {
		t.Fatalf("Marshal() = %s", raw)
	}

	var bad Turn
	if err := json.Unmarshal([]byte(`["user"]`), &bad); err == nil {
		t.Fatal("expected error for one-element turn")
	}
}

func TestRole(t *testing.T) {
	t.Parallel()

	if !RoleSys.Valid() || !RoleUser.Valid() || Role("bot").Valid() {
		t.Fatal("unexpected Valid() result")
	}
	if RoleSys.Opponent() != RoleUser || RoleUser.Opponent() != RoleSys {
		t.Fatal("unexpected Opponent() result")
	}
}

func TestHistoryLogContext(t *testing.T) {
	t.Parallel()

	var h HistoryLog
	if got := h.Context(); got == nil || len(got) != 0 {
		t.Fatalf("Context() on empty log = %#v", got)
	}

	h.Append(RoleUser, actx.Utterance("I need a hotel"))
	h.Append(RoleSys, actx.Structured{actx.T("Request", "Hotel", "Area", "?")})
	h.Append(RoleUser, actx.Utterance("north"))

	ctx := h.Context()
	if len(ctx) != 2 || ctx[0] != "I need a hotel" || ctx[1] != "Request-Hotel-Area-?" {
		t.Fatalf("Context() = %#v", ctx)
	}

	entries := h.Entries()
	entries[1].Content.(actx.Structured)[0].Value = "changed"
	if h.Entries()[1].Content.(actx.Structured)[0].Value != "?" {
		t.Fatal("Entries() must return a deep copy")
	}

	h.Reset()
	if h.Len() != 0 {
		t.Fatalf("Len() after Reset = %d", h.Len())
	}
}
