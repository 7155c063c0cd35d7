package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	actx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/act"
)

func testSnapshot(sessionID string) *Snapshot {
	tracker := NewTrackerState()
	tracker.AppendHistory(RoleSys, NullUtterance)
	tracker.AppendHistory(RoleUser, actx.Utterance("I need a taxi"))
	tracker.SetUserAction(actx.Structured{actx.T("inform", "taxi", "destination", "museum")})
	tracker.MarkBooked("taxi", "car", "BMW")

	return &Snapshot{
		SessionID: sessionID,
		Role:      RoleSys,
		History: []Turn{
			{Speaker: RoleUser, Content: actx.Utterance("I need a taxi")},
		},
		Tracker:       tracker,
		CurrentDomain: "Taxi",
		Turn:          1,
		UpdatedAt:     time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestStoreKey(t *testing.T) {
	t.Parallel()

	got, err := storeKey(defaultStoreKeyPrefix, "abc")
	if err != nil {
		t.Fatalf("storeKey() error = %v", err)
	}
	if got != "pipeline:snapshot:abc" {
		t.Fatalf("storeKey() = %q, want %q", got, "pipeline:snapshot:abc")
	}
}

func TestStoreKeyEmptySession(t *testing.T) {
	t.Parallel()

	_, err := storeKey(defaultStoreKeyPrefix, "   ")
	if !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("storeKey() error = %v, want ErrInvalidSession", err)
	}
}

func TestUpstashRedisStoreSave(t *testing.T) {
	t.Parallel()

	const wantKey = "pipeline:snapshot:session-1"
	var gotCommand []any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Errorf("Authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotCommand); err != nil {
			t.Errorf("decode command: %v", err)
		}
		fmt.Fprint(w, `{"result":"OK"}`)
	}))
	t.Cleanup(server.Close)

	store, err := NewUpstashRedisStore(
		UpstashRedisConfig{URL: server.URL, Token: "token"},
		WithHTTPClient(server.Client()),
		WithTTL(0),
	)
	if err != nil {
		t.Fatalf("NewUpstashRedisStore() error = %v", err)
	}

	if err := store.Save(context.Background(), testSnapshot("session-1")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if len(gotCommand) != 3 {
		t.Fatalf("unexpected command: %#v", gotCommand)
	}
	if gotCommand[0] != "SET" {
		t.Fatalf("command[0] = %v, want SET", gotCommand[0])
	}
	if gotCommand[1] != wantKey {
		t.Fatalf("command[1] = %v, want %s", gotCommand[1], wantKey)
	}
}

func TestUpstashRedisStoreSaveAddsExpiry(t *testing.T) {
	t.Parallel()

	var gotCommand []any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		_ = json.NewDecoder(r.Body).Decode(&gotCommand)
		fmt.Fprint(w, `{"result":"OK"}`)
	}))
	t.Cleanup(server.Close)

	store, err := NewUpstashRedisStore(
		UpstashRedisConfig{URL: server.URL, Token: "token"},
		WithHTTPClient(server.Client()),
		WithTTL(1500*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("NewUpstashRedisStore() error = %v", err)
	}
	if err := store.Save(context.Background(), testSnapshot("s")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if len(gotCommand) != 5 || gotCommand[3] != "EX" {
		t.Fatalf("unexpected command: %#v", gotCommand)
	}
	// JSON numbers decode as float64.
	if gotCommand[4] != float64(2) {
		t.Fatalf("expiry = %v, want 2", gotCommand[4])
	}
}

func TestUpstashRedisStoreLoad(t *testing.T) {
	t.Parallel()

	seed := testSnapshot("session-2")
	payload, err := json.Marshal(seed)
	if err != nil {
		t.Fatalf("marshal seed: %v", err)
	}
	encoded, err := json.Marshal(string(payload))
	if err != nil {
		t.Fatalf("marshal encoded seed: %v", err)
	}

	var gotCommand []any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		_ = json.NewDecoder(r.Body).Decode(&gotCommand)
		fmt.Fprintf(w, `{"result":%s}`, encoded)
	}))
	t.Cleanup(server.Close)

	store, err := NewUpstashRedisStore(
		UpstashRedisConfig{URL: server.URL, Token: "token"},
		WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("NewUpstashRedisStore() error = %v", err)
	}

	snap, err := store.Load(context.Background(), "session-2")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if gotCommand[0] != "GET" || gotCommand[1] != "pipeline:snapshot:session-2" {
		t.Fatalf("unexpected command: %#v", gotCommand)
	}
	if snap.SessionID != "session-2" || snap.CurrentDomain != "Taxi" || snap.Turn != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	booked := snap.Tracker.BeliefState.Booked("taxi")
	if len(booked) != 1 || booked[0]["car"] != "BMW" {
		t.Fatalf("unexpected taxi booking: %#v", booked)
	}
	if !actx.Equal(snap.Tracker.UserAction, seed.Tracker.UserAction) {
		t.Fatalf("user action = %#v, want %#v", snap.Tracker.UserAction, seed.Tracker.UserAction)
	}
	if len(snap.Tracker.History) != 2 || snap.Tracker.History[0].Content != NullUtterance {
		t.Fatalf("unexpected tracker history: %#v", snap.Tracker.History)
	}
}

func TestUpstashRedisStoreLoadNotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":null}`)
	}))
	t.Cleanup(server.Close)

	store, err := NewUpstashRedisStore(
		UpstashRedisConfig{URL: server.URL, Token: "token"},
		WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("NewUpstashRedisStore() error = %v", err)
	}

	_, err = store.Load(context.Background(), "missing")
	if !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("Load() error = %v, want ErrStateNotFound", err)
	}
}

func TestUpstashRedisStoreDelete(t *testing.T) {
	t.Parallel()

	var gotCommand []any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		_ = json.NewDecoder(r.Body).Decode(&gotCommand)
		fmt.Fprint(w, `{"result":1}`)
	}))
	t.Cleanup(server.Close)

	store, err := NewUpstashRedisStore(
		UpstashRedisConfig{URL: server.URL, Token: "token"},
		WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("NewUpstashRedisStore() error = %v", err)
	}

	if err := store.Delete(context.Background(), "session-3"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if gotCommand[0] != "DEL" || gotCommand[1] != "pipeline:snapshot:session-3" {
		t.Fatalf("unexpected command: %#v", gotCommand)
	}
}

func TestUpstashRedisStoreRESTError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":"WRONGPASS"}`)
	}))
	t.Cleanup(server.Close)

	store, err := NewUpstashRedisStore(
		UpstashRedisConfig{URL: server.URL, Token: "token"},
		WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("NewUpstashRedisStore() error = %v", err)
	}
	if err := store.Delete(context.Background(), "s"); err == nil || err.Error() != "WRONGPASS" {
		t.Fatalf("Delete() error = %v, want WRONGPASS", err)
	}
}

func TestUpstashRedisStoreSaveRejectsInvalidSnapshot(t *testing.T) {
	t.Parallel()

	store, err := NewUpstashRedisStore(UpstashRedisConfig{URL: "http://localhost:1", Token: "token"})
	if err != nil {
		t.Fatalf("NewUpstashRedisStore() error = %v", err)
	}

	if err := store.Save(context.Background(), nil); !errors.Is(err, ErrNilSnapshot) {
		t.Fatalf("Save(nil) error = %v, want ErrNilSnapshot", err)
	}
	bad := testSnapshot("s")
	bad.Role = "robot"
	if err := store.Save(context.Background(), bad); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("Save(bad role) error = %v, want ErrInvalidRole", err)
	}
}

func TestNewUpstashRedisStoreValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewUpstashRedisStore(UpstashRedisConfig{Token: "x"}); err == nil {
		t.Fatal("expected error for missing url")
	}
	if _, err := NewUpstashRedisStore(UpstashRedisConfig{URL: "http://x"}); err == nil {
		t.Fatal("expected error for missing token")
	}
	if _, err := NewUpstashRedisStore(UpstashRedisConfig{URL: "http://x", Token: "t"}, WithTTL(-time.Second)); err == nil {
		t.Fatal("expected error for negative ttl")
	}
}
