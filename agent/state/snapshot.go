package state

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNilSnapshot   = errors.New("snapshot is nil")
	ErrInvalidRole   = errors.New("invalid role")
	ErrNegativeTurns = errors.New("turn count is negative")
)

// Snapshot captures everything an agent needs to resume a session: its own
// history log, the tracker state of its DST and the session scalars.
type Snapshot struct {
	SessionID     string        `json:"session_id"`
	Role          Role          `json:"role"`
	History       []Turn        `json:"history"`
	Tracker       *TrackerState `json:"tracker,omitempty"`
	CurrentDomain string        `json:"current_domain,omitempty"`
	Turn          int           `json:"turn"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (s *Snapshot) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

func (s *Snapshot) Validate() error {
	if s == nil {
		return ErrNilSnapshot
	}
	if !s.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, s.Role)
	}
	if s.Turn < 0 {
		return ErrNegativeTurns
	}
	return nil
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	return &Snapshot{
		SessionID:     s.SessionID,
		Role:          s.Role,
		History:       cloneTurns(s.History),
		Tracker:       s.Tracker.Clone(),
		CurrentDomain: s.CurrentDomain,
		Turn:          s.Turn,
		UpdatedAt:     s.UpdatedAt,
	}
}
