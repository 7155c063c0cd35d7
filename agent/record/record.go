// Package record persists simulated dialogue turns.
package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	actx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/act"
)

type Config struct {
	DSN         string        `envconfig:"DSN" split_words:"true" required:"true"`
	DialTimeout time.Duration `envconfig:"DIAL_TIMEOUT" split_words:"true" default:"5s"`
}

// Open returns a bun handle over a Postgres connection pool.
func Open(cfg Config) (*bun.DB, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	opts := []pgdriver.Option{pgdriver.WithDSN(dsn)}
	if cfg.DialTimeout > 0 {
		opts = append(opts, pgdriver.WithDialTimeout(cfg.DialTimeout))
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(opts...))
	return bun.NewDB(sqldb, pgdialect.New()), nil
}

// TurnRecord is one exchange of a simulated dialogue: the user's turn and the
// system's reply to it.
type TurnRecord struct {
	bun.BaseModel `bun:"table:dialogue_turns,alias:dt"`

	ID           string    `bun:"id,pk"`
	SessionID    string    `bun:"session_id,notnull"`
	Turn         int       `bun:"turn,notnull"`
	UserResponse string    `bun:"user_response"`
	SysResponse  string    `bun:"sys_response"`
	UserAction   string    `bun:"user_action"`
	SysAction    string    `bun:"sys_action"`
	SessionOver  bool      `bun:"session_over,notnull"`
	Reward       float64   `bun:"reward"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

// EncodeAct renders a as the JSON stored in the action columns.
func EncodeAct(a actx.Act) (string, error) {
	raw, err := json.Marshal(actx.JSON{Act: a})
	if err != nil {
		return "", fmt.Errorf("encode act: %w", err)
	}
	return string(raw), nil
}

func DecodeAct(raw string) (actx.Act, error) {
	if raw == "" {
		return nil, nil
	}
	var j actx.JSON
	if err := json.Unmarshal([]byte(raw), &j); err != nil {
		return nil, fmt.Errorf("decode act: %w", err)
	}
	return j.Act, nil
}

type Recorder interface {
	Record(ctx context.Context, rec *TurnRecord) error
}

type BunStore struct {
	db  bun.IDB
	now func() time.Time
}

var _ Recorder = (*BunStore)(nil)

func NewBunStore(db bun.IDB) (*BunStore, error) {
	if db == nil {
		return nil, errors.New("bun db is required")
	}
	return &BunStore{db: db, now: time.Now}, nil
}

func (s *BunStore) CreateSchema(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*TurnRecord)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create dialogue_turns: %w", err)
	}
	return nil
}

// Record inserts rec, filling its ID and CreatedAt when unset.
func (s *BunStore) Record(ctx context.Context, rec *TurnRecord) error {
	if rec == nil {
		return errors.New("turn record is nil")
	}
	if strings.TrimSpace(rec.SessionID) == "" {
		return errors.New("turn record session id is empty")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}

	if _, err := s.db.NewInsert().Model(rec).Exec(ctx); err != nil {
		return fmt.Errorf("insert turn record: %w", err)
	}
	return nil
}

// ListSession returns the turns of a session in order.
func (s *BunStore) ListSession(ctx context.Context, sessionID string) ([]TurnRecord, error) {
	var out []TurnRecord
	err := s.db.NewSelect().
		Model(&out).
		Where("session_id = ?", sessionID).
		Order("turn ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list turn records: %w", err)
	}
	return out, nil
}
