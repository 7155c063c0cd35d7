// Package session simulates a dialogue between a user agent and a system
// agent.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	actx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/act"
	"github.com/tanpawarit/Chative-Pipeline-Agent/agent/agents/pipeline"
	contractx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/contract"
	"github.com/tanpawarit/Chative-Pipeline-Agent/agent/record"
	statex "github.com/tanpawarit/Chative-Pipeline-Agent/agent/state"
	logx "github.com/tanpawarit/Chative-Pipeline-Agent/pkg/logger"
)

// Publisher delivers a completion message; *qstash.Client satisfies it.
type Publisher interface {
	Publish(ctx context.Context, destination string, body []byte) (string, error)
}

type Option func(*BiSession)

func WithEvaluator(e contractx.Evaluator) Option {
	return func(s *BiSession) {
		s.evaluator = e
	}
}

func WithRecorder(r record.Recorder) Option {
	return func(s *BiSession) {
		s.recorder = r
	}
}

// WithStore checkpoints both agents after every turn.
func WithStore(store statex.Store) Option {
	return func(s *BiSession) {
		s.store = store
	}
}

// WithNotifier publishes a Summary to destination once the user side
// terminates.
func WithNotifier(p Publisher, destination string) Option {
	return func(s *BiSession) {
		s.publisher = p
		s.destination = destination
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *BiSession) {
		s.logger = logger
	}
}

// WithSessionID keeps the id used for turn records and the summary, for a
// process resuming an earlier session.
func WithSessionID(id string) Option {
	return func(s *BiSession) {
		if id != "" {
			s.id = id
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *BiSession) {
		if now != nil {
			s.now = now
		}
	}
}

// TurnResult is the outcome of one simulated exchange.
type TurnResult struct {
	SysResponse  actx.Act
	UserResponse actx.Act
	SessionOver  bool
	Reward       float64
}

// Summary is the completion message sent through the notifier.
type Summary struct {
	SessionID     string    `json:"session_id"`
	SysSessionID  string    `json:"sys_session_id"`
	UserSessionID string    `json:"user_session_id"`
	Turns         int       `json:"turns"`
	Reward        float64   `json:"reward"`
	FinishedAt    time.Time `json:"finished_at"`
}

// BiSession drives a user agent against a system agent. The user speaks first
// on every turn.
type BiSession struct {
	sys  *pipeline.Agent
	user *pipeline.Agent

	evaluator   contractx.Evaluator
	recorder    record.Recorder
	store       statex.Store
	publisher   Publisher
	destination string

	id      string
	turn    int
	history statex.HistoryLog

	logger zerolog.Logger
	now    func() time.Time
}

func New(sys, user *pipeline.Agent, opts ...Option) (*BiSession, error) {
	if sys == nil || user == nil {
		return nil, fmt.Errorf("%w: both agents are required", contractx.ErrConfiguration)
	}
	if sys.Role() != statex.RoleSys {
		return nil, fmt.Errorf("%w: system agent has role %q", contractx.ErrConfiguration, sys.Role())
	}
	if user.Role() != statex.RoleUser {
		return nil, fmt.Errorf("%w: user agent has role %q", contractx.ErrConfiguration, user.Role())
	}

	s := &BiSession{
		sys:    sys,
		user:   user,
		id:     uuid.NewString(),
		logger: logx.Sub("session"),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

func (s *BiSession) ID() string {
	return s.id
}

func (s *BiSession) Turn() int {
	return s.turn
}

// DialogHistory returns the exchanged responses, user first on each turn.
func (s *BiSession) DialogHistory() []statex.Turn {
	return s.history.Entries()
}

// InitSession resets both agents and starts a new session id. cfg goes to the
// user agent only. The evaluator receives the user policy's goal when it
// reports one.
func (s *BiSession) InitSession(cfg map[string]any) error {
	if err := s.sys.InitSession(nil); err != nil {
		return fmt.Errorf("init system agent: %w", err)
	}
	if err := s.user.InitSession(cfg); err != nil {
		return fmt.Errorf("init user agent: %w", err)
	}
	if s.evaluator != nil {
		if goal, ok := s.user.Goal(); ok {
			s.evaluator.AddGoal(goal)
		}
	}

	s.id = uuid.NewString()
	s.turn = 0
	s.history.Reset()
	s.logger.Debug().Str("session_id", s.id).Msg("session initialised")
	return nil
}

// NextTurn lets the user agent answer lastObservation and the system agent
// answer the user.
func (s *BiSession) NextTurn(ctx context.Context, lastObservation actx.Act) (TurnResult, error) {
	userResponse, err := s.user.Response(ctx, lastObservation)
	if err != nil {
		return TurnResult{}, fmt.Errorf("user turn: %w", err)
	}

	if s.evaluator != nil {
		var belief statex.BeliefState
		if st := s.sys.TrackerState(); st != nil {
			belief = st.BeliefState
		}
		s.evaluator.AddSysAct(s.user.InputActionEval(), belief)
		s.evaluator.AddUsrAct(s.user.OutputAction())
	}

	sessionOver, _ := s.user.IsTerminated()
	s.sys.MarkTerminated(sessionOver)

	var reward float64
	if s.evaluator != nil {
		reward = s.evaluator.Reward()
	} else {
		reward, _ = s.user.Reward()
	}

	sysResponse, err := s.sys.Response(ctx, userResponse)
	if err != nil {
		return TurnResult{}, fmt.Errorf("system turn: %w", err)
	}

	s.history.Append(statex.RoleUser, userResponse)
	s.history.Append(statex.RoleSys, sysResponse)
	s.turn++

	res := TurnResult{
		SysResponse:  sysResponse,
		UserResponse: userResponse,
		SessionOver:  sessionOver,
		Reward:       reward,
	}

	s.logger.Debug().
		Str("session_id", s.id).
		Int("turn", s.turn).
		Str("user", actx.Text(userResponse)).
		Str("sys", actx.Text(sysResponse)).
		Bool("session_over", sessionOver).
		Float64("reward", reward).
		Msg("turn completed")

	s.recordTurn(ctx, res)
	s.checkpoint(ctx)
	if sessionOver {
		s.notify(ctx, reward)
	}
	return res, nil
}

func (s *BiSession) recordTurn(ctx context.Context, res TurnResult) {
	if s.recorder == nil {
		return
	}
	userAction, err := record.EncodeAct(s.user.OutputAction())
	if err != nil {
		s.logger.Warn().Err(err).Msg("encode user action")
		return
	}
	sysAction, err := record.EncodeAct(s.sys.OutputAction())
	if err != nil {
		s.logger.Warn().Err(err).Msg("encode system action")
		return
	}

	rec := &record.TurnRecord{
		SessionID:    s.id,
		Turn:         s.turn,
		UserResponse: actx.Text(res.UserResponse),
		SysResponse:  actx.Text(res.SysResponse),
		UserAction:   userAction,
		SysAction:    sysAction,
		SessionOver:  res.SessionOver,
		Reward:       res.Reward,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.recorder.Record(ctx, rec); err != nil {
		s.logger.Warn().Err(err).Str("session_id", s.id).Int("turn", s.turn).Msg("record turn")
	}
}

func (s *BiSession) checkpoint(ctx context.Context) {
	if s.store == nil {
		return
	}
	for _, a := range []*pipeline.Agent{s.sys, s.user} {
		if err := s.store.Save(ctx, a.Snapshot()); err != nil {
			s.logger.Warn().Err(err).Str("role", string(a.Role())).Msg("checkpoint agent")
		}
	}
}

// Resume restores both agents from their last checkpoints. The session
// history and turn count are rebuilt from the system agent, whose history
// holds each user response followed by its reply.
func (s *BiSession) Resume(ctx context.Context) error {
	if s.store == nil {
		return fmt.Errorf("%w: no snapshot store configured", contractx.ErrConfiguration)
	}
	for _, a := range []*pipeline.Agent{s.sys, s.user} {
		snap, err := s.store.Load(ctx, a.SessionID())
		if err != nil {
			return fmt.Errorf("load %s snapshot: %w", a.Role(), err)
		}
		if err := a.Restore(snap); err != nil {
			return fmt.Errorf("restore %s agent: %w", a.Role(), err)
		}
	}
	s.history.Replace(s.sys.History())
	s.turn = s.history.Len() / 2
	return nil
}

func (s *BiSession) notify(ctx context.Context, reward float64) {
	if s.publisher == nil || s.destination == "" {
		return
	}
	body, err := json.Marshal(Summary{
		SessionID:     s.id,
		SysSessionID:  s.sys.SessionID(),
		UserSessionID: s.user.SessionID(),
		Turns:         s.turn,
		Reward:        reward,
		FinishedAt:    s.now().UTC(),
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("encode session summary")
		return
	}
	msgID, err := s.publisher.Publish(ctx, s.destination, body)
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", s.id).Msg("publish session summary")
		return
	}
	s.logger.Info().Str("session_id", s.id).Str("message_id", msgID).Msg("session summary published")
}
