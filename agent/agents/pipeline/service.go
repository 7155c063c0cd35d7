// Package pipeline runs one side of a task-oriented dialogue through an
// NLU, DST, Policy and NLG pipeline.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	actx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/act"
	contractx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/contract"
	nodex "github.com/tanpawarit/Chative-Pipeline-Agent/agent/nodes"
	statex "github.com/tanpawarit/Chative-Pipeline-Agent/agent/state"
	logx "github.com/tanpawarit/Chative-Pipeline-Agent/pkg/logger"
)

var ErrTurnInProgress = errors.New("agent is already handling a turn")

type Option func(*Agent)

// WithReturnSemanticActs makes Response return the policy's output act instead
// of the generated response. No SaveRecord is kept in that mode.
func WithReturnSemanticActs(v bool) Option {
	return func(a *Agent) {
		a.returnSemanticActs = v
	}
}

// WithScanInputAction controls whether the input act's domains feed the
// current domain before booking rules run. It defaults to true.
func WithScanInputAction(v bool) Option {
	return func(a *Agent) {
		a.scanInputAction = v
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(a *Agent) {
		a.logger = logger
	}
}

func WithSessionID(id string) Option {
	return func(a *Agent) {
		if id != "" {
			a.sessionID = id
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Agent) {
		if now != nil {
			a.now = now
		}
	}
}

// Agent is a PipelineAgent. Any of NLU, DST and NLG may be nil; the policy is
// required. An Agent handles one turn at a time.
type Agent struct {
	nlu    contractx.NLU
	dst    contractx.DST
	policy contractx.Policy
	nlg    contractx.NLG

	role               statex.Role
	returnSemanticActs bool
	scanInputAction    bool
	sessionID          string

	graphRunner compose.Runnable[nodex.TurnInput, nodex.TurnOutput]
	busy        atomic.Bool

	history         statex.HistoryLog
	domains         statex.DomainTracker
	turn            int
	inputAction     actx.Act
	inputActionEval actx.Act
	outputAction    actx.Act
	saves           []contractx.SaveRecord

	baseLogger zerolog.Logger
	logger     zerolog.Logger
	now        func() time.Time
}

func New(
	nlu contractx.NLU,
	dst contractx.DST,
	policy contractx.Policy,
	nlg contractx.NLG,
	role statex.Role,
	opts ...Option,
) (*Agent, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: role must be %q or %q, got %q", contractx.ErrConfiguration, statex.RoleUser, statex.RoleSys, role)
	}
	if policy == nil {
		return nil, fmt.Errorf("%w: policy is required", contractx.ErrConfiguration)
	}

	a := &Agent{
		nlu:             nlu,
		dst:             dst,
		policy:          policy,
		nlg:             nlg,
		role:            role,
		scanInputAction: true,
		sessionID:       uuid.NewString(),
		logger:          logx.Sub("pipeline"),
		now:             time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	a.baseLogger = a.logger
	a.bindLogger()

	graphRunner, err := a.compileTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	a.graphRunner = graphRunner

	for _, m := range a.modules() {
		if _, ok := m.module.(contractx.Diagnosable); !ok {
			a.logger.Warn().Str("module", string(m.kind)).Msg("module does not expose diagnostics")
		}
	}

	if err := a.InitSession(nil); err != nil {
		return nil, err
	}
	return a, nil
}

// Response runs one turn. The observation is an utterance when an NLU is
// configured and a structured act otherwise.
func (a *Agent) Response(ctx context.Context, observation actx.Act) (actx.Act, error) {
	out, err := a.runTurn(ctx, observation)
	if err != nil {
		return nil, err
	}
	if a.returnSemanticActs {
		return actx.Clone(out.OutputAction), nil
	}
	a.saves = append(a.saves, a.SaveInfo())
	return actx.Clone(out.Response), nil
}

func (a *Agent) runTurn(ctx context.Context, observation actx.Act) (nodex.TurnOutput, error) {
	if !a.busy.CompareAndSwap(false, true) {
		return nodex.TurnOutput{}, ErrTurnInProgress
	}
	defer a.busy.Store(false)

	out, err := a.graphRunner.Invoke(ctx, nodex.TurnInput{Observation: observation})
	if err != nil {
		a.logger.Error().Err(err).Int("turn", a.turn).Msg("turn failed")
		return nodex.TurnOutput{}, err
	}

	a.inputAction = out.InputAction
	a.inputActionEval = out.InputActionEval
	a.outputAction = out.OutputAction

	a.logger.Debug().
		Int("turn", out.Turn).
		Str("input_action", actx.Text(out.InputAction)).
		Str("output_action", actx.Text(out.OutputAction)).
		Str("current_domain", a.domains.Current()).
		Msg("turn complete")
	return out, nil
}

// InitSession resets the agent and its modules for a new dialogue. cfg is
// passed to a SessionConfigurable policy and ignored otherwise.
func (a *Agent) InitSession(cfg map[string]any) error {
	if !a.busy.CompareAndSwap(false, true) {
		return ErrTurnInProgress
	}
	defer a.busy.Store(false)

	a.domains.Reset()

	if a.nlu != nil {
		if err := a.nlu.InitSession(); err != nil {
			return fmt.Errorf("init nlu: %w", err)
		}
	}
	if a.dst != nil {
		if err := a.dst.InitSession(); err != nil {
			return fmt.Errorf("init dst: %w", err)
		}
		if a.role == statex.RoleSys {
			st := a.dst.State()
			if st == nil {
				return fmt.Errorf("init dst: %w", nodex.ErrNoPolicyState)
			}
			st.AppendHistory(a.role, statex.NullUtterance)
		}
	}
	if configurable, ok := a.policy.(contractx.SessionConfigurable); ok {
		if err := configurable.InitSessionWith(cfg); err != nil {
			return fmt.Errorf("init policy: %w", err)
		}
	} else if err := a.policy.InitSession(); err != nil {
		return fmt.Errorf("init policy: %w", err)
	}
	if a.nlg != nil {
		if err := a.nlg.InitSession(); err != nil {
			return fmt.Errorf("init nlg: %w", err)
		}
	}

	a.history.Reset()
	return nil
}

func (a *Agent) bindLogger() {
	a.logger = a.baseLogger.With().Str("role", string(a.role)).Str("session_id", a.sessionID).Logger()
}

/* -------------------------------- Accessors ------------------------------- */

func (a *Agent) Role() statex.Role {
	return a.role
}

func (a *Agent) SessionID() string {
	return a.sessionID
}

func (a *Agent) InputAction() actx.Act {
	return actx.Clone(a.inputAction)
}

// InputActionEval is only set on the user side.
func (a *Agent) InputActionEval() actx.Act {
	return actx.Clone(a.inputActionEval)
}

func (a *Agent) OutputAction() actx.Act {
	return actx.Clone(a.outputAction)
}

// Turn counts completed turns since construction. InitSession does not reset
// it.
func (a *Agent) Turn() int {
	return a.turn
}

func (a *Agent) History() []statex.Turn {
	return a.history.Entries()
}

func (a *Agent) CurrentDomain() string {
	return a.domains.Current()
}

// TrackerState returns a copy of the DST state, or nil without a DST.
func (a *Agent) TrackerState() *statex.TrackerState {
	if a.dst == nil {
		return nil
	}
	return a.dst.State().Clone()
}

// MarkTerminated flags the DST state as terminated. It is a no-op without a
// DST.
func (a *Agent) MarkTerminated(v bool) {
	if a.dst == nil {
		return
	}
	if st := a.dst.State(); st != nil {
		st.SetTerminated(v)
	}
}

// IsTerminated reports the policy's verdict; ok is false when the policy
// cannot tell.
func (a *Agent) IsTerminated() (terminated bool, ok bool) {
	t, ok := a.policy.(contractx.Terminable)
	if !ok {
		return false, false
	}
	return t.IsTerminated(), true
}

func (a *Agent) Reward() (reward float64, ok bool) {
	r, ok := a.policy.(contractx.RewardReporting)
	if !ok {
		return 0, false
	}
	return r.Reward(), true
}

// Goal returns the policy's goal when it reports one.
func (a *Agent) Goal() (map[string]any, bool) {
	g, ok := a.policy.(contractx.GoalReporting)
	if !ok {
		return nil, false
	}
	return g.Goal(), true
}

/* ------------------------------- Diagnostics ------------------------------ */

type moduleSlot struct {
	kind   contractx.ModuleKind
	module any
}

func (a *Agent) modules() []moduleSlot {
	slots := []moduleSlot{
		{kind: contractx.ModuleNLU},
		{kind: contractx.ModuleDST},
		{kind: contractx.ModulePolicy, module: a.policy},
		{kind: contractx.ModuleNLG},
	}
	if a.nlu != nil {
		slots[0].module = a.nlu
	}
	if a.dst != nil {
		slots[1].module = a.dst
	}
	if a.nlg != nil {
		slots[3].module = a.nlg
	}
	return slots
}

// SaveInfo collects the diagnostics of every module. A panic inside a module
// yields a nil record.
func (a *Agent) SaveInfo() (rec contractx.SaveRecord) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Warn().Interface("panic", r).Msg("collect diagnostics")
			rec = nil
		}
	}()

	rec = make(contractx.SaveRecord, len(contractx.ModuleKinds))
	for _, m := range a.modules() {
		d, ok := m.module.(contractx.Diagnosable)
		if !ok {
			rec[m.kind] = nil
			continue
		}
		rec[m.kind] = d.InfoDict()
	}
	return rec
}

// Saves returns the SaveRecords appended after each turn.
func (a *Agent) Saves() []contractx.SaveRecord {
	out := make([]contractx.SaveRecord, len(a.saves))
	for i, r := range a.saves {
		out[i] = r.Clone()
	}
	return out
}

/* ---------------------------- Snapshot / restore -------------------------- */

// Snapshot captures the agent history, the DST state and the session scalars.
func (a *Agent) Snapshot() *statex.Snapshot {
	snap := &statex.Snapshot{
		SessionID:     a.sessionID,
		Role:          a.role,
		History:       a.history.Entries(),
		CurrentDomain: a.domains.Current(),
		Turn:          a.turn,
	}
	if a.dst != nil {
		snap.Tracker = a.dst.State().Clone()
	}
	snap.Touch(a.now())
	return snap
}

// Restore replaces the agent's internal state with snap. The DST state is
// overwritten in place so the DST keeps its instance.
func (a *Agent) Restore(snap *statex.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	if snap.Role != a.role {
		return fmt.Errorf("%w: snapshot role %q does not match agent role %q", contractx.ErrValidation, snap.Role, a.role)
	}
	if !a.busy.CompareAndSwap(false, true) {
		return ErrTurnInProgress
	}
	defer a.busy.Store(false)

	if a.dst != nil && snap.Tracker != nil {
		st := a.dst.State()
		if st == nil {
			return fmt.Errorf("restore: %w", nodex.ErrNoPolicyState)
		}
		st.ReplaceWith(snap.Tracker)
	}
	a.history.Replace(snap.History)
	a.domains.Set(snap.CurrentDomain)
	a.turn = snap.Turn
	if snap.SessionID != "" && snap.SessionID != a.sessionID {
		a.sessionID = snap.SessionID
		a.bindLogger()
	}
	return nil
}
