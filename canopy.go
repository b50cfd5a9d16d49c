package canopy

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/canopy/internal/compiler"
	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/internal/runtime"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/canopy/pkg/session"
)

// Engine is the high-level entry point for the Canopy library. It holds a
// questionnaire definition plus flow-level options and spawns one Flow per
// session. The engine itself is stateless across sessions; each Flow owns
// its own answers, cursor, and timers.
type Engine struct {
	questionnaire domain.Questionnaire

	logger    *slog.Logger
	hooks     []domain.LifecycleHooks
	custom    domain.ValidatorFunc
	allowSkip bool

	autoAdvance  bool
	advanceDelay time.Duration
	autoSave     bool
	saveInterval time.Duration

	store    ports.SnapshotStore
	sessions *session.Manager
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets the logger used by the engine and its flows.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability callbacks. May be given several
// times; all registered sets fire.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = append(e.hooks, hooks)
	}
}

// WithCustomValidator installs a validator that runs on every navigation
// attempt, between the required check and the rule-based checks.
func WithCustomValidator(v domain.ValidatorFunc) Option {
	return func(e *Engine) {
		e.custom = v
	}
}

// WithAllowSkip enables the Skip transition on flows.
func WithAllowSkip() Option {
	return func(e *Engine) {
		e.allowSkip = true
	}
}

// WithAutoAdvance enables debounced automatic progression after answers to
// single-select questions. A non-positive delay keeps the one second default.
func WithAutoAdvance(delay time.Duration) Option {
	return func(e *Engine) {
		e.autoAdvance = true
		e.advanceDelay = delay
	}
}

// WithAutoSave enables periodic snapshot persistence while a flow is active.
// A non-positive interval keeps the ten second default. Combine with
// WithStore to persist somewhere; without a store only the OnAutoSave hook
// fires.
func WithAutoSave(interval time.Duration) Option {
	return func(e *Engine) {
		e.autoSave = true
		e.saveInterval = interval
	}
}

// WithStore wires a snapshot store for session resume and auto-save
// persistence.
func WithStore(store ports.SnapshotStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithSessionManager wires a pre-built session manager, e.g. one configured
// with a distributed locker.
func WithSessionManager(mgr *session.Manager) Option {
	return func(e *Engine) {
		e.sessions = mgr
	}
}

// New creates an engine over an already-built questionnaire.
func New(qn domain.Questionnaire, opts ...Option) (*Engine, error) {
	if len(qn.Questions) == 0 {
		return nil, fmt.Errorf("questionnaire %s has no questions", qn.ID)
	}

	e := &Engine{
		questionnaire: qn,
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.sessions == nil && e.store != nil {
		e.sessions = session.NewManager(e.store, session.WithLogger(e.logger))
	}
	return e, nil
}

// Load parses a YAML questionnaire document and creates an engine for it.
func Load(data []byte, opts ...Option) (*Engine, error) {
	qn, err := compiler.NewParser().Parse(data)
	if err != nil {
		return nil, err
	}
	return New(*qn, opts...)
}

// LoadFile reads and parses a questionnaire document from disk.
func LoadFile(path string, opts ...Option) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read questionnaire: %w", err)
	}
	return Load(data, opts...)
}

// LoadFromSource fetches a questionnaire document by id from a source and
// creates an engine for it.
func LoadFromSource(ctx context.Context, source ports.QuestionSource, id string, opts ...Option) (*Engine, error) {
	data, err := source.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch questionnaire %s: %w", id, err)
	}
	return Load(data, opts...)
}

// Questionnaire returns the engine's questionnaire definition.
func (e *Engine) Questionnaire() domain.Questionnaire {
	return e.questionnaire
}

// Sessions returns the session manager, or nil when no store is configured.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}

// StartSession creates a flow for the given session id. With a store
// configured, an existing snapshot resumes the session: prior answers, flags,
// and position are restored, and the flow persists itself on auto-save ticks
// and on completion. The caller must Close the returned flow when done.
func (e *Engine) StartSession(ctx context.Context, sessionID string) (*Flow, error) {
	flowOpts := []runtime.Option{
		runtime.WithLogger(e.logger),
	}
	for _, h := range e.hooks {
		flowOpts = append(flowOpts, runtime.WithHooks(h))
	}
	if e.custom != nil {
		flowOpts = append(flowOpts, runtime.WithCustomValidator(e.custom))
	}
	if e.allowSkip {
		flowOpts = append(flowOpts, runtime.WithAllowSkip())
	}
	if e.autoAdvance {
		flowOpts = append(flowOpts, runtime.WithAutoAdvance(e.advanceDelay))
	}
	if e.autoSave {
		flowOpts = append(flowOpts, runtime.WithAutoSave(e.saveInterval))
	}

	if e.sessions != nil {
		snap, err := e.sessions.LoadOrStart(ctx, sessionID, e.questionnaire.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
		}
		flowOpts = append(flowOpts,
			runtime.WithInitialAnswers(snap.Answers),
			runtime.WithInitialFlagged(snap.Flagged),
			runtime.WithInitialIndex(snap.CurrentIndex),
		)
		if snap.Completed {
			flowOpts = append(flowOpts, runtime.WithInitialCompleted())
		}

		// Snapshots flow to the store on auto-save ticks and completion.
		// Persistence failures are logged, never propagated: a broken store
		// must not block navigation.
		flowOpts = append(flowOpts, runtime.WithSnapshotSink(func(ctx context.Context, snap domain.Snapshot) {
			snap.QuestionnaireID = e.questionnaire.ID
			if err := e.sessions.Save(ctx, sessionID, &snap); err != nil {
				e.logger.Warn("failed to persist session snapshot",
					"session_id", sessionID,
					"err", err,
				)
			}
		}))
	}

	return &Flow{
		engine:    e,
		sessionID: sessionID,
		flow:      runtime.NewFlow(e.questionnaire.Questions, flowOpts...),
	}, nil
}

// Flow is a single questionnaire session. It delegates to the runtime state
// machine and adds snapshot persistence when the engine has a store.
type Flow struct {
	engine    *Engine
	sessionID string
	flow      *runtime.Flow
}

// SessionID returns the id this flow was started with.
func (f *Flow) SessionID() string {
	return f.sessionID
}

// Answer records a widget value for a question.
func (f *Flow) Answer(ctx context.Context, questionID string, value any) error {
	return f.flow.RecordAnswer(ctx, questionID, value)
}

// Next validates the current answer and advances or completes. It reports
// whether the position changed; a validation failure leaves the position and
// records the reason, retrievable via Error.
func (f *Flow) Next(ctx context.Context) bool {
	return f.flow.Next(ctx)
}

// Previous retreats one position without validating.
func (f *Flow) Previous(ctx context.Context) bool {
	return f.flow.Previous(ctx)
}

// Skip advances without validating. It requires the engine-level allow-skip
// option; per-question skip policy is the caller's decision.
func (f *Flow) Skip(ctx context.Context) bool {
	return f.flow.Skip(ctx)
}

// ToggleFlag flips the review flag on a question.
func (f *Flow) ToggleFlag(ctx context.Context, questionID string) error {
	return f.flow.ToggleFlag(ctx, questionID)
}

// Current returns the active question, re-derived from visibility on every
// call.
func (f *Flow) Current() (domain.Question, bool) { return f.flow.Current() }

// Index returns the position within the visible-question list.
func (f *Flow) Index() int { return f.flow.Index() }

// Completed reports whether the flow reached its terminal state.
func (f *Flow) Completed() bool { return f.flow.Completed() }

// SetValidating marks an out-of-band validation as in flight. The engine
// never blocks on it; hosts read Validating to hold their own navigation.
func (f *Flow) SetValidating(v bool) { f.flow.SetValidating(v) }

// Validating reports whether an out-of-band validation is in flight.
func (f *Flow) Validating() bool { return f.flow.Validating() }

// Visible returns the questions currently eligible for display.
func (f *Flow) Visible() []domain.Question { return f.flow.Visible() }

// Answers returns a copy of the answer map.
func (f *Flow) Answers() domain.AnswerMap { return f.flow.Answers() }

// Answer value for one question.
func (f *Flow) AnswerValue(questionID string) (any, bool) { return f.flow.Answer(questionID) }

// Error returns the validation error recorded for a question, if any.
func (f *Flow) Error(questionID string) (string, bool) { return f.flow.Error(questionID) }

// Errors returns a copy of the per-question error map.
func (f *Flow) Errors() map[string]string { return f.flow.Errors() }

// Flagged returns the flagged question ids.
func (f *Flow) Flagged() []string { return f.flow.Flagged() }

// Snapshot captures the persistable state of the flow.
func (f *Flow) Snapshot() domain.Snapshot {
	snap := f.flow.Snapshot()
	snap.QuestionnaireID = f.engine.questionnaire.ID
	return snap
}

// Save persists the current snapshot through the engine's store. It is a
// no-op without one.
func (f *Flow) Save(ctx context.Context) error {
	if f.engine.sessions == nil {
		return nil
	}
	snap := f.Snapshot()
	return f.engine.sessions.Save(ctx, f.sessionID, &snap)
}

// Close tears the flow down, cancelling its timers. Idempotent.
func (f *Flow) Close() {
	f.flow.Close()
}
