package runtime

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
)

// Flow is the core state machine of a single questionnaire session. It owns
// the answer map, the flagged set, per-question errors, and the derived list
// of visible questions, and drives navigation over them.
//
// All exported methods are safe for concurrent use. The engine itself is
// event-driven, but the auto-advance and auto-save timers fire on their own
// goroutines and read state at fire time, so access is serialized by a mutex.
// Hooks are always invoked outside the lock.
type Flow struct {
	mu sync.Mutex

	questions []domain.Question

	answers   domain.AnswerMap
	flagged   map[string]bool
	errors    map[string]string
	visible   []domain.Question
	index     int
	completed bool
	closed    bool

	// validating is host-owned UI state: set while an out-of-band check
	// (e.g. a remote lookup) is in flight. The engine never reads it.
	validating bool

	allowSkip bool
	custom    domain.ValidatorFunc
	hooks     []domain.LifecycleHooks
	logger    *slog.Logger

	autoAdvance  bool
	advanceDelay time.Duration
	advanceTimer *time.Timer
	advanceSeq   uint64

	autoSave     bool
	saveInterval time.Duration
	saveStop     chan struct{}
	saveDone     chan struct{}

	// sink receives full snapshots on auto-save ticks and on completion,
	// independent of the OnAutoSave answer-map hook.
	sink func(context.Context, domain.Snapshot)
}

// Option configures a Flow.
type Option func(*Flow)

// WithLogger sets the logger for internal events. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Flow) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithHooks registers lifecycle callbacks. May be given multiple times; every
// registered set is invoked.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(f *Flow) {
		f.hooks = append(f.hooks, hooks)
	}
}

// WithCustomValidator installs a caller-supplied validator that runs between
// the required check and the rule-based checks.
func WithCustomValidator(v domain.ValidatorFunc) Option {
	return func(f *Flow) {
		f.custom = v
	}
}

// WithAllowSkip enables the Skip transition.
func WithAllowSkip() Option {
	return func(f *Flow) {
		f.allowSkip = true
	}
}

// WithAutoAdvance enables debounced automatic progression for single-select
// questions. A non-positive delay keeps the default of one second.
func WithAutoAdvance(delay time.Duration) Option {
	return func(f *Flow) {
		f.autoAdvance = true
		if delay > 0 {
			f.advanceDelay = delay
		}
	}
}

// WithAutoSave enables the periodic answer snapshot callback. A non-positive
// interval keeps the default of ten seconds.
func WithAutoSave(interval time.Duration) Option {
	return func(f *Flow) {
		f.autoSave = true
		if interval > 0 {
			f.saveInterval = interval
		}
	}
}

// WithInitialAnswers seeds the answer map, typically from a persisted
// snapshot when resuming a session.
func WithInitialAnswers(answers domain.AnswerMap) Option {
	return func(f *Flow) {
		for id, v := range answers {
			f.answers[id] = v
		}
	}
}

// WithInitialFlagged seeds the flagged-question set.
func WithInitialFlagged(ids []string) Option {
	return func(f *Flow) {
		for _, id := range ids {
			f.flagged[id] = true
		}
	}
}

// WithInitialIndex positions the flow at a prior index, clamped to the
// visible list at construction time.
func WithInitialIndex(index int) Option {
	return func(f *Flow) {
		f.index = index
	}
}

// WithSnapshotSink registers a persistence callback fed with a by-value
// snapshot on every auto-save tick and on completion. Like all callbacks it
// is fire-and-forget; failures are the sink's problem.
func WithSnapshotSink(sink func(context.Context, domain.Snapshot)) Option {
	return func(f *Flow) {
		f.sink = sink
	}
}

// WithInitialCompleted restores a terminal flow. Completion is not reversible
// within a session, so a resumed completed flow stays inert.
func WithInitialCompleted() Option {
	return func(f *Flow) {
		f.completed = true
	}
}

// NewFlow creates a session over an ordered question list. The question
// definitions are treated as immutable for the lifetime of the flow.
func NewFlow(questions []domain.Question, opts ...Option) *Flow {
	f := &Flow{
		questions:    questions,
		answers:      make(domain.AnswerMap),
		flagged:      make(map[string]bool),
		errors:       make(map[string]string),
		logger:       logging.NewNop(),
		advanceDelay: time.Second,
		saveInterval: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.recompute()
	f.clampIndex()

	if f.autoSave {
		f.saveStop = make(chan struct{})
		f.saveDone = make(chan struct{})
		go f.autoSaveLoop()
	}
	return f
}

// recompute rebuilds the visible-question cache from scratch. It is a full
// recompute on every answer change rather than an incremental patch, which
// keeps the cache trivially consistent with the evaluator.
func (f *Flow) recompute() {
	visible := make([]domain.Question, 0, len(f.questions))
	for _, q := range f.questions {
		if Visible(q, f.answers) {
			visible = append(visible, q)
		}
	}
	f.visible = visible
}

// clampIndex keeps the cursor inside the visible list after it shrank.
func (f *Flow) clampIndex() {
	if f.index >= len(f.visible) {
		f.index = len(f.visible) - 1
	}
	if f.index < 0 {
		f.index = 0
	}
}

// RecordAnswer writes a widget's value into the answer map, clears any prior
// error for that question, and recomputes visibility against the new answers.
// Answers are never deleted: a question hidden by a condition change keeps
// its recorded answer and shows it again when it becomes visible.
func (f *Flow) RecordAnswer(ctx context.Context, questionID string, value any) error {
	f.mu.Lock()

	if f.completed || f.closed {
		f.mu.Unlock()
		return domain.ErrFlowComplete
	}
	q, ok := f.question(questionID)
	if !ok {
		f.mu.Unlock()
		return domain.ErrUnknownQuestion
	}

	f.answers[questionID] = value
	delete(f.errors, questionID)
	f.recompute()
	f.clampIndex()

	if f.autoAdvance && q.SingleSelect() {
		f.scheduleAdvance()
	}

	snapshot := f.answers.Clone()
	hooks := f.hooks
	f.mu.Unlock()

	for _, h := range hooks {
		if h.OnAnswerChange != nil {
			f.emit("answer_change", func() { h.OnAnswerChange(ctx, questionID, value, snapshot) })
		}
	}
	return nil
}

// ToggleFlag flips the review flag on a question. Flagging is orthogonal to
// navigation and validation and works even on questions that are currently
// hidden.
func (f *Flow) ToggleFlag(ctx context.Context, questionID string) error {
	f.mu.Lock()

	if _, ok := f.question(questionID); !ok {
		f.mu.Unlock()
		return domain.ErrUnknownQuestion
	}

	flagged := !f.flagged[questionID]
	if flagged {
		f.flagged[questionID] = true
	} else {
		delete(f.flagged, questionID)
	}
	hooks := f.hooks
	f.mu.Unlock()

	for _, h := range hooks {
		if h.OnQuestionFlag != nil {
			f.emit("question_flag", func() { h.OnQuestionFlag(ctx, questionID, flagged) })
		}
	}
	return nil
}

// emit invokes a hook callback, recovering panics. A failing caller callback
// is the caller's responsibility; it must never crash the flow.
func (f *Flow) emit(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Warn("lifecycle hook panicked", "hook", name, "panic", r)
		}
	}()
	fn()
}

// question looks up a definition by id. Callers hold the lock.
func (f *Flow) question(id string) (domain.Question, bool) {
	for _, q := range f.questions {
		if q.ID == id {
			return q, true
		}
	}
	return domain.Question{}, false
}

// Current returns the active question, re-derived from the visible list on
// every call. It reports false when the flow is complete or no question is
// visible.
func (f *Flow) Current() (domain.Question, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completed || f.index >= len(f.visible) {
		return domain.Question{}, false
	}
	return f.visible[f.index], true
}

// Index returns the current position within the visible list.
func (f *Flow) Index() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.index
}

// SetValidating marks the flow as waiting on an out-of-band validation the
// host runs itself, e.g. a remote uniqueness check before allowing advance.
// The flag is purely advisory: navigation is never gated on it here, the host
// decides whether to hold its own Next call while it is set.
func (f *Flow) SetValidating(v bool) {
	f.mu.Lock()
	f.validating = v
	f.mu.Unlock()
}

// Validating reports whether the host marked an out-of-band validation as in
// flight.
func (f *Flow) Validating() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validating
}

// Completed reports whether the flow reached its terminal state.
func (f *Flow) Completed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed
}

// Visible returns a copy of the current visible-question list.
func (f *Flow) Visible() []domain.Question {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Question(nil), f.visible...)
}

// Answers returns a copy of the answer map.
func (f *Flow) Answers() domain.AnswerMap {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.answers.Clone()
}

// Answer returns the recorded value for a question, if any.
func (f *Flow) Answer(questionID string) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.answers[questionID]
	return v, ok
}

// Error returns the validation error recorded for a question, if any.
func (f *Flow) Error(questionID string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reason, ok := f.errors[questionID]
	return reason, ok
}

// Errors returns a copy of the per-question error map. Only questions whose
// most recent validation failed have entries.
func (f *Flow) Errors() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// Flagged returns the flagged question ids in stable order.
func (f *Flow) Flagged() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flaggedIDs()
}

func (f *Flow) flaggedIDs() []string {
	ids := make([]string, 0, len(f.flagged))
	for id := range f.flagged {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot captures the persistable state of the flow by value.
func (f *Flow) Snapshot() domain.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Flow) snapshotLocked() domain.Snapshot {
	return domain.Snapshot{
		CurrentIndex: f.index,
		Answers:      f.answers.Clone(),
		Flagged:      f.flaggedIDs(),
		Completed:    f.completed,
		UpdatedAt:    time.Now().UTC(),
	}
}
