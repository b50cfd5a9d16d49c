package runtime

import (
	"context"

	"github.com/aretw0/canopy/pkg/domain"
)

// Next attempts to advance the flow. The current answer is validated first;
// on failure the error is recorded against the question, the position is
// unchanged, and Next reports false. On success the flow either advances or,
// from the last visible question, completes. Calling Next on a completed flow
// is inert.
//
// An empty visible list counts as success: with nothing left to ask, the flow
// completes immediately instead of looping.
func (f *Flow) Next(ctx context.Context) bool {
	return f.next(ctx, nil)
}

// next implements Next. A non-nil seq is an auto-advance precondition: the
// move only proceeds if that pending advance is still current, checked under
// the same lock that performs it, so a manual navigation landing between
// timer fire and advance cannot be followed by a second, superseded move.
func (f *Flow) next(ctx context.Context, seq *uint64) bool {
	f.mu.Lock()

	if f.completed || f.closed || (seq != nil && *seq != f.advanceSeq) {
		f.mu.Unlock()
		return false
	}

	// Navigation supersedes any pending auto-advance.
	f.cancelAdvance()

	if len(f.visible) == 0 {
		emit := f.completeLocked()
		f.mu.Unlock()
		emit(ctx)
		return true
	}

	current := f.visible[f.index]
	if reason := Validate(current, f.answers[current.ID], f.custom); reason != "" {
		f.errors[current.ID] = reason
		hooks := f.hooks
		f.mu.Unlock()
		for _, h := range hooks {
			if h.OnValidationError != nil {
				f.emit("validation_error", func() { h.OnValidationError(ctx, current.ID, reason) })
			}
		}
		return false
	}

	// The error set tracks the most recent validation only; passing clears
	// whatever a previous attempt recorded.
	delete(f.errors, current.ID)

	return f.advanceLocked(ctx)
}

// Previous retreats one position. Retreating never validates; it is a no-op
// at the first question or on a completed flow.
func (f *Flow) Previous(ctx context.Context) bool {
	f.mu.Lock()

	if f.completed || f.closed || f.index == 0 {
		f.mu.Unlock()
		return false
	}

	f.cancelAdvance()
	f.index--
	newIndex := f.index
	hooks := f.hooks
	f.mu.Unlock()

	for _, h := range hooks {
		if h.OnNavigationChange != nil {
			f.emit("navigation_change", func() { h.OnNavigationChange(ctx, newIndex, domain.DirectionPrevious) })
		}
	}
	return true
}

// Skip advances without validating, exactly as a successful Next would. It is
// gated on the flow-level allow-skip option only: whether the current
// question may be skipped at all (it is not required, policy allows it) is
// the caller's decision, made before invoking Skip.
func (f *Flow) Skip(ctx context.Context) bool {
	f.mu.Lock()

	if f.completed || f.closed || !f.allowSkip {
		f.mu.Unlock()
		return false
	}

	f.cancelAdvance()

	if len(f.visible) == 0 {
		emit := f.completeLocked()
		f.mu.Unlock()
		emit(ctx)
		return true
	}

	return f.advanceLocked(ctx)
}

// advanceLocked moves past the current question or completes from the last
// one. It is entered with the lock held and releases it before emitting.
func (f *Flow) advanceLocked(ctx context.Context) bool {
	if f.index >= len(f.visible)-1 {
		emit := f.completeLocked()
		f.mu.Unlock()
		emit(ctx)
		return true
	}

	f.index++
	newIndex := f.index
	hooks := f.hooks
	f.mu.Unlock()

	for _, h := range hooks {
		if h.OnNavigationChange != nil {
			f.emit("navigation_change", func() { h.OnNavigationChange(ctx, newIndex, domain.DirectionNext) })
		}
	}
	return true
}

// completeLocked transitions to the terminal state and returns the deferred
// hook emission. The transition is not reversible within the session and the
// completion hooks fire exactly once.
func (f *Flow) completeLocked() func(context.Context) {
	f.completed = true
	f.cancelAdvance()
	f.stopAutoSaveLocked()

	answers := f.answers.Clone()
	flagged := f.flaggedIDs()
	snap := f.snapshotLocked()
	hooks := f.hooks
	sink := f.sink

	f.logger.Debug("flow complete", "answers", len(answers), "flagged", len(flagged))

	return func(ctx context.Context) {
		for _, h := range hooks {
			if h.OnComplete != nil {
				f.emit("complete", func() { h.OnComplete(ctx, answers, flagged) })
			}
		}
		if sink != nil {
			f.emit("snapshot_sink", func() { sink(ctx, snap) })
		}
	}
}
