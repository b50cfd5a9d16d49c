package domain

import "context"

// ValidatorFunc is a caller-supplied validation hook. It runs after the
// required check and before the rule-based checks. A non-empty return value
// is surfaced verbatim as the question's error.
type ValidatorFunc func(q Question, answer any) string

// LifecycleHooks defines the engine's outbound callbacks. All fields are
// optional and invoked fire-and-forget: the engine never waits on or recovers
// from them beyond keeping its own state consistent.
type LifecycleHooks struct {
	// OnAnswerChange fires after every recorded answer.
	OnAnswerChange func(ctx context.Context, questionID string, answer any, answers AnswerMap)

	// OnQuestionFlag fires after every flag toggle.
	OnQuestionFlag func(ctx context.Context, questionID string, flagged bool)

	// OnNavigationChange fires after next/previous/skip changes position.
	// It does not fire on validation failure or on flag toggles.
	OnNavigationChange func(ctx context.Context, newIndex int, direction Direction)

	// OnValidationError fires when a navigation attempt is rejected.
	OnValidationError func(ctx context.Context, questionID string, reason string)

	// OnComplete fires exactly once, on the terminal transition.
	OnComplete func(ctx context.Context, answers AnswerMap, flagged []string)

	// OnAutoSave fires on each auto-save tick while the flow is active.
	OnAutoSave func(ctx context.Context, answers AnswerMap)
}
