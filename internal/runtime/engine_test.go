package runtime

import (
	"context"
	"testing"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// surveyQuestions is the three-question flow used by the end-to-end
// scenarios: role and years are unconditional, mentor only appears after
// more than five years of experience.
func surveyQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:       "role",
			Type:     domain.TypeMultipleChoice,
			Text:     "What is your role?",
			Required: true,
			Config:   map[string]any{"options": []string{"dev", "designer"}},
		},
		{
			ID:       "years",
			Type:     domain.TypeNumber,
			Text:     "Years of experience?",
			Required: true,
		},
		{
			ID:       "mentor",
			Type:     domain.TypeYesNo,
			Text:     "Do you mentor others?",
			Required: true,
			Conditions: []domain.Condition{
				{DependsOn: "years", Operator: domain.OpGreaterThan, Value: 5},
			},
		},
	}
}

func TestFlow_ScenarioA_ConditionalSkipped(t *testing.T) {
	ctx := context.Background()

	var final domain.AnswerMap
	completions := 0
	flow := NewFlow(surveyQuestions(), WithHooks(domain.LifecycleHooks{
		OnComplete: func(_ context.Context, answers domain.AnswerMap, flagged []string) {
			completions++
			final = answers
		},
	}))
	defer flow.Close()

	require.NoError(t, flow.RecordAnswer(ctx, "role", "dev"))
	require.NoError(t, flow.RecordAnswer(ctx, "years", 3))

	// mentor stays hidden, so two advances reach the end.
	assert.True(t, flow.Next(ctx))
	assert.True(t, flow.Next(ctx))

	assert.True(t, flow.Completed())
	assert.Equal(t, 1, completions)
	assert.Equal(t, domain.AnswerMap{"role": "dev", "years": 3}, final)
}

func TestFlow_ScenarioB_ConditionalRequired(t *testing.T) {
	ctx := context.Background()
	flow := NewFlow(surveyQuestions())
	defer flow.Close()

	require.NoError(t, flow.RecordAnswer(ctx, "role", "dev"))
	require.NoError(t, flow.RecordAnswer(ctx, "years", 8))

	visible := flow.Visible()
	require.Len(t, visible, 3)
	assert.Equal(t, "mentor", visible[2].ID)

	assert.True(t, flow.Next(ctx))
	assert.True(t, flow.Next(ctx))
	assert.Equal(t, 2, flow.Index())

	// mentor is required and unanswered: Next fails, position holds.
	assert.False(t, flow.Next(ctx))
	assert.Equal(t, 2, flow.Index())
	assert.False(t, flow.Completed())

	reason, ok := flow.Error("mentor")
	assert.True(t, ok)
	assert.NotEmpty(t, reason)
}

func TestFlow_ScenarioC_SkipBoundary(t *testing.T) {
	// Skip never validates and never records an error. Whether a required
	// question may be skipped is decided by the caller before invoking Skip;
	// the engine only enforces the flow-level allow-skip option.
	ctx := context.Background()

	questions := []domain.Question{
		{ID: "a", Type: domain.TypeText, Text: "A", Required: true},
		{ID: "b", Type: domain.TypeText, Text: "B", Required: true},
		{ID: "c", Type: domain.TypeText, Text: "C", Required: true},
	}

	t.Run("allow skip disabled", func(t *testing.T) {
		flow := NewFlow(questions)
		defer flow.Close()

		assert.False(t, flow.Skip(ctx))
		assert.Equal(t, 0, flow.Index())
		assert.Empty(t, flow.Errors())
	})

	t.Run("allow skip enabled advances without validation", func(t *testing.T) {
		flow := NewFlow(questions, WithAllowSkip())
		defer flow.Close()

		assert.True(t, flow.Skip(ctx))
		assert.Equal(t, 1, flow.Index())
		assert.Empty(t, flow.Errors(), "skip must not validate")
	})

	t.Run("skip from last question completes", func(t *testing.T) {
		flow := NewFlow(questions, WithAllowSkip())
		defer flow.Close()

		flow.Skip(ctx)
		flow.Skip(ctx)
		assert.True(t, flow.Skip(ctx))
		assert.True(t, flow.Completed())
	})
}

func TestFlow_AnswerSurvivesVisibilityChange(t *testing.T) {
	ctx := context.Background()
	flow := NewFlow(surveyQuestions())
	defer flow.Close()

	// Make mentor visible and answer it.
	require.NoError(t, flow.RecordAnswer(ctx, "years", 8))
	require.NoError(t, flow.RecordAnswer(ctx, "mentor", "yes"))

	// Hide mentor again.
	require.NoError(t, flow.RecordAnswer(ctx, "years", 3))
	assert.Len(t, flow.Visible(), 2)
	v, ok := flow.Answer("mentor")
	assert.True(t, ok, "hidden question keeps its answer")
	assert.Equal(t, "yes", v)

	// Re-show: prior answer reappears unchanged.
	require.NoError(t, flow.RecordAnswer(ctx, "years", 8))
	assert.Len(t, flow.Visible(), 3)
	v, _ = flow.Answer("mentor")
	assert.Equal(t, "yes", v)
}

func TestFlow_IdempotentCompletion(t *testing.T) {
	ctx := context.Background()

	completions := 0
	flow := NewFlow([]domain.Question{{ID: "only", Type: domain.TypeText}},
		WithHooks(domain.LifecycleHooks{
			OnComplete: func(context.Context, domain.AnswerMap, []string) { completions++ },
		}))
	defer flow.Close()

	assert.True(t, flow.Next(ctx))
	assert.True(t, flow.Completed())

	// Further navigation is inert: no state change, no second OnComplete.
	assert.False(t, flow.Next(ctx))
	assert.False(t, flow.Previous(ctx))
	assert.False(t, flow.Skip(ctx))
	assert.Equal(t, 1, completions)

	assert.ErrorIs(t, flow.RecordAnswer(ctx, "only", "late"), domain.ErrFlowComplete)
}

func TestFlow_EmptyVisibleListCompletesImmediately(t *testing.T) {
	ctx := context.Background()

	questions := []domain.Question{
		{ID: "gated", Type: domain.TypeText, Conditions: []domain.Condition{
			{DependsOn: "nothing", Operator: domain.OpEquals, Value: "x"},
		}},
	}
	flow := NewFlow(questions)
	defer flow.Close()

	assert.Empty(t, flow.Visible())
	assert.True(t, flow.Next(ctx), "empty visible list must complete, not loop")
	assert.True(t, flow.Completed())
}

func TestFlow_AnswerChangeClearsError(t *testing.T) {
	ctx := context.Background()
	flow := NewFlow(surveyQuestions())
	defer flow.Close()

	assert.False(t, flow.Next(ctx))
	_, ok := flow.Error("role")
	require.True(t, ok)

	// Optimistic clearing: the error disappears on the next answer without
	// waiting for a successful validation.
	require.NoError(t, flow.RecordAnswer(ctx, "role", "dev"))
	_, ok = flow.Error("role")
	assert.False(t, ok)
}

func TestFlow_PreviousStopsAtZero(t *testing.T) {
	ctx := context.Background()
	flow := NewFlow(surveyQuestions())
	defer flow.Close()

	assert.False(t, flow.Previous(ctx))
	assert.Equal(t, 0, flow.Index())

	require.NoError(t, flow.RecordAnswer(ctx, "role", "dev"))
	require.True(t, flow.Next(ctx))
	assert.Equal(t, 1, flow.Index())

	// Previous never validates, even with the current question unanswered.
	assert.True(t, flow.Previous(ctx))
	assert.Equal(t, 0, flow.Index())
}

func TestFlow_IndexClampWhenVisibleShrinks(t *testing.T) {
	ctx := context.Background()
	flow := NewFlow(surveyQuestions())
	defer flow.Close()

	require.NoError(t, flow.RecordAnswer(ctx, "role", "dev"))
	require.NoError(t, flow.RecordAnswer(ctx, "years", 8))
	flow.Next(ctx)
	flow.Next(ctx)
	require.Equal(t, 2, flow.Index())

	// Changing years hides mentor while it is the active question. The
	// cursor is clamped and Current re-derives from the new visible list.
	require.NoError(t, flow.RecordAnswer(ctx, "years", 2))
	assert.Equal(t, 1, flow.Index())
	current, ok := flow.Current()
	require.True(t, ok)
	assert.Equal(t, "years", current.ID)
}

func TestFlow_ToggleFlag(t *testing.T) {
	ctx := context.Background()

	type flagEvent struct {
		id      string
		flagged bool
	}
	var events []flagEvent
	flow := NewFlow(surveyQuestions(), WithHooks(domain.LifecycleHooks{
		OnQuestionFlag: func(_ context.Context, id string, flagged bool) {
			events = append(events, flagEvent{id, flagged})
		},
	}))
	defer flow.Close()

	require.NoError(t, flow.ToggleFlag(ctx, "years"))
	assert.Equal(t, []string{"years"}, flow.Flagged())

	// Hidden questions can be flagged too.
	require.NoError(t, flow.ToggleFlag(ctx, "mentor"))
	assert.Equal(t, []string{"mentor", "years"}, flow.Flagged())

	require.NoError(t, flow.ToggleFlag(ctx, "years"))
	assert.Equal(t, []string{"mentor"}, flow.Flagged())

	assert.Equal(t, []flagEvent{
		{"years", true},
		{"mentor", true},
		{"years", false},
	}, events)

	assert.ErrorIs(t, flow.ToggleFlag(ctx, "nope"), domain.ErrUnknownQuestion)
}

func TestFlow_NavigationHooks(t *testing.T) {
	ctx := context.Background()

	type nav struct {
		index     int
		direction domain.Direction
	}
	var navs []nav
	flow := NewFlow(surveyQuestions(), WithAllowSkip(), WithHooks(domain.LifecycleHooks{
		OnNavigationChange: func(_ context.Context, index int, direction domain.Direction) {
			navs = append(navs, nav{index, direction})
		},
	}))
	defer flow.Close()

	require.NoError(t, flow.RecordAnswer(ctx, "role", "dev"))
	flow.Next(ctx)
	flow.Previous(ctx)
	flow.Skip(ctx)

	// Validation failures emit no navigation event.
	flow.RecordAnswer(ctx, "years", nil)
	flow.Next(ctx)

	assert.Equal(t, []nav{
		{1, domain.DirectionNext},
		{0, domain.DirectionPrevious},
		{1, domain.DirectionNext},
	}, navs)
}

func TestFlow_SeededSession(t *testing.T) {
	flow := NewFlow(surveyQuestions(),
		WithInitialAnswers(domain.AnswerMap{"role": "dev", "years": 8}),
		WithInitialFlagged([]string{"role"}),
		WithInitialIndex(2),
	)
	defer flow.Close()

	assert.Len(t, flow.Visible(), 3, "seeded answers drive visibility")
	assert.Equal(t, []string{"role"}, flow.Flagged())
	current, ok := flow.Current()
	require.True(t, ok)
	assert.Equal(t, "mentor", current.ID)
}

func TestFlow_RecordAnswerUnknownQuestion(t *testing.T) {
	flow := NewFlow(surveyQuestions())
	defer flow.Close()
	assert.ErrorIs(t, flow.RecordAnswer(context.Background(), "ghost", 1), domain.ErrUnknownQuestion)
}

func TestFlow_OnAnswerChangeHook(t *testing.T) {
	ctx := context.Background()

	var gotID string
	var gotAnswers domain.AnswerMap
	flow := NewFlow(surveyQuestions(), WithHooks(domain.LifecycleHooks{
		OnAnswerChange: func(_ context.Context, id string, _ any, answers domain.AnswerMap) {
			gotID = id
			gotAnswers = answers
		},
	}))
	defer flow.Close()

	require.NoError(t, flow.RecordAnswer(ctx, "role", "dev"))
	assert.Equal(t, "role", gotID)
	assert.Equal(t, domain.AnswerMap{"role": "dev"}, gotAnswers)

	// The hook receives a snapshot, not the live map.
	gotAnswers["role"] = "tampered"
	v, _ := flow.Answer("role")
	assert.Equal(t, "dev", v)
}

func TestFlow_ErrorClearedWhenValidationLaterPasses(t *testing.T) {
	ctx := context.Background()

	// An out-of-band check that is still pending on the first attempt and
	// has settled before the second, the way a host-run async validator
	// behaves.
	pending := true
	custom := func(q domain.Question, _ any) string {
		if q.ID == "role" && pending {
			return "confirmation pending"
		}
		return ""
	}

	flow := NewFlow(surveyQuestions(), WithCustomValidator(custom))
	defer flow.Close()

	require.NoError(t, flow.RecordAnswer(ctx, "role", "dev"))
	require.False(t, flow.Next(ctx))
	reason, ok := flow.Error("role")
	require.True(t, ok)
	assert.Equal(t, "confirmation pending", reason)

	pending = false
	require.True(t, flow.Next(ctx))
	_, ok = flow.Error("role")
	assert.False(t, ok, "a passing validation removes the recorded error")
	assert.Empty(t, flow.Errors())
}

func TestFlow_ValidatingFlagIsAdvisory(t *testing.T) {
	ctx := context.Background()

	flow := NewFlow(surveyQuestions())
	defer flow.Close()

	assert.False(t, flow.Validating())
	flow.SetValidating(true)
	assert.True(t, flow.Validating())

	// The engine never gates on the flag; holding navigation while a remote
	// check is in flight is the host's job.
	require.NoError(t, flow.RecordAnswer(ctx, "role", "dev"))
	assert.True(t, flow.Next(ctx))
	assert.Equal(t, 1, flow.Index())

	flow.SetValidating(false)
	assert.False(t, flow.Validating())
}
