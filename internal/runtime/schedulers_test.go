package runtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func autoAdvanceQuestions() []domain.Question {
	return []domain.Question{
		{ID: "confirm", Type: domain.TypeYesNo, Text: "Ready?", Required: true},
		{ID: "notes", Type: domain.TypeText, Text: "Notes?"},
	}
}

func TestAutoAdvance_FiresAfterDelay(t *testing.T) {
	ctx := context.Background()
	flow := NewFlow(autoAdvanceQuestions(), WithAutoAdvance(20*time.Millisecond))
	defer flow.Close()

	require.NoError(t, flow.RecordAnswer(ctx, "confirm", "yes"))

	assert.Equal(t, 0, flow.Index(), "advance must wait for the delay")
	assert.Eventually(t, func() bool { return flow.Index() == 1 },
		time.Second, 5*time.Millisecond)
}

func TestAutoAdvance_Debounce(t *testing.T) {
	ctx := context.Background()

	var mu sync.Mutex
	navs := 0
	flow := NewFlow(autoAdvanceQuestions(),
		WithAutoAdvance(30*time.Millisecond),
		WithHooks(domain.LifecycleHooks{
			OnNavigationChange: func(context.Context, int, domain.Direction) {
				mu.Lock()
				navs++
				mu.Unlock()
			},
		}))
	defer flow.Close()

	// Two answers inside the window: one eventual advance, based on the
	// second answer.
	require.NoError(t, flow.RecordAnswer(ctx, "confirm", "yes"))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, flow.RecordAnswer(ctx, "confirm", "no"))

	assert.Eventually(t, func() bool { return flow.Index() == 1 },
		time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, navs, "debounce must coalesce to a single advance")
	v, _ := flow.Answer("confirm")
	assert.Equal(t, "no", v)
}

func TestAutoAdvance_ManualNavigationSupersedes(t *testing.T) {
	ctx := context.Background()
	flow := NewFlow(autoAdvanceQuestions(), WithAutoAdvance(30*time.Millisecond))
	defer flow.Close()

	require.NoError(t, flow.RecordAnswer(ctx, "confirm", "yes"))
	assert.True(t, flow.Next(ctx))
	require.Equal(t, 1, flow.Index())

	// The pending timer is a no-op once it fires.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, flow.Index())
	assert.False(t, flow.Completed())
}

func TestAutoAdvance_OnlySingleSelectTypes(t *testing.T) {
	ctx := context.Background()

	questions := []domain.Question{
		{ID: "free", Type: domain.TypeText, Text: "Say something"},
		{
			ID:     "multi",
			Type:   domain.TypeMultipleChoice,
			Text:   "Pick several",
			Config: map[string]any{domain.ConfigKeyMultipleSelection: true},
		},
		{ID: "end", Type: domain.TypeText},
	}
	flow := NewFlow(questions, WithAutoAdvance(10*time.Millisecond))
	defer flow.Close()

	require.NoError(t, flow.RecordAnswer(ctx, "free", "hello"))
	require.NoError(t, flow.RecordAnswer(ctx, "multi", []string{"a", "b"}))

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 0, flow.Index(), "free-text and multi-select answers must not auto-advance")
}

func TestAutoSave_EmitsSnapshotsWhileActive(t *testing.T) {
	ctx := context.Background()

	var mu sync.Mutex
	var saves []domain.AnswerMap
	flow := NewFlow(autoAdvanceQuestions(),
		WithAutoSave(15*time.Millisecond),
		WithHooks(domain.LifecycleHooks{
			OnAutoSave: func(_ context.Context, answers domain.AnswerMap) {
				mu.Lock()
				saves = append(saves, answers)
				mu.Unlock()
			},
		}))
	defer flow.Close()

	require.NoError(t, flow.RecordAnswer(ctx, "confirm", "yes"))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(saves) >= 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	first := saves[0]
	mu.Unlock()

	// Snapshots are by value: mutating the flow afterwards cannot change
	// what was handed to the callback.
	require.NoError(t, flow.RecordAnswer(ctx, "confirm", "no"))
	assert.Equal(t, "yes", first["confirm"])
}

func TestAutoSave_StopsOnCompletion(t *testing.T) {
	ctx := context.Background()

	var mu sync.Mutex
	saves := 0
	flow := NewFlow([]domain.Question{{ID: "only", Type: domain.TypeText}},
		WithAutoSave(10*time.Millisecond),
		WithHooks(domain.LifecycleHooks{
			OnAutoSave: func(context.Context, domain.AnswerMap) {
				mu.Lock()
				saves++
				mu.Unlock()
			},
		}))
	defer flow.Close()

	require.True(t, flow.Next(ctx))
	require.True(t, flow.Completed())

	mu.Lock()
	after := saves
	mu.Unlock()
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, after, saves, "auto-save must stop at completion")
}

func TestAutoSave_CallbackPanicDoesNotCrashFlow(t *testing.T) {
	// A failing persistence callback never blocks or kills the flow; it is
	// swallowed and the next tick fires normally.
	ctx := context.Background()

	var mu sync.Mutex
	calls := 0
	flow := NewFlow(autoAdvanceQuestions(),
		WithAutoSave(10*time.Millisecond),
		WithHooks(domain.LifecycleHooks{
			OnAutoSave: func(context.Context, domain.AnswerMap) {
				mu.Lock()
				calls++
				mu.Unlock()
				panic("persistence backend down")
			},
		}))
	defer flow.Close()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls >= 2
	}, time.Second, 5*time.Millisecond)

	// Navigation is unaffected by the failing callback.
	require.NoError(t, flow.RecordAnswer(ctx, "confirm", "yes"))
	assert.True(t, flow.Next(ctx))
}

func TestClose_Idempotent(t *testing.T) {
	flow := NewFlow(autoAdvanceQuestions(),
		WithAutoAdvance(10*time.Millisecond),
		WithAutoSave(10*time.Millisecond))

	require.NoError(t, flow.RecordAnswer(context.Background(), "confirm", "yes"))
	flow.Close()
	flow.Close()

	// No timer outlives teardown.
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 0, flow.Index())
	assert.ErrorIs(t, flow.RecordAnswer(context.Background(), "confirm", "no"), domain.ErrFlowComplete)
}

func TestClose_AfterCompletion(t *testing.T) {
	ctx := context.Background()
	flow := NewFlow([]domain.Question{{ID: "only", Type: domain.TypeText}},
		WithAutoSave(10*time.Millisecond))

	require.True(t, flow.Next(ctx))
	flow.Close()
}

func TestAutoAdvance_StaleFireCannotDoubleAdvance(t *testing.T) {
	ctx := context.Background()

	flow := NewFlow(surveyQuestions(), WithAutoAdvance(time.Hour))
	defer flow.Close()

	require.NoError(t, flow.RecordAnswer(ctx, "role", "dev"))

	flow.mu.Lock()
	seq := flow.advanceSeq
	flow.mu.Unlock()

	// Manual navigation supersedes the pending advance...
	require.NoError(t, flow.RecordAnswer(ctx, "years", 3))
	require.True(t, flow.Next(ctx))
	require.Equal(t, 1, flow.Index())

	// ...so its timer firing afterwards must not move the cursor again,
	// even though the flow is otherwise free to advance from here.
	flow.fireAdvance(seq)
	assert.Equal(t, 1, flow.Index())
	assert.False(t, flow.Completed())
}
