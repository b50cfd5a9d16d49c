package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canopy/pkg/domain"
)

// RunSnapshotStoreContract runs a suite of tests verifying that a
// SnapshotStore implementation adheres to the interface contract. Adapter
// packages call it from their own tests.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := &domain.Snapshot{
			QuestionnaireID: "dev-survey",
			CurrentIndex:    2,
			Answers:         domain.AnswerMap{"role": "dev", "years": 8},
			Flagged:         []string{"role"},
			UpdatedAt:       time.Now().UTC(),
		}

		require.NoError(t, store.Save(ctx, sessionID, snap))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, snap.QuestionnaireID, loaded.QuestionnaireID)
		assert.Equal(t, snap.CurrentIndex, loaded.CurrentIndex)
		assert.Equal(t, "dev", loaded.Answers["role"])
		assert.Equal(t, []string{"role"}, loaded.Flagged)
		// JSON persistence may turn numbers into float64; presence is what
		// the contract guarantees.
		assert.NotNil(t, loaded.Answers["years"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, &domain.Snapshot{Answers: domain.AnswerMap{}}))
		require.NoError(t, store.Delete(ctx, sessionID))

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, &domain.Snapshot{Answers: domain.AnswerMap{}})
		_ = store.Save(ctx, id2, &domain.Snapshot{Answers: domain.AnswerMap{}})
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
