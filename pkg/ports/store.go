package ports

import (
	"context"

	"github.com/aretw0/canopy/pkg/domain"
)

// SnapshotStore defines the interface for persisting flow snapshots. This is
// the boundary behind auto-save and session resume; the engine itself never
// performs I/O.
type SnapshotStore interface {
	// Save persists the snapshot for a given session ID.
	Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error

	// Load retrieves the snapshot for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Snapshot, error)

	// Delete removes the snapshot for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the known session IDs.
	List(ctx context.Context) ([]string, error)
}

// UnlockFunc releases a held distributed lock.
type UnlockFunc func(ctx context.Context) error
