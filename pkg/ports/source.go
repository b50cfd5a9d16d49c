package ports

import "context"

// QuestionSource defines how the engine retrieves questionnaire definitions.
// This decouples the storage layer (filesystem, memory, remote) from flow
// construction.
type QuestionSource interface {
	// Get retrieves the raw questionnaire document by ID. The compiler turns
	// the bytes into a domain.Questionnaire.
	Get(ctx context.Context, id string) ([]byte, error)

	// List returns the questionnaire IDs available from this source.
	List(ctx context.Context) ([]string, error)
}

// UsageStore persists the set of question ids a bank has already handed out.
// Injecting it keeps non-repeating selection free of hidden module state: a
// bank is constructed per session with whatever storage the host chooses.
type UsageStore interface {
	// LoadUsed returns the ids drawn so far.
	LoadUsed(ctx context.Context) ([]string, error)

	// SaveUsed replaces the drawn-id set.
	SaveUsed(ctx context.Context, ids []string) error
}
