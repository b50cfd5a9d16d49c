package bank

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

// Bank provides randomized, non-repeating question selection. It is an
// explicit per-session object with injected usage storage: no module-level
// state tracks what has been handed out, the UsageStore does.
type Bank struct {
	mu        sync.Mutex
	questions []domain.Question
	usage     ports.UsageStore
	used      map[string]bool
	rng       *rand.Rand
	logger    *slog.Logger
}

// Option configures the Bank.
type Option func(*Bank)

// WithSeed fixes the random source, for reproducible draws in tests.
func WithSeed(seed uint64) Option {
	return func(b *Bank) {
		b.rng = rand.New(rand.NewPCG(seed, seed))
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bank) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New constructs a bank over the question pool, restoring the drawn set from
// the usage store.
func New(ctx context.Context, questions []domain.Question, usage ports.UsageStore, opts ...Option) (*Bank, error) {
	b := &Bank{
		questions: questions,
		usage:     usage,
		used:      make(map[string]bool),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.rng == nil {
		b.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	ids, err := usage.LoadUsed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load used questions: %w", err)
	}
	for _, id := range ids {
		b.used[id] = true
	}
	return b, nil
}

// Draw returns a random question that has not been handed out yet and
// persists the updated usage set. Returns domain.ErrBankExhausted when the
// pool is spent.
func (b *Bank) Draw(ctx context.Context) (domain.Question, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	candidates := b.unusedLocked()
	if len(candidates) == 0 {
		return domain.Question{}, domain.ErrBankExhausted
	}

	q := candidates[b.rng.IntN(len(candidates))]
	b.used[q.ID] = true

	if err := b.saveLocked(ctx); err != nil {
		// Roll back so a retry can draw again without losing the question.
		delete(b.used, q.ID)
		return domain.Question{}, err
	}

	b.logger.Debug("question drawn", "id", q.ID, "remaining", len(candidates)-1)
	return q, nil
}

// DrawN draws up to n distinct questions, stopping early at exhaustion.
func (b *Bank) DrawN(ctx context.Context, n int) ([]domain.Question, error) {
	out := make([]domain.Question, 0, n)
	for i := 0; i < n; i++ {
		q, err := b.Draw(ctx)
		if err == domain.ErrBankExhausted {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, q)
	}
	return out, nil
}

// Remaining reports how many questions are still available.
func (b *Bank) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.unusedLocked())
}

// Reset clears the drawn set, making every question available again.
func (b *Bank) Reset(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.used = make(map[string]bool)
	return b.saveLocked(ctx)
}

func (b *Bank) unusedLocked() []domain.Question {
	var out []domain.Question
	for _, q := range b.questions {
		if !b.used[q.ID] {
			out = append(out, q)
		}
	}
	return out
}

func (b *Bank) saveLocked(ctx context.Context) error {
	ids := make([]string, 0, len(b.used))
	for _, q := range b.questions {
		if b.used[q.ID] {
			ids = append(ids, q.ID)
		}
	}
	if err := b.usage.SaveUsed(ctx, ids); err != nil {
		return fmt.Errorf("failed to persist used questions: %w", err)
	}
	return nil
}
