// Package hasher implements one-way password hashing with bcrypt.
//
// bcrypt is deliberately slow, so Hasher bounds the number of hash
// computations running at once; callers beyond that bound wait (or give up
// when their context ends) instead of piling onto every CPU.
package hasher

import (
	"context"
	"fmt"
	"runtime"

	"codeberg.org/gatekeep/server/internal/common"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// DefaultCost is the production work factor.
const DefaultCost = 12

// MaxPasswordBytes is the longest input bcrypt accepts, counted in bytes, not characters.
const MaxPasswordBytes = 72

// Hasher hashes and verifies passwords with a fixed bcrypt cost.
type Hasher struct {
	cost int
	sem  *semaphore.Weighted
}

// creates a hasher with the given bcrypt cost and concurrency bound.
// workers <= 0 means one slot per available CPU.
func New(cost, workers int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: bcrypt cost %d outside [%d, %d]", common.ErrConfiguration, cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	return &Hasher{
		cost: cost,
		sem:  semaphore.NewWeighted(int64(workers)),
	}, nil
}

// returns the configured work factor
func (h *Hasher) Cost() int {
	return h.cost
}

// Hash returns a salted bcrypt hash of password. The hash embeds salt and cost.
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", fmt.Errorf("%w: password must be at most %d bytes", common.ErrInvalidInput, MaxPasswordBytes)
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("failed to acquire hash slot: %w", err)
	}
	defer h.sem.Release(1)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hash), nil
}

// Verify reports whether password matches hash. Malformed hashes and
// cancelled contexts yield false.
func (h *Hasher) Verify(ctx context.Context, password, hash string) bool {
	if hash == "" {
		return false
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.sem.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
