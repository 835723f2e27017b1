package auth

import (
	"context"
	"fmt"
	"runtime"

	"github.com/dmitrijs2005/idkeeper/internal/common"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 10

// maxSecretLength is the bcrypt input limit; longer input would be truncated.
const maxSecretLength = 72

// HashSecret returns a bcrypt digest of plaintext. The digest embeds the cost
// and a random salt, so hashing the same plaintext twice gives different
// strings.
func HashSecret(plaintext string, cost int) (string, error) {
	if plaintext == "" {
		return "", common.ErrMissingField
	}
	if len(plaintext) > maxSecretLength {
		return "", common.ErrSecretTooLong
	}

	h, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(h), nil
}

// VerifySecret reports whether plaintext matches digest. A malformed digest
// is a mismatch, and so is a plaintext HashSecret would have refused, since
// bcrypt would otherwise compare only its first 72 bytes. bcrypt recomputes
// the hash and compares in constant time.
func VerifySecret(plaintext, digest string) bool {
	if len(plaintext) > maxSecretLength {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// Hasher runs HashSecret and VerifySecret on a bounded number of slots so a
// burst of logins cannot occupy every CPU with bcrypt at once.
type Hasher struct {
	cost  int
	sem   *semaphore.Weighted
	dummy string
}

// NewHasher creates a Hasher with the given cost and number of concurrent
// slots (workers < 1 means runtime.NumCPU()).
func NewHasher(cost, workers int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	seed, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, fmt.Errorf("dummy digest seed: %w", err)
	}
	dummy, err := HashSecret(seed, cost)
	if err != nil {
		return nil, err
	}

	return &Hasher{cost: cost, sem: semaphore.NewWeighted(int64(workers)), dummy: dummy}, nil
}

func (h *Hasher) Cost() int { return h.cost }

// Hash waits for a free slot and hashes plaintext with the configured cost.
func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	return HashSecret(plaintext, h.cost)
}

// Verify waits for a free slot and checks plaintext against digest. The
// error is non-nil only when ctx ends before a slot is available.
func (h *Hasher) Verify(ctx context.Context, plaintext, digest string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	return VerifySecret(plaintext, digest), nil
}

// VerifyAbsent spends one comparison against a throwaway digest. Login calls
// it for unknown identifiers so both failure paths cost the same.
func (h *Hasher) VerifyAbsent(ctx context.Context, plaintext string) error {
	_, err := h.Verify(ctx, plaintext, h.dummy)
	return err
}
