package auth

import (
	"context"
	"runtime"
	"sync"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

const (
	// MaxPasswordBytes is the bcrypt input limit. Longer inputs are cut to
	// this many bytes before hashing and before verifying.
	MaxPasswordBytes = 72
	DefaultCost      = 12
)

// PasswordHasher wraps bcrypt. At most parallelism hashes run at once so a
// burst of logins cannot occupy every CPU.
type PasswordHasher struct {
	cost int
	sem  *semaphore.Weighted

	dummyOnce sync.Once
	dummy     []byte
}

// NewPasswordHasher clamps cost to bcrypt's range (zero means DefaultCost)
// and parallelism to at least one (zero means GOMAXPROCS).
func NewPasswordHasher(cost, parallelism int) *PasswordHasher {
	switch {
	case cost == 0:
		cost = DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	return &PasswordHasher{cost: cost, sem: semaphore.NewWeighted(int64(parallelism))}
}

func (h *PasswordHasher) Cost() int { return h.cost }

// Hash returns a salted bcrypt hash of password.
func (h *PasswordHasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	buf := truncate(password)
	defer common.WipeByteArray(buf)

	hash, err := bcrypt.GenerateFromPassword(buf, h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether password matches hash. A mismatch or an unparsable
// hash yields false with a nil error; only context cancellation is an error.
func (h *PasswordHasher) Verify(ctx context.Context, password, hash string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	buf := truncate(password)
	defer common.WipeByteArray(buf)

	// ErrMismatchedHashAndPassword and malformed hashes look the same here.
	return bcrypt.CompareHashAndPassword([]byte(hash), buf) == nil, nil
}

// VerifyDummy burns the same time as a real Verify against a fixed hash and
// always reports false. Login uses it for unknown accounts.
func (h *PasswordHasher) VerifyDummy(ctx context.Context, password string) error {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("taskkeeper-dummy-password"), h.cost)
	})
	_, err := h.Verify(ctx, password, string(h.dummy))
	return err
}

func truncate(password string) []byte {
	b := []byte(password)
	if len(b) > MaxPasswordBytes {
		b = b[:MaxPasswordBytes]
	}
	return b
}
