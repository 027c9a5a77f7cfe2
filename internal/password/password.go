package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = bcrypt.DefaultCost

// Hasher derives and checks salted bcrypt hashes with a tunable cost.
// Both operations are CPU-bound and safe for concurrent use.
type Hasher struct {
	cost      int
	dummyHash []byte
}

// NewHasher builds a Hasher, clamping out-of-range costs to the default.
func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	// Precomputed once so Verify against it costs the same as a real check.
	dummy, err := bcrypt.GenerateFromPassword([]byte("lotuslynx.dummy.credential"), cost)
	if err != nil {
		panic(fmt.Sprintf("password: generate dummy hash: %v", err))
	}
	return Hasher{cost: cost, dummyHash: dummy}
}

// Hash derives a one-way hash with a fresh random salt.
func (h Hasher) Hash(password string) (string, error) {
	sum, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(sum), nil
}

// Verify reports whether password matches the stored hash. A wrong
// password or a malformed hash is false, never an error.
func (h Hasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// VerifyDummy burns a full comparison against a throwaway hash so that
// login attempts for unknown usernames take as long as wrong-password
// attempts. It always returns false.
func (h Hasher) VerifyDummy(password string) bool {
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(password))
	return false
}
