package hasher

import (
	"golang.org/x/crypto/bcrypt"
)

// Hasher wraps the salted adaptive hash used for passwords and API key
// secrets.
type Hasher struct {
	cost int
}

// New creates a Hasher with the given bcrypt cost. Costs outside the
// valid range fall back to the library default.
func New(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash derives a one-way digest from the secret.
func (h *Hasher) Hash(secret string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether secret matches digest.
func (h *Hasher) Verify(secret, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret)) == nil
}
