package password

import "golang.org/x/crypto/bcrypt"

// MaxBytes is the longest input bcrypt accepts. Length rules on the request
// count characters, so a multibyte password can pass them and still exceed it.
const MaxBytes = 72

var ErrTooLong = bcrypt.ErrPasswordTooLong

// Hasher hashes passwords with bcrypt. The salt and cost travel inside each
// hash, so a Hasher with a different cost still verifies older hashes.
type Hasher struct {
	cost int
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxBytes {
		return "", ErrTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches stored. A malformed stored hash
// is treated as a mismatch.
func (h *Hasher) Verify(plaintext, stored string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plaintext)) == nil
}

