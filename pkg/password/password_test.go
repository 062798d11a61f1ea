package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hashed, err := h.Hash("password")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hashed, "$2a$04$"))
	assert.True(t, h.Verify("password", hashed))
	assert.False(t, h.Verify("Password", hashed))
}

func TestHasher_SaltPerHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	first, err := h.Hash("same")
	require.NoError(t, err)
	second, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify("same", first))
	assert.True(t, h.Verify("same", second))
}

func TestHasher_VerifyAcrossCosts(t *testing.T) {
	stored, err := NewHasher(bcrypt.MinCost).Hash("secret")
	require.NoError(t, err)

	assert.True(t, NewHasher(bcrypt.MinCost+1).Verify("secret", stored))
}

func TestHasher_MalformedStoredHash(t *testing.T) {
	h := NewHasher(0)
	assert.Equal(t, bcrypt.DefaultCost, h.cost)
	assert.False(t, h.Verify("x", "not-a-bcrypt-hash"))
}

func TestHasher_RejectsOverlongMultibyte(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	// 40 characters, 80 bytes
	_, err := h.Hash(strings.Repeat("п", 40))
	assert.ErrorIs(t, err, ErrTooLong)

	_, err = h.Hash(strings.Repeat("a", MaxBytes))
	assert.NoError(t, err)
}
