package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)

	assert.NoError(t, h.Compare(hash, "password123"))
	assert.ErrorIs(t, h.Compare(hash, "password124"), ErrMismatch)

	err = h.Compare("not-a-hash", "password123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMismatch)
}

func TestBcryptHasherLength(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	_, err := h.Hash("short")
	assert.ErrorIs(t, err, ErrPasswordLength)

	_, err = h.Hash(strings.Repeat("a", MaxPasswordLen+1))
	assert.ErrorIs(t, err, ErrPasswordLength)
}

func TestBcryptHasherCost(t *testing.T) {
	assert.Equal(t, DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, DefaultCost, NewBcryptHasher(bcrypt.MaxCost+1).cost)

	h := NewBcryptHasher(bcrypt.MinCost)
	hash, err := h.Hash("password123")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}
