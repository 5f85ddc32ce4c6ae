package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_HashAndCheck(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("password")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$"))
	assert.NotEqual(t, "password", hash)

	assert.True(t, h.Check("password", hash))
	assert.False(t, h.Check("Password", hash))
	assert.False(t, h.Check("", hash))
}

func TestBcryptHasher_SaltsEachHash(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, h.Check("same", a))
	assert.True(t, h.Check("same", b))
}

func TestBcryptHasher_CorruptHash_IsMismatch(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	assert.False(t, h.Check("password", ""))
	assert.False(t, h.Check("password", "not-a-bcrypt-hash"))
}

func TestNewBcryptHasher_OutOfRangeCost_UsesDefault(t *testing.T) {
	tests := []struct {
		name string
		cost int
		want int
	}{
		{name: "zero", cost: 0, want: DefaultBcryptCost},
		{name: "too large", cost: bcrypt.MaxCost + 1, want: DefaultBcryptCost},
		{name: "min", cost: bcrypt.MinCost, want: bcrypt.MinCost},
		{name: "explicit", cost: 12, want: 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewBcryptHasher(tt.cost)
			assert.Equal(t, tt.want, h.cost)
		})
	}
}

func TestBcryptHasher_ChecksHashFromDefaultCost(t *testing.T) {
	// cost 10で作成された既存ハッシュも照合できる
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), DefaultBcryptCost)
	require.NoError(t, err)

	h := NewBcryptHasher(bcrypt.MinCost)
	assert.True(t, h.Check("password", string(hash)))
}
