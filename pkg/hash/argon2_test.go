package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hasher := NewArgon2()

	encoded, err := hasher.Hash("Abc123!@")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$"))
	assert.Contains(t, encoded, "t=3")
	assert.Contains(t, encoded, "p=2")

	assert.True(t, hasher.Verify(encoded, "Abc123!@"))
	assert.False(t, hasher.Verify(encoded, "wrong-password"))
}

func TestHashIsSalted(t *testing.T) {
	hasher := NewArgon2()

	first, err := hasher.Hash("same-secret")
	require.NoError(t, err)
	second, err := hasher.Hash("same-secret")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, hasher.Verify(first, "same-secret"))
	assert.True(t, hasher.Verify(second, "same-secret"))
}

func TestVerifyMalformedHash(t *testing.T) {
	hasher := NewArgon2()

	cases := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"not a phc string", "plaintext"},
		{"wrong algorithm", "$bcrypt$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA"},
		{"missing sections", "$argon2id$v=19$m=65536,t=3,p=2"},
		{"bad salt encoding", "$argon2id$v=19$m=65536,t=3,p=2$!!!$aGFzaA"},
		{"excessive memory", "$argon2id$v=19$m=999999999,t=3,p=2$c2FsdA$aGFzaA"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, hasher.Verify(tc.encoded, "whatever"))
		})
	}
}
