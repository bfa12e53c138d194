package linksign

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	s := NewSigner("secret", time.Hour)
	token, expiresAt, err := s.Sign("assignment-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 2*time.Second)

	id, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "assignment-1", id)
}

func TestVerifyRejectsTamperedAndForeignTokens(t *testing.T) {
	s := NewSigner("secret", time.Hour)
	token, _, err := s.Sign("assignment-1")
	require.NoError(t, err)

	_, err = NewSigner("other", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrSignature)

	_, err = s.Verify(token + "0")
	assert.ErrorIs(t, err, ErrSignature)

	_, err = s.Verify("garbage")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestVerifyExpired(t *testing.T) {
	s := NewSigner("secret", time.Minute)
	token, _, err := s.Sign("assignment-1")
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestSignRequiresSecret(t *testing.T) {
	_, _, err := NewSigner("", time.Minute).Sign("x")
	assert.Error(t, err)
}
