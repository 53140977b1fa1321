// internal/auth/token_test.go
package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueParseRoundTrip(t *testing.T) {
	s := NewSigner([]byte("secret"), time.Hour)
	id := uuid.New()

	tok, err := s.Issue(id)
	require.NoError(t, err)

	got, err := s.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestParseRejectsForeignAndExpired(t *testing.T) {
	s := NewSigner([]byte("secret"), time.Minute)
	tok, err := s.Issue(uuid.New())
	require.NoError(t, err)

	other := NewSigner([]byte("other"), time.Minute)
	_, err = other.Parse(tok)
	require.ErrorIs(t, err, ErrInvalidToken)

	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = s.Parse(tok)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Parse("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}
