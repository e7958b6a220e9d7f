package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "provi:session:abc", sessionKey("abc"))
}

// Runs against a live server only when REDIS_TEST_ADDR is set.
func TestRedisSessionStoreRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()

	s, err := NewRedisSessionStore(ctx, addr, "", 0)
	require.NoError(t, err)
	defer s.Close()

	id := uuid.NewString()
	session, err := NewSession(id, "tok", testUser(), time.Now(), time.Minute)
	require.NoError(t, err)
	require.NoError(t, s.SaveSession(ctx, session))

	got, err := s.GetSession(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "tok", got.Token)
	assert.Equal(t, testUser().Email, got.User.Email)

	require.NoError(t, s.DeleteSession(ctx, id))
	got, err = s.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)
}
