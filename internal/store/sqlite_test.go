package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testUser() *User {
	return &User{ID: "u-1", FirstName: "Ana", LastName: "López", Email: "ana@example.com", Role: RoleBusiness}
}

func TestNewSessionRejectsTokenWithoutUser(t *testing.T) {
	_, err := NewSession("sid", "tok", nil, time.Now(), time.Hour)
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = NewSession("sid", "", testUser(), time.Now(), time.Hour)
	assert.ErrorIs(t, err, ErrInvalidSession)

	s, err := NewSession("sid", "tok", testUser(), time.Now(), time.Hour)
	require.NoError(t, err)
	assert.True(t, s.Valid())
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	s, err := NewSession("sid", "tok", testUser(), now, time.Minute)
	require.NoError(t, err)

	assert.False(t, s.Expired(now))
	assert.True(t, s.Expired(now.Add(time.Minute)))
}

func TestSQLiteSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created := time.UnixMilli(time.Now().UnixMilli())
	session, err := NewSession("sid-1", "tok-1", testUser(), created, time.Hour)
	require.NoError(t, err)
	require.NoError(t, s.SaveSession(ctx, session))

	got, err := s.GetSession(ctx, "sid-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "tok-1", got.Token)
	assert.Equal(t, *testUser(), *got.User)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.True(t, got.ExpiresAt.Equal(created.Add(time.Hour)))

	session.Token = "tok-2"
	require.NoError(t, s.SaveSession(ctx, session))
	got, err = s.GetSession(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-2", got.Token)

	require.NoError(t, s.DeleteSession(ctx, "sid-1"))
	got, err = s.GetSession(ctx, "sid-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteSaveSessionRejectsInvalid(t *testing.T) {
	s := newTestStore(t)
	err := s.SaveSession(context.Background(), &Session{ID: "sid", Token: "tok"})
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestSQLiteDeleteExpiredSessions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now()

	old, err := NewSession("old", "tok", testUser(), now.Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)
	fresh, err := NewSession("fresh", "tok", testUser(), now, time.Hour)
	require.NoError(t, err)
	require.NoError(t, s.SaveSession(ctx, old))
	require.NoError(t, s.SaveSession(ctx, fresh))

	n, err := s.DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := s.GetSession(ctx, "fresh")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestSQLiteContactRequests(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Now()

	for i, product := range []string{"Widget A", "Widget B"} {
		req := &ContactRequest{
			UserID:        "u-1",
			City:          "Monterrey",
			ProfessionID:  "p-1",
			Category:      "Plomería",
			ProductID:     "prod-" + product,
			ProductName:   product,
			ProviderName:  "Acme",
			ProviderPhone: "555",
			CreatedAt:     base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, s.CreateContactRequest(ctx, req))
		assert.NotEmpty(t, req.ID)
	}
	require.NoError(t, s.CreateContactRequest(ctx, &ContactRequest{UserID: "u-2", ProductName: "Other"}))

	list, err := s.ListContactRequests(ctx, "u-1", 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Widget B", list[0].ProductName)
	assert.Equal(t, "Widget A", list[1].ProductName)

	err = s.CreateContactRequest(ctx, &ContactRequest{})
	assert.Error(t, err)
}
