// Package store persists server-side sessions and contact requests.
package store

import (
	"context"
	"time"
)

// SessionStore persists visitor sessions keyed by session ID.
type SessionStore interface {
	// SaveSession creates or replaces a session. Invalid sessions are rejected.
	SaveSession(ctx context.Context, session *Session) error

	// GetSession returns nil, nil when the session does not exist.
	GetSession(ctx context.Context, id string) (*Session, error)

	DeleteSession(ctx context.Context, id string) error

	// DeleteExpiredSessions removes sessions that expired before now.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	Close() error
}

// ContactStore records confirmed provider contacts.
type ContactStore interface {
	CreateContactRequest(ctx context.Context, req *ContactRequest) error
	ListContactRequests(ctx context.Context, userID string, limit int) ([]ContactRequest, error)
}
