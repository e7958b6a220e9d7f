package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"proviai.com/provider-assistant/internal/store"
)

// SessionHolder is one visitor's identity. It is either empty or holds both
// a token and a user; every change is written through to the store first.
type SessionHolder struct {
	mu      sync.RWMutex
	store   store.SessionStore
	ttl     time.Duration
	session *store.Session
	logger  *zap.Logger
}

func newSessionHolder(st store.SessionStore, ttl time.Duration, session *store.Session, logger *zap.Logger) *SessionHolder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHolder{store: st, ttl: ttl, session: session, logger: logger}
}

// Set replaces the session with a fresh one under a new ID. The previous
// session, if any, is removed from the store; a failed removal is logged
// and left to the expiry purge.
func (h *SessionHolder) Set(ctx context.Context, token string, user *store.User) error {
	session, err := store.NewSession(uuid.NewString(), token, user, time.Now().UTC(), h.ttl)
	if err != nil {
		return err
	}
	if err := h.store.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	h.mu.Lock()
	previous := h.session
	h.session = session
	h.mu.Unlock()

	if previous != nil {
		if err := h.store.DeleteSession(ctx, previous.ID); err != nil {
			h.logger.Warn("Failed to delete previous session", zap.String("session_id", previous.ID), zap.Error(err))
		}
	}
	return nil
}

// Clear empties the holder. Clearing an empty holder is a no-op.
func (h *SessionHolder) Clear(ctx context.Context) error {
	h.mu.Lock()
	previous := h.session
	h.session = nil
	h.mu.Unlock()

	if previous == nil {
		return nil
	}
	if err := h.store.DeleteSession(ctx, previous.ID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// ID is the server-side session ID, or "" when signed out.
func (h *SessionHolder) ID() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.session == nil {
		return ""
	}
	return h.session.ID
}

func (h *SessionHolder) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.session == nil {
		return ""
	}
	return h.session.Token
}

// User returns a copy of the signed-in user, or nil.
func (h *SessionHolder) User() *store.User {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.session == nil || h.session.User == nil {
		return nil
	}
	u := *h.session.User
	return &u
}

func (h *SessionHolder) Authenticated() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.session.Valid()
}

func (h *SessionHolder) ExpiresAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.session == nil {
		return time.Time{}
	}
	return h.session.ExpiresAt
}
