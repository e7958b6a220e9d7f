package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"proviai.com/provider-assistant/internal/auth"
	"proviai.com/provider-assistant/internal/client"
	"proviai.com/provider-assistant/internal/store"
)

// AuthClient is the part of the backend client used for accounts.
type AuthClient interface {
	Register(ctx context.Context, req client.RegisterRequest) (*client.AuthResponse, error)
	Login(ctx context.Context, req client.LoginRequest) (*client.AuthResponse, error)
}

type SessionService struct {
	store  store.SessionStore
	auth   AuthClient
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

func NewSessionService(st store.SessionStore, authClient AuthClient, ttl time.Duration, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		store:  st,
		auth:   authClient,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Open returns the holder for a session ID. Unknown, expired or
// backend-expired sessions yield an empty holder and are removed.
func (s *SessionService) Open(ctx context.Context, sessionID string) (*SessionHolder, error) {
	if sessionID == "" {
		return newSessionHolder(s.store, s.ttl, nil, s.logger), nil
	}

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return newSessionHolder(s.store, s.ttl, nil, s.logger), nil
	}

	now := s.now()
	if !session.Valid() || session.Expired(now) || auth.TokenExpired(session.Token, now) {
		s.logger.Info("Discarding expired session", zap.String("session_id", sessionID))
		if err := s.store.DeleteSession(ctx, sessionID); err != nil {
			s.logger.Warn("Failed to delete expired session", zap.String("session_id", sessionID), zap.Error(err))
		}
		return newSessionHolder(s.store, s.ttl, nil, s.logger), nil
	}

	return newSessionHolder(s.store, s.ttl, session, s.logger), nil
}

// Register validates the form before calling the backend. It reports
// whether the visitor ended up signed in; backends that only create the
// account leave the holder empty.
func (s *SessionService) Register(ctx context.Context, h *SessionHolder, in auth.RegistrationInput) (bool, error) {
	role, err := auth.ValidateRegistration(in)
	if err != nil {
		return false, err
	}

	res, err := s.auth.Register(ctx, client.RegisterRequest{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     strings.TrimSpace(in.Email),
		Password:  in.Password,
		Role:      role,
	})
	if err != nil {
		return false, fmt.Errorf("registration failed: %w", err)
	}

	if res.Token == "" || res.User == nil {
		s.logger.Info("Registration completed without session", zap.String("email", in.Email))
		return false, nil
	}
	if err := h.Set(ctx, res.Token, res.User); err != nil {
		return false, err
	}
	s.logger.Info("User registered", zap.String("user_id", res.User.ID))
	return true, nil
}

func (s *SessionService) Login(ctx context.Context, h *SessionHolder, email, password string) error {
	if err := auth.ValidateLogin(email, password); err != nil {
		return err
	}

	res, err := s.auth.Login(ctx, client.LoginRequest{Email: strings.TrimSpace(email), Password: password})
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if err := h.Set(ctx, res.Token, res.User); err != nil {
		return err
	}
	s.logger.Info("User logged in", zap.String("user_id", res.User.ID))
	return nil
}

func (s *SessionService) Logout(ctx context.Context, h *SessionHolder) error {
	userID := ""
	if u := h.User(); u != nil {
		userID = u.ID
	}
	if err := h.Clear(ctx); err != nil {
		return err
	}
	s.logger.Info("User logged out", zap.String("user_id", userID))
	return nil
}

// PurgeExpired removes expired sessions from the store.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.store.DeleteExpiredSessions(ctx, s.now())
}
