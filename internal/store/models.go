package store

import (
	"errors"
	"strings"
	"time"
)

type Role string

const (
	RoleProfessional Role = "professional"
	RoleBusiness     Role = "business"
)

func (r Role) Valid() bool {
	return r == RoleProfessional || r == RoleBusiness
}

// ParseRole normalizes a role string; blank input yields RoleProfessional.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if r == "" {
		return RoleProfessional, true
	}
	return r, r.Valid()
}

type User struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// ErrInvalidSession is returned when a token would be stored without its user
// (or a user without a token).
var ErrInvalidSession = errors.New("session requires both a token and a user")

type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	User      *User     `json:"user"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewSession is the only constructor for a populated session.
func NewSession(id, token string, user *User, createdAt time.Time, ttl time.Duration) (*Session, error) {
	if id == "" || token == "" || user == nil {
		return nil, ErrInvalidSession
	}
	u := *user
	return &Session{
		ID:        id,
		Token:     token,
		User:      &u,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(ttl),
	}, nil
}

func (s *Session) Valid() bool {
	return s != nil && s.ID != "" && s.Token != "" && s.User != nil
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// ContactRequest records a confirmed "contact this provider" outcome.
type ContactRequest struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	City          string    `json:"city"`
	ProfessionID  string    `json:"profession_id"`
	Category      string    `json:"category"`
	ProductID     string    `json:"product_id"`
	ProductName   string    `json:"product_name"`
	ProviderName  string    `json:"provider_name"`
	ProviderPhone string    `json:"provider_phone"`
	CreatedAt     time.Time `json:"created_at"`
}
