package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// GenerateSessionToken signs the visitor cookie value. The subject is the
// server-side session ID.
func GenerateSessionToken(secret, sessionID string, ttl time.Duration) (string, error) {
	if secret == "" || sessionID == "" {
		return "", ErrInvalidToken
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": sessionID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateSessionToken returns the session ID carried by a cookie token.
func ValidateSessionToken(secret, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		if sub, err := claims.GetSubject(); err == nil && sub != "" {
			return sub, nil
		}
	}

	return "", ErrInvalidToken
}

// TokenExpired reports whether a backend token is a JWT whose exp claim is
// at or before now. The signature is not checked: backend tokens are opaque
// to this process and anything that does not parse counts as not expired.
func TokenExpired(tokenString string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}
