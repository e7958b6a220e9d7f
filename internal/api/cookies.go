package api

import (
	"net/http"
	"strings"
	"time"

	"proviai.com/provider-assistant/internal/auth"
	"proviai.com/provider-assistant/internal/core"
)

const (
	SessionCookieName = "provi_session"
	ThemeCookieName   = "theme"
	themeCookieMaxAge = 365 * 24 * time.Hour

	// Client hint sent by browsers that were asked for it via Accept-CH.
	prefersColorSchemeHeader = "Sec-CH-Prefers-Color-Scheme"
)

// cookieThemeStore keeps the theme in a long-lived cookie.
type cookieThemeStore struct {
	w      http.ResponseWriter
	r      *http.Request
	secure bool
}

func (s *cookieThemeStore) LoadTheme() (core.Theme, bool, error) {
	c, err := s.r.Cookie(ThemeCookieName)
	if err != nil {
		return "", false, nil
	}
	t, ok := core.ParseTheme(c.Value)
	return t, ok, nil
}

func (s *cookieThemeStore) SaveTheme(t core.Theme) error {
	http.SetCookie(s.w, &http.Cookie{
		Name:     ThemeCookieName,
		Value:    string(t),
		Path:     "/",
		MaxAge:   int(themeCookieMaxAge.Seconds()),
		Expires:  time.Now().Add(themeCookieMaxAge),
		SameSite: http.SameSiteLaxMode,
		Secure:   s.secure,
	})
	return nil
}

func systemTheme(r *http.Request) func() core.Theme {
	return func() core.Theme {
		if t, ok := core.ParseTheme(strings.Trim(r.Header.Get(prefersColorSchemeHeader), `"`)); ok {
			return t
		}
		return core.ThemeLight
	}
}

func (h *APIHandler) setSessionCookie(w http.ResponseWriter, sessionID string) error {
	token, err := auth.GenerateSessionToken(h.secret, sessionID, h.sessionTTL)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		Expires:  time.Now().Add(h.sessionTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secureCookies,
	})
	return nil
}

func (h *APIHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secureCookies,
	})
}

// safeNext returns next when it is a local path, else fallback.
func safeNext(next, fallback string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") && !strings.Contains(next, `\`) {
		return next
	}
	return fallback
}
