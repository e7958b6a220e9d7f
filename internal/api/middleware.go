package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"proviai.com/provider-assistant/internal/auth"
	"proviai.com/provider-assistant/internal/core"
)

type contextKey int

const (
	sessionKey contextKey = iota
	themeKey
)

func SessionFromContext(ctx context.Context) *core.SessionHolder {
	if v, ok := ctx.Value(sessionKey).(*core.SessionHolder); ok {
		return v
	}
	return nil
}

func ThemeFromContext(ctx context.Context) *core.ThemeHolder {
	if v, ok := ctx.Value(themeKey).(*core.ThemeHolder); ok {
		return v
	}
	return nil
}

// RequestLogger logs one line per request with zap.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("remote", r.RemoteAddr),
			}
			if status >= http.StatusInternalServerError {
				logger.Error("request", fields...)
			} else {
				logger.Info("request", fields...)
			}
		})
	}
}

// LoadSession resolves the visitor's session and theme for every request.
func (h *APIHandler) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		sessionID := ""
		if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
			id, err := auth.ValidateSessionToken(h.secret, c.Value)
			if err != nil {
				h.logger.Debug("Rejected session cookie", zap.Error(err))
				h.clearSessionCookie(w)
			} else {
				sessionID = id
			}
		}

		holder, err := h.sessions.Open(ctx, sessionID)
		if err != nil {
			h.logger.Error("Failed to open session", zap.String("session_id", sessionID), zap.Error(err))
			http.Error(w, "Failed to load session", http.StatusInternalServerError)
			return
		}
		if sessionID != "" && !holder.Authenticated() {
			h.wizards.Drop(sessionID)
			h.clearSessionCookie(w)
		}

		w.Header().Set("Accept-CH", prefersColorSchemeHeader)
		theme := core.NewThemeHolder(&cookieThemeStore{w: w, r: r, secure: h.secureCookies}, systemTheme(r))

		ctx = context.WithValue(ctx, sessionKey, holder)
		ctx = context.WithValue(ctx, themeKey, theme)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireSession redirects signed-out visitors to the login page.
func (h *APIHandler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s := SessionFromContext(r.Context()); s == nil || !s.Authenticated() {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSessionAPI answers 401 to signed-out visitors.
func (h *APIHandler) RequireSessionAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s := SessionFromContext(r.Context()); s == nil || !s.Authenticated() {
			Error(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PublicOnly sends signed-in visitors to the dashboard.
func (h *APIHandler) PublicOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s := SessionFromContext(r.Context()); s != nil && s.Authenticated() {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
