package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"proviai.com/provider-assistant/internal/auth"
	"proviai.com/provider-assistant/internal/client"
)

const (
	msgLoginFailed    = "No pudimos iniciar sesión. Verifica tus datos."
	msgRegisterFailed = "No pudimos crear tu cuenta. Intenta de nuevo."
	msgServiceDown    = "El servicio no está disponible. Intenta más tarde."
	msgRegistered     = "Cuenta creada. Inicia sesión para continuar."
)

func (h *APIHandler) LoginPageHandler(w http.ResponseWriter, r *http.Request) {
	data := h.newPage(r, "Iniciar sesión")
	if r.URL.Query().Get("registered") == "1" {
		data.Flash = msgRegistered
	}
	h.render(w, http.StatusOK, "login", data)
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	email := r.PostForm.Get("email")
	password := r.PostForm.Get("password")

	holder := SessionFromContext(r.Context())
	err := h.sessions.Login(r.Context(), holder, email, password)
	if err != nil {
		data := h.newPage(r, "Iniciar sesión")
		data.Form = map[string]string{"email": email}
		status := h.formError(data, err, msgLoginFailed)
		h.render(w, status, "login", data)
		return
	}

	if err := h.setSessionCookie(w, holder.ID()); err != nil {
		h.logger.Error("Failed to sign session cookie", zap.Error(err))
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *APIHandler) RegisterPageHandler(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "register", h.newPage(r, "Crear cuenta"))
}

func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	in := auth.RegistrationInput{
		FirstName:       r.PostForm.Get("firstName"),
		LastName:        r.PostForm.Get("lastName"),
		Email:           r.PostForm.Get("email"),
		Password:        r.PostForm.Get("password"),
		ConfirmPassword: r.PostForm.Get("confirmPassword"),
		Role:            r.PostForm.Get("role"),
	}

	holder := SessionFromContext(r.Context())
	signedIn, err := h.sessions.Register(r.Context(), holder, in)
	if err != nil {
		data := h.newPage(r, "Crear cuenta")
		data.Form = map[string]string{
			"firstName": in.FirstName,
			"lastName":  in.LastName,
			"email":     in.Email,
			"role":      in.Role,
		}
		status := h.formError(data, err, msgRegisterFailed)
		h.render(w, status, "register", data)
		return
	}

	if !signedIn {
		http.Redirect(w, r, "/login?registered=1", http.StatusSeeOther)
		return
	}
	if err := h.setSessionCookie(w, holder.ID()); err != nil {
		h.logger.Error("Failed to sign session cookie", zap.Error(err))
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// formError fills data with the error to show and returns the status.
func (h *APIHandler) formError(data *pageData, err error, fallback string) int {
	var vErr *auth.ValidationError
	switch {
	case errors.As(err, &vErr):
		data.Fields = map[string]string{vErr.Field: vErr.Message}
		return http.StatusUnprocessableEntity
	case client.IsRetryable(err):
		h.logger.Warn("Backend unavailable", zap.Error(err))
		data.Error = msgServiceDown
		return http.StatusBadGateway
	case errors.Is(err, client.ErrUnauthorized):
		data.Error = client.UserMessage(err, fallback)
		return http.StatusUnauthorized
	default:
		var reqErr *client.RequestError
		if errors.As(err, &reqErr) && reqErr.StatusCode >= 400 && reqErr.StatusCode < 500 {
			data.Error = client.UserMessage(err, fallback)
			return reqErr.StatusCode
		}
		h.logger.Error("Account request failed", zap.Error(err))
		data.Error = fallback
		return http.StatusInternalServerError
	}
}

func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	holder := SessionFromContext(r.Context())
	sessionID := holder.ID()
	if err := h.sessions.Logout(r.Context(), holder); err != nil {
		h.logger.Error("Failed to log out", zap.String("session_id", sessionID), zap.Error(err))
	}
	if sessionID != "" {
		h.wizards.Drop(sessionID)
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *APIHandler) ThemeToggleHandler(w http.ResponseWriter, r *http.Request) {
	theme, err := ThemeFromContext(r.Context()).Toggle()
	if err != nil {
		h.logger.Warn("Failed to persist theme", zap.Error(err))
	}

	if r.Header.Get("Accept") == "application/json" {
		JSON(w, http.StatusOK, map[string]string{"theme": string(theme)})
		return
	}
	http.Redirect(w, r, safeNext(r.FormValue("next"), "/"), http.StatusSeeOther)
}
