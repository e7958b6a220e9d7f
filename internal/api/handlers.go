package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"proviai.com/provider-assistant/internal/client"
	"proviai.com/provider-assistant/internal/core"
	"proviai.com/provider-assistant/internal/store"
	"proviai.com/provider-assistant/web"
)

// ProviderSearcher is the authenticated provider search of the backend.
type ProviderSearcher interface {
	SearchProviders(ctx context.Context, token string, filters map[string]string) ([]client.Provider, error)
}

type ContactLister interface {
	ListContactRequests(ctx context.Context, userID string, limit int) ([]store.ContactRequest, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Sessions      *core.SessionService
	Wizards       *core.WizardRegistry
	Providers     ProviderSearcher
	Contacts      ContactLister
	Health        Pinger
	Renderer      *web.Renderer
	SessionSecret string
	SessionTTL    time.Duration
	SecureCookies bool
	Logger        *zap.Logger
}

type APIHandler struct {
	sessions      *core.SessionService
	wizards       *core.WizardRegistry
	providers     ProviderSearcher
	contacts      ContactLister
	health        Pinger
	renderer      *web.Renderer
	secret        string
	sessionTTL    time.Duration
	secureCookies bool
	logger        *zap.Logger
}

func NewAPIHandler(opts Options) *APIHandler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		sessions:      opts.Sessions,
		wizards:       opts.Wizards,
		providers:     opts.Providers,
		contacts:      opts.Contacts,
		health:        opts.Health,
		renderer:      opts.Renderer,
		secret:        opts.SessionSecret,
		sessionTTL:    opts.SessionTTL,
		secureCookies: opts.SecureCookies,
		logger:        logger,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// pageData is what every template receives.
type pageData struct {
	Title    string
	Path     string
	Theme    core.Theme
	User     *store.User
	Flash    string
	Error    string
	Fields   map[string]string
	Form     map[string]string
	Wizard   *core.State
	Contacts []store.ContactRequest
}

func (h *APIHandler) newPage(r *http.Request, title string) *pageData {
	data := &pageData{
		Title: title,
		Path:  r.URL.Path,
		Theme: core.ThemeLight,
	}
	if theme := ThemeFromContext(r.Context()); theme != nil {
		data.Theme = theme.Theme()
	}
	if session := SessionFromContext(r.Context()); session != nil {
		data.User = session.User()
	}
	return data
}

func (h *APIHandler) render(w http.ResponseWriter, status int, page string, data *pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.renderer.Render(w, page, data); err != nil {
		h.logger.Error("Failed to render page", zap.String("page", page), zap.Error(err))
	}
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.Ping(r.Context()); err != nil {
			h.logger.Warn("Health check failed", zap.Error(err))
			JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *APIHandler) LandingHandler(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "landing", h.newPage(r, ""))
}

// wizardStatus maps wizard control errors to HTTP statuses.
func wizardStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrWizardBusy),
		errors.Is(err, core.ErrWizardDone),
		errors.Is(err, core.ErrWizardNotStarted),
		errors.Is(err, core.ErrRunnerStopped):
		return http.StatusConflict
	case errors.Is(err, core.ErrEmptySelection):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
