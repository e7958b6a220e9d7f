package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"proviai.com/provider-assistant/web"
)

func NewRouter(apiHandler *APIHandler, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Get("/health", apiHandler.HealthHandler)
	r.Handle("/static/*", web.StaticHandler())

	r.Group(func(r chi.Router) {
		r.Use(apiHandler.LoadSession)

		r.Get("/", apiHandler.LandingHandler)
		r.Post("/logout", apiHandler.LogoutHandler)
		r.Post("/theme/toggle", apiHandler.ThemeToggleHandler)

		// Signed-out visitors only
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.PublicOnly)
			r.Get("/login", apiHandler.LoginPageHandler)
			r.Post("/login", apiHandler.LoginHandler)
			r.Get("/register", apiHandler.RegisterPageHandler)
			r.Post("/register", apiHandler.RegisterHandler)
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Use(apiHandler.RequireSession)
			r.Get("/", apiHandler.DashboardHandler)
			r.Get("/contacts", apiHandler.ContactsHandler)
		r.Get("/profile", apiHandler.ProfileHandler)
			r.Post("/chat", apiHandler.ChatSelectHandler)
			r.Post("/chat/start", apiHandler.ChatStartHandler)
			r.Post("/chat/reset", apiHandler.ChatResetHandler)
			r.Get("/chat/ws", apiHandler.TranscriptStreamHandler)
		})

		r.Route("/api", func(r chi.Router) {
			r.Use(apiHandler.RequireSessionAPI)
			r.Get("/wizard", apiHandler.WizardStateHandler)
			r.Post("/wizard/events", apiHandler.WizardEventHandler)
			r.Get("/providers", apiHandler.ProvidersHandler)
		})
	})

	return r
}
