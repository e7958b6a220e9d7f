package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"proviai.com/provider-assistant/internal/client"
)

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// ProvidersHandler proxies the backend provider search with the session's
// token. Every query parameter is passed on as a filter.
func (h *APIHandler) ProvidersHandler(w http.ResponseWriter, r *http.Request) {
	holder := SessionFromContext(r.Context())

	filters := make(map[string]string)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			filters[key] = values[0]
		}
	}

	providers, err := h.providers.SearchProviders(r.Context(), holder.Token(), filters)
	if err != nil {
		switch {
		case errors.Is(err, client.ErrUnauthorized):
			Error(w, http.StatusUnauthorized, client.UserMessage(err, "authentication required"))
		case client.IsRetryable(err):
			h.logger.Warn("Provider search unavailable", zap.Error(err))
			Error(w, http.StatusBadGateway, client.UserMessage(err, "provider search unavailable"))
		default:
			h.logger.Error("Provider search failed", zap.Error(err))
			Error(w, http.StatusBadGateway, client.UserMessage(err, "provider search failed"))
		}
		return
	}
	if providers == nil {
		providers = []client.Provider{}
	}
	JSON(w, http.StatusOK, map[string]any{"providers": providers})
}
