package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"proviai.com/provider-assistant/internal/core"
)

const contactsPageLimit = 50

func (h *APIHandler) runnerFor(r *http.Request) *core.WizardRunner {
	holder := SessionFromContext(r.Context())
	return h.wizards.Get(holder.ID(), *holder.User())
}

// submit applies ev detached from the request's cancellation so a transition
// in flight finishes even if the browser goes away.
func (h *APIHandler) submit(r *http.Request, ev core.Event) error {
	ctx := context.WithoutCancel(r.Context())
	err := h.runnerFor(r).Submit(ctx, ev)
	if err != nil {
		h.logger.Info("Wizard event rejected",
			zap.String("session_id", SessionFromContext(r.Context()).ID()),
			zap.String("event", eventName(ev)),
			zap.Error(err))
	}
	return err
}

func eventName(ev core.Event) string {
	switch ev.(type) {
	case core.EventStart:
		return "start"
	case core.EventSelect:
		return "select"
	case core.EventText:
		return "text"
	case core.EventReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Notices carried by the dashboard redirect when a form event is rejected.
var wizardNotices = map[string]string{
	"busy":        "Estamos procesando tu respuesta anterior. Espera un momento.",
	"done":        "Esta búsqueda terminó. Reinicia para buscar otro proveedor.",
	"not-started": "Primero inicia la búsqueda.",
	"empty":       "Escribe o elige una opción.",
	"failed":      "No pudimos procesar tu respuesta. Intenta de nuevo.",
}

func noticeCode(err error) string {
	switch {
	case errors.Is(err, core.ErrWizardBusy):
		return "busy"
	case errors.Is(err, core.ErrWizardDone):
		return "done"
	case errors.Is(err, core.ErrWizardNotStarted):
		return "not-started"
	case errors.Is(err, core.ErrEmptySelection):
		return "empty"
	default:
		return "failed"
	}
}

// redirectDashboard sends the visitor back to the dashboard, carrying a
// notice when err is set.
func redirectDashboard(w http.ResponseWriter, r *http.Request, err error) {
	target := "/dashboard"
	if err != nil {
		target += "?notice=" + noticeCode(err)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *APIHandler) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	state := h.runnerFor(r).Wizard().Snapshot()
	data := h.newPage(r, "Asistente")
	data.Wizard = &state
	data.Error = wizardNotices[r.URL.Query().Get("notice")]
	h.render(w, http.StatusOK, "dashboard", data)
}

// parseCoordinates returns nil when the browser reported no location.
func parseCoordinates(latRaw, lonRaw string, denied bool) *core.Coordinates {
	if denied {
		return nil
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonRaw), 64)
	if err != nil || lon < -180 || lon > 180 {
		return nil
	}
	return &core.Coordinates{Lat: lat, Lon: lon}
}

func (h *APIHandler) ChatStartHandler(w http.ResponseWriter, r *http.Request) {
	coords := parseCoordinates(r.FormValue("lat"), r.FormValue("lon"), r.FormValue("denied") != "")
	redirectDashboard(w, r, h.submit(r, core.EventStart{Coords: coords}))
}

// ChatSelectHandler takes either an option (label and id) or free text.
func (h *APIHandler) ChatSelectHandler(w http.ResponseWriter, r *http.Request) {
	var ev core.Event
	if text := r.FormValue("text"); text != "" {
		ev = core.EventText{Text: text}
	} else {
		ev = core.EventSelect{Label: r.FormValue("label"), ID: r.FormValue("id")}
	}
	redirectDashboard(w, r, h.submit(r, ev))
}

func (h *APIHandler) ChatResetHandler(w http.ResponseWriter, r *http.Request) {
	redirectDashboard(w, r, h.submit(r, core.EventReset{}))
}

// ProfileHandler shows the signed-in user's details.
func (h *APIHandler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "profile", h.newPage(r, "Perfil"))
}

func (h *APIHandler) ContactsHandler(w http.ResponseWriter, r *http.Request) {
	user := SessionFromContext(r.Context()).User()
	data := h.newPage(r, "Mis contactos")

	contacts, err := h.contacts.ListContactRequests(r.Context(), user.ID, contactsPageLimit)
	if err != nil {
		h.logger.Error("Failed to list contact requests", zap.String("user_id", user.ID), zap.Error(err))
		data.Error = "No pudimos cargar tus contactos."
		h.render(w, http.StatusInternalServerError, "contacts", data)
		return
	}
	data.Contacts = contacts
	h.render(w, http.StatusOK, "contacts", data)
}

// WizardStateHandler returns the current wizard snapshot.
func (h *APIHandler) WizardStateHandler(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.runnerFor(r).Wizard().Snapshot())
}

type WizardEventRequest struct {
	Type  string   `json:"type"`
	Label string   `json:"label,omitempty"`
	ID    string   `json:"id,omitempty"`
	Text  string   `json:"text,omitempty"`
	Lat   *float64 `json:"lat,omitempty"`
	Lon   *float64 `json:"lon,omitempty"`
}

func (req WizardEventRequest) event() (core.Event, error) {
	switch req.Type {
	case "start":
		if req.Lat == nil || req.Lon == nil {
			return core.EventStart{}, nil
		}
		return core.EventStart{Coords: parseCoordinates(
			strconv.FormatFloat(*req.Lat, 'f', -1, 64),
			strconv.FormatFloat(*req.Lon, 'f', -1, 64),
			false,
		)}, nil
	case "select":
		return core.EventSelect{Label: req.Label, ID: req.ID}, nil
	case "text":
		return core.EventText{Text: req.Text}, nil
	case "reset":
		return core.EventReset{}, nil
	default:
		return nil, errors.New("unknown event type")
	}
}

// WizardEventHandler applies one event and returns the resulting state.
func (h *APIHandler) WizardEventHandler(w http.ResponseWriter, r *http.Request) {
	var req WizardEventRequest
	if err := decodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	ev, err := req.event()
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.submit(r, ev); err != nil {
		Error(w, wizardStatus(err), err.Error())
		return
	}
	JSON(w, http.StatusOK, h.runnerFor(r).Wizard().Snapshot())
}
