package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"proviai.com/provider-assistant/internal/client"
	"proviai.com/provider-assistant/internal/store"
)

var (
	ErrWizardBusy       = errors.New("wizard is waiting for a response")
	ErrWizardDone       = errors.New("wizard is finished")
	ErrWizardNotStarted = errors.New("wizard has not been started")
	ErrEmptySelection   = errors.New("empty selection")
)

type Step int

const (
	StepCity Step = iota
	StepProfession
	StepCategory
	StepProduct
	StepConfirmation
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepCity:
		return "city"
	case StepProfession:
		return "profession"
	case StepCategory:
		return "category"
	case StepProduct:
		return "product"
	case StepConfirmation:
		return "confirmation"
	case StepDone:
		return "done"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Speaker string

const (
	SpeakerSystem Speaker = "system"
	SpeakerUser   Speaker = "user"
)

type Entry struct {
	ID        string    `json:"id"`
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Error     bool      `json:"error,omitempty"`
}

// Option is one selectable answer. Product options carry their provider.
type Option struct {
	Label    string           `json:"label"`
	ID       string           `json:"id,omitempty"`
	Provider *client.Provider `json:"provider,omitempty"`
}

type Selection struct {
	City         string `json:"city,omitempty"`
	ProfessionID string `json:"professionId,omitempty"`
	Category     string `json:"category,omitempty"`
	ProductID    string `json:"productId,omitempty"`
}

// State is a point-in-time copy of a wizard.
type State struct {
	Started      bool      `json:"started"`
	Step         Step      `json:"step"`
	Selection    Selection `json:"selection"`
	Options      []Option  `json:"options"`
	Transcript   []Entry   `json:"transcript"`
	Busy         bool      `json:"busy"`
	DetectedCity string    `json:"detectedCity,omitempty"`
}

// Catalog is the read side of the backend the wizard walks through.
type Catalog interface {
	Professions(ctx context.Context, page int) ([]client.Profession, error)
	Categories(ctx context.Context, professionID string) ([]string, error)
	Products(ctx context.Context, category, city string, page int) ([]client.Product, error)
}

type CityLocator interface {
	DetectCity(ctx context.Context, coords *Coordinates) (string, Detection)
	Cities() []string
}

type ContactRecorder interface {
	CreateContactRequest(ctx context.Context, req *store.ContactRequest) error
}

const (
	OptionContact     = "Sí, contactar"
	OptionMoreOptions = "Ver más opciones"

	msgGreeting        = "¡Hola%s! Soy tu asistente de IA para encontrar proveedores. 😊"
	msgCityDetected    = "📍 Detectamos que estás en %s. ¿Es correcto?"
	msgCityFailed      = "❌ No pudimos detectar tu ciudad. Elige una de las ciudades sugeridas:"
	msgCityUnavailable = "📍 No se pudo acceder a tu ubicación. Elige tu ciudad:"
	msgProfessions     = "💼 Selecciona tu profesión o escríbela si no está:"
	msgCategories      = "📋 Selecciona la categoría:"
	msgProducts        = "🛍️ Selecciona un producto:"
	msgContacted       = "📞 Te hemos conectado con el proveedor. ¡Pronto se pondrán en contacto contigo!"
	msgMoreOptions     = "🔍 Buscando más opciones..."
	msgRequestFailed   = "❌ Ocurrió un error. Por favor, intenta de nuevo."
	msgNoProfessions   = "😕 No encontramos profesiones disponibles. Intenta de nuevo más tarde o reinicia la búsqueda."
	msgNoCategories    = "😕 No encontramos categorías para esta profesión. Puedes escribir una categoría o reiniciar la búsqueda."
	msgNoProducts      = "😕 No encontramos productos en tu ciudad para esta categoría. Puedes reiniciar la búsqueda."
	msgUnknownField    = "No disponible"
)

// Wizard walks one visitor from city to a provider. Reads are safe at any
// time; at most one transition runs at once, and the lock is not held
// while a catalog request is in flight.
type Wizard struct {
	catalog  Catalog
	locator  CityLocator
	contacts ContactRecorder
	user     store.User
	logger   *zap.Logger
	now      func() time.Time

	mu           sync.Mutex
	started      bool
	step         Step
	selection    Selection
	options      []Option
	products     []Option
	transcript   []Entry
	busy         bool
	detectedCity string

	notifyMu  sync.Mutex
	observers map[int]func(Entry)
	nextObs   int
}

// NewWizard builds an unstarted wizard. contacts may be nil.
func NewWizard(catalog Catalog, locator CityLocator, contacts ContactRecorder, user store.User, logger *zap.Logger) *Wizard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Wizard{
		catalog:   catalog,
		locator:   locator,
		contacts:  contacts,
		user:      user,
		logger:    logger.With(zap.String("user_id", user.ID)),
		now:       time.Now,
		observers: make(map[int]func(Entry)),
	}
}

// Subscribe registers fn for every appended entry, in order. Reset is
// announced with a zero Entry.
func (w *Wizard) Subscribe(fn func(Entry)) (unsubscribe func()) {
	w.notifyMu.Lock()
	id := w.nextObs
	w.nextObs++
	w.observers[id] = fn
	w.notifyMu.Unlock()

	return func() {
		w.notifyMu.Lock()
		delete(w.observers, id)
		w.notifyMu.Unlock()
	}
}

func (w *Wizard) notify(entries ...Entry) {
	w.notifyMu.Lock()
	defer w.notifyMu.Unlock()
	for _, e := range entries {
		for _, fn := range w.observers {
			fn(e)
		}
	}
}

func (w *Wizard) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	return State{
		Started:      w.started,
		Step:         w.step,
		Selection:    w.selection,
		Options:      append([]Option(nil), w.options...),
		Transcript:   append([]Entry(nil), w.transcript...),
		Busy:         w.busy,
		DetectedCity: w.detectedCity,
	}
}

// appendEntry must be called with mu held.
func (w *Wizard) appendEntry(speaker Speaker, text string, isError bool) Entry {
	e := Entry{
		ID:        uuid.NewString(),
		Speaker:   speaker,
		Text:      text,
		Timestamp: w.now().UTC(),
		Error:     isError,
	}
	w.transcript = append(w.transcript, e)
	return e
}

// Start (re)initializes the wizard at the city step. coords is nil when the
// browser could not share a location.
func (w *Wizard) Start(ctx context.Context, coords *Coordinates) error {
	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return ErrWizardBusy
	}
	w.busy = true
	w.mu.Unlock()

	city, detection := w.locator.DetectCity(ctx, coords)

	greeting := fmt.Sprintf(msgGreeting, "")
	if name := strings.TrimSpace(w.user.FirstName); name != "" {
		greeting = fmt.Sprintf(msgGreeting, " "+name)
	}
	var outcome string
	switch detection {
	case DetectionFound:
		outcome = fmt.Sprintf(msgCityDetected, city)
	case DetectionFailed:
		outcome = msgCityFailed
	default:
		outcome = msgCityUnavailable
	}

	options := make([]Option, 0)
	for _, c := range w.locator.Cities() {
		options = append(options, Option{Label: c})
	}

	w.mu.Lock()
	w.started = true
	w.step = StepCity
	w.selection = Selection{}
	w.products = nil
	w.transcript = nil
	w.detectedCity = city
	w.options = options
	entry := w.appendEntry(SpeakerSystem, greeting+"\n\n"+outcome, false)
	w.busy = false
	w.mu.Unlock()

	w.logger.Info("Wizard started", zap.String("detected_city", city), zap.Int("detection", int(detection)))
	w.notify(Entry{}, entry)
	return nil
}

// Text submits free text. It is a selection without an identifier.
func (w *Wizard) Text(ctx context.Context, text string) error {
	return w.Select(ctx, text, "")
}

// Select applies one answer to the current step.
func (w *Wizard) Select(ctx context.Context, label, id string) error {
	label = strings.TrimSpace(label)
	id = strings.TrimSpace(id)
	if label == "" {
		return ErrEmptySelection
	}

	w.mu.Lock()
	switch {
	case !w.started:
		w.mu.Unlock()
		return ErrWizardNotStarted
	case w.busy:
		w.mu.Unlock()
		return ErrWizardBusy
	case w.step == StepDone:
		w.mu.Unlock()
		return ErrWizardDone
	}
	step := w.step
	selection := w.selection
	echo := w.appendEntry(SpeakerUser, label, false)
	w.busy = true
	w.mu.Unlock()
	w.notify(echo)

	var t transition
	switch step {
	case StepCity:
		t = w.selectCity(ctx, label)
	case StepProfession:
		t = w.selectProfession(ctx, id)
	case StepCategory:
		t = w.selectCategory(ctx, label, selection.City)
	case StepProduct:
		t = w.selectProduct(label)
	case StepConfirmation:
		t = w.selectConfirmation(ctx, label, selection)
	}

	w.mu.Lock()
	var entries []Entry
	switch {
	case t.err != nil:
		w.logger.Warn("Wizard request failed", zap.Stringer("step", step), zap.Error(t.err))
		entries = append(entries, w.appendEntry(SpeakerSystem, msgRequestFailed, true))
	case t.noop:
	case t.next != nil:
		t.apply(&w.selection)
		w.step = *t.next
		w.options = t.options
		if t.products != nil {
			w.products = t.products
		}
		entries = append(entries, w.appendEntry(SpeakerSystem, t.message, false))
	}
	w.busy = false
	w.mu.Unlock()
	w.notify(entries...)
	return nil
}

// Reset returns the wizard to its unstarted state.
func (w *Wizard) Reset() error {
	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return ErrWizardBusy
	}
	w.started = false
	w.step = StepCity
	w.selection = Selection{}
	w.options = nil
	w.products = nil
	w.transcript = nil
	w.detectedCity = ""
	w.mu.Unlock()

	w.notify(Entry{})
	return nil
}

// transition is the outcome of one step handler. noop appends nothing.
type transition struct {
	next     *Step
	message  string
	options  []Option
	products []Option
	apply    func(*Selection)
	noop     bool
	err      error
}

func advance(next Step, message string, options []Option, apply func(*Selection)) transition {
	if apply == nil {
		apply = func(*Selection) {}
	}
	return transition{next: &next, message: message, options: options, apply: apply}
}

func (w *Wizard) selectCity(ctx context.Context, city string) transition {
	professions, err := w.catalog.Professions(ctx, 1)
	if err != nil {
		return transition{err: err}
	}
	message := msgProfessions
	if len(professions) == 0 {
		message = msgNoProfessions
	}

	options := make([]Option, 0, len(professions))
	for _, p := range professions {
		options = append(options, Option{Label: p.Name, ID: p.ID})
	}
	return advance(StepProfession, message, options, func(s *Selection) {
		s.City = city
	})
}

func (w *Wizard) selectProfession(ctx context.Context, professionID string) transition {
	categories, err := w.catalog.Categories(ctx, professionID)
	if err != nil {
		return transition{err: err}
	}
	message := msgCategories
	if len(categories) == 0 {
		message = msgNoCategories
	}

	options := make([]Option, 0, len(categories))
	for _, c := range categories {
		options = append(options, Option{Label: c})
	}
	return advance(StepCategory, message, options, func(s *Selection) {
		s.ProfessionID = professionID
	})
}

func (w *Wizard) selectCategory(ctx context.Context, category, city string) transition {
	products, err := w.catalog.Products(ctx, category, city, 1)
	if err != nil {
		return transition{err: err}
	}
	message := msgProducts
	if len(products) == 0 {
		message = msgNoProducts
	}

	options := make([]Option, 0, len(products))
	for _, p := range products {
		options = append(options, Option{Label: p.Name, ID: p.ID, Provider: p.Provider})
	}
	t := advance(StepProduct, message, options, func(s *Selection) {
		s.Category = category
	})
	t.products = options
	return t
}

func (w *Wizard) selectProduct(label string) transition {
	w.mu.Lock()
	var chosen *Option
	for i := range w.options {
		if w.options[i].Label == label {
			opt := w.options[i]
			chosen = &opt
			break
		}
	}
	w.mu.Unlock()

	if chosen == nil {
		return transition{noop: true}
	}

	confirm := []Option{{Label: OptionContact}, {Label: OptionMoreOptions}}
	return advance(StepConfirmation, providerDetails(chosen), confirm, func(s *Selection) {
		s.ProductID = chosen.ID
	})
}

func (w *Wizard) selectConfirmation(ctx context.Context, label string, selection Selection) transition {
	if label != OptionContact {
		w.mu.Lock()
		products := append([]Option(nil), w.products...)
		w.mu.Unlock()
		return advance(StepProduct, msgMoreOptions, products, func(s *Selection) {
			s.ProductID = ""
		})
	}

	w.recordContact(ctx, selection)
	return advance(StepDone, msgContacted, nil, nil)
}

func (w *Wizard) recordContact(ctx context.Context, selection Selection) {
	if w.contacts == nil {
		return
	}

	req := &store.ContactRequest{
		UserID:       w.user.ID,
		City:         selection.City,
		ProfessionID: selection.ProfessionID,
		Category:     selection.Category,
		ProductID:    selection.ProductID,
		CreatedAt:    w.now().UTC(),
	}
	w.mu.Lock()
	for _, p := range w.products {
		if p.ID == selection.ProductID {
			req.ProductName = p.Label
			if p.Provider != nil {
				req.ProviderName = p.Provider.Name
				req.ProviderPhone = p.Provider.Phone
			}
			break
		}
	}
	w.mu.Unlock()

	if err := w.contacts.CreateContactRequest(ctx, req); err != nil {
		w.logger.Error("Failed to record contact request", zap.String("product_id", selection.ProductID), zap.Error(err))
	}
}

func providerDetails(opt *Option) string {
	provider := client.Provider{}
	if opt.Provider != nil {
		provider = *opt.Provider
	}
	return fmt.Sprintf(
		"✅ **Producto seleccionado:** %s\n\n👤 **Proveedor:** %s\n📍 **Ciudad:** %s\n📞 **Teléfono:** %s\n⭐ **Calificación:** %s/5\n\n¿Te gustaría contactar a este proveedor?",
		opt.Label,
		orUnknown(provider.Name),
		orUnknown(provider.City),
		orUnknown(provider.Phone),
		provider.RatingText(),
	)
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return msgUnknownField
	}
	return s
}
