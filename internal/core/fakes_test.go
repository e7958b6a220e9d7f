package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"proviai.com/provider-assistant/internal/client"
	"proviai.com/provider-assistant/internal/store"
)

type fakeCatalog struct {
	mu sync.Mutex

	professions []client.Profession
	categories  []string
	products    []client.Product

	professionsErr error
	categoriesErr  error
	productsErr    error

	professionCalls int
	categoryCalls   int
	productCalls    int
	lastCity        string
	lastCategory    string

	// when set, Professions signals entered and waits for release
	entered chan struct{}
	release chan struct{}
}

func newFakeCatalog() *fakeCatalog {
	rating := 4.9
	return &fakeCatalog{
		professions: []client.Profession{{ID: "p1", Name: "Plomero"}, {ID: "p2", Name: "Electricista"}},
		categories:  []string{"Baños", "Cocinas"},
		products: []client.Product{
			{ID: "w1", Name: "Widget A", Provider: &client.Provider{ID: "pr1", Name: "Acme", City: "X", Phone: "555"}},
			{ID: "w2", Name: "Widget B", Provider: &client.Provider{ID: "pr2", Name: "Beta", City: "Y", Phone: "777", Rating: &rating}},
		},
	}
}

func (f *fakeCatalog) Professions(ctx context.Context, page int) ([]client.Profession, error) {
	f.mu.Lock()
	f.professionCalls++
	entered, release := f.entered, f.release
	f.mu.Unlock()

	if entered != nil {
		close(entered)
		<-release
	}
	return f.professions, f.professionsErr
}

func (f *fakeCatalog) Categories(ctx context.Context, professionID string) ([]string, error) {
	if professionID == "" {
		return nil, client.ErrMissingIdentifier
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categoryCalls++
	return f.categories, f.categoriesErr
}

func (f *fakeCatalog) Products(ctx context.Context, category, city string, page int) ([]client.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.productCalls++
	f.lastCategory = category
	f.lastCity = city
	return f.products, f.productsErr
}

type fakeLocator struct {
	city      string
	detection Detection
}

func (l fakeLocator) DetectCity(ctx context.Context, coords *Coordinates) (string, Detection) {
	if coords == nil {
		return "", DetectionUnavailable
	}
	return l.city, l.detection
}

func (l fakeLocator) Cities() []string {
	return []string{"Monterrey", "Guadalajara"}
}

type fakeContacts struct {
	mu       sync.Mutex
	requests []store.ContactRequest
	err      error
}

func (f *fakeContacts) CreateContactRequest(ctx context.Context, req *store.ContactRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.requests = append(f.requests, *req)
	return nil
}

type memSessionStore struct {
	mu       sync.Mutex
	sessions  map[string]*store.Session
	saveErr   error
	deleteErr error
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]*store.Session)}
}

func (m *memSessionStore) SaveSession(ctx context.Context, s *store.Session) error {
	if !s.Valid() {
		return store.ErrInvalidSession
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memSessionStore) GetSession(ctx context.Context, id string) (*store.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memSessionStore) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.sessions, id)
	return nil
}

func (m *memSessionStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *memSessionStore) Close() error { return nil }

func (m *memSessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

type fakeAuthClient struct {
	registerCalls int
	loginCalls    int
	response      *client.AuthResponse
	err           error
}

func (f *fakeAuthClient) Register(ctx context.Context, req client.RegisterRequest) (*client.AuthResponse, error) {
	f.registerCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeAuthClient) Login(ctx context.Context, req client.LoginRequest) (*client.AuthResponse, error) {
	f.loginCalls++
	if f.err != nil {
		return nil, f.err
	}
	if f.response.Token == "" || f.response.User == nil {
		return nil, client.ErrIncompleteAuth
	}
	return f.response, nil
}

type memThemeStore struct {
	stored  string
	saves   int
	saveErr error
}

func (m *memThemeStore) LoadTheme() (Theme, bool, error) {
	t, ok := ParseTheme(m.stored)
	return t, ok, nil
}

func (m *memThemeStore) SaveTheme(t Theme) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.stored = string(t)
	return nil
}

var errBackend = errors.New("backend down")
