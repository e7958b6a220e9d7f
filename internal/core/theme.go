package core

import (
	"strings"
	"sync"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func ParseTheme(s string) (Theme, bool) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case ThemeLight:
		return ThemeLight, true
	case ThemeDark:
		return ThemeDark, true
	default:
		return "", false
	}
}

func (t Theme) Opposite() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// ThemeStore persists the visitor's explicit choice.
type ThemeStore interface {
	// LoadTheme reports false when nothing valid is stored.
	LoadTheme() (Theme, bool, error)
	SaveTheme(Theme) error
}

type ThemeHolder struct {
	mu    sync.RWMutex
	store ThemeStore
	theme Theme
}

// NewThemeHolder resolves the stored preference, falling back to system()
// and then to light. It never writes.
func NewThemeHolder(st ThemeStore, system func() Theme) *ThemeHolder {
	h := &ThemeHolder{store: st, theme: ThemeLight}
	if stored, ok, err := st.LoadTheme(); err == nil && ok {
		h.theme = stored
		return h
	}
	if system != nil {
		if t, ok := ParseTheme(string(system())); ok {
			h.theme = t
		}
	}
	return h
}

func (h *ThemeHolder) Theme() Theme {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.theme
}

// Toggle flips the theme and persists the new value. On a store error the
// theme is left unchanged.
func (h *ThemeHolder) Toggle() (Theme, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	next := h.theme.Opposite()
	if err := h.store.SaveTheme(next); err != nil {
		return h.theme, err
	}
	h.theme = next
	return next, nil
}
