package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTheme(t *testing.T) {
	th, ok := ParseTheme(" Dark ")
	assert.True(t, ok)
	assert.Equal(t, ThemeDark, th)

	_, ok = ParseTheme("sepia")
	assert.False(t, ok)
}

func TestThemeHolderInitialValue(t *testing.T) {
	dark := func() Theme { return ThemeDark }

	st := &memThemeStore{stored: "light"}
	assert.Equal(t, ThemeLight, NewThemeHolder(st, dark).Theme())

	st = &memThemeStore{}
	assert.Equal(t, ThemeDark, NewThemeHolder(st, dark).Theme())
	assert.Equal(t, 0, st.saves)

	st = &memThemeStore{stored: "sepia"}
	assert.Equal(t, ThemeLight, NewThemeHolder(st, nil).Theme())
	assert.Equal(t, ThemeLight, NewThemeHolder(st, func() Theme { return "" }).Theme())
}

func TestThemeToggleTwiceRestoresAndPersists(t *testing.T) {
	st := &memThemeStore{}
	h := NewThemeHolder(st, func() Theme { return ThemeLight })

	next, err := h.Toggle()
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, next)
	assert.Equal(t, "dark", st.stored)

	next, err = h.Toggle()
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, next)
	assert.Equal(t, ThemeLight, h.Theme())
	assert.Equal(t, "light", st.stored)
	assert.Equal(t, 2, st.saves)
}

func TestThemeToggleStoreFailure(t *testing.T) {
	st := &memThemeStore{stored: "dark", saveErr: errors.New("disk full")}
	h := NewThemeHolder(st, nil)

	got, err := h.Toggle()
	require.Error(t, err)
	assert.Equal(t, ThemeDark, got)
	assert.Equal(t, ThemeDark, h.Theme())
}

type fixedGeocoder struct {
	city string
	err  error
}

func (g fixedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	return g.city, g.err
}

func TestClosestCity(t *testing.T) {
	candidates := []string{"Ciudad de México", "Monterrey"}
	assert.Equal(t, "Monterrey", ClosestCity("San Pedro, MONTERREY", candidates))
	assert.Equal(t, "Saltillo", ClosestCity("Saltillo", candidates))
}

func TestLocatorDetectCity(t *testing.T) {
	ctx := context.Background()
	cities := []string{"Monterrey"}

	city, detection := NewLocator(fixedGeocoder{city: "Monterrey, NL"}, cities, nil).DetectCity(ctx, &Coordinates{Lat: 1, Lon: 2})
	assert.Equal(t, DetectionFound, detection)
	assert.Equal(t, "Monterrey", city)

	_, detection = NewLocator(fixedGeocoder{err: errBackend}, cities, nil).DetectCity(ctx, &Coordinates{})
	assert.Equal(t, DetectionFailed, detection)

	_, detection = NewLocator(fixedGeocoder{}, cities, nil).DetectCity(ctx, nil)
	assert.Equal(t, DetectionUnavailable, detection)
}
