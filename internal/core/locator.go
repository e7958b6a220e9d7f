package core

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Detection is the outcome of locating the visitor.
type Detection int

const (
	DetectionFound Detection = iota
	DetectionFailed
	DetectionUnavailable
)

type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}

// Locator turns browser coordinates into one of the candidate cities.
type Locator struct {
	geocoder Geocoder
	cities   []string
	logger   *zap.Logger
}

func NewLocator(geocoder Geocoder, cities []string, logger *zap.Logger) *Locator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Locator{
		geocoder: geocoder,
		cities:   append([]string(nil), cities...),
		logger:   logger,
	}
}

func (l *Locator) Cities() []string {
	return append([]string(nil), l.cities...)
}

// DetectCity returns DetectionUnavailable when coords is nil.
func (l *Locator) DetectCity(ctx context.Context, coords *Coordinates) (string, Detection) {
	if coords == nil {
		return "", DetectionUnavailable
	}
	detected, err := l.geocoder.ReverseGeocode(ctx, coords.Lat, coords.Lon)
	if err != nil {
		l.logger.Warn("Reverse geocoding failed", zap.Float64("lat", coords.Lat), zap.Float64("lon", coords.Lon), zap.Error(err))
		return "", DetectionFailed
	}
	return ClosestCity(detected, l.cities), DetectionFound
}

// ClosestCity returns the first candidate contained in detected, ignoring
// case, or detected itself.
func ClosestCity(detected string, candidates []string) string {
	lower := strings.ToLower(detected)
	for _, c := range candidates {
		if c != "" && strings.Contains(lower, strings.ToLower(c)) {
			return c
		}
	}
	return detected
}
