package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrNoCity is returned when the geocoder answers without a city or region.
var ErrNoCity = errors.New("no city for coordinates")

// Geocoder reverse-geocodes coordinates with a geocode.xyz compatible API.
type Geocoder struct {
	baseURL string
	timeout time.Duration
	httpDo  *http.Client
}

func NewGeocoder(baseURL string, timeout time.Duration, transport http.RoundTripper) *Geocoder {
	if transport == nil {
		transport = http.DefaultTransport
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Geocoder{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		httpDo:  &http.Client{Transport: transport},
	}
}

type geocodeResponse struct {
	City   string `json:"city"`
	Region string `json:"region"`
}

// ReverseGeocode returns the city for the coordinates, falling back to the
// region when the city is blank.
func (g *Geocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/%s,%s?geoit=json", g.baseURL,
		strconv.FormatFloat(lat, 'f', -1, 64), strconv.FormatFloat(lon, 'f', -1, 64))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", &RequestError{Op: "reverse geocode", Err: err}
	}

	resp, err := g.httpDo.Do(req)
	if err != nil {
		return "", &RequestError{Op: "reverse geocode", Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &RequestError{
			Op:         "reverse geocode",
			StatusCode: resp.StatusCode,
			Retryable:  resp.StatusCode >= 500,
			Err:        errors.New(http.StatusText(resp.StatusCode)),
		}
	}

	var out geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &RequestError{Op: "reverse geocode", StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	city := strings.TrimSpace(out.City)
	if city == "" {
		city = strings.TrimSpace(out.Region)
	}
	if city == "" {
		return "", ErrNoCity
	}
	return city, nil
}
