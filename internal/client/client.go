// Package client talks to the provider backend over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client is stateless apart from its configuration; every call carries its
// own timeout.
type Client struct {
	baseURL string
	timeout time.Duration
	httpDo  *http.Client
	logger  *zap.Logger
}

func New(baseURL string, timeout time.Duration, transport http.RoundTripper, logger *zap.Logger) *Client {
	if transport == nil {
		transport = http.DefaultTransport
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		httpDo:  &http.Client{Transport: transport},
		logger:  logger,
	}
}

func (c *Client) Professions(ctx context.Context, page int) ([]Profession, error) {
	if page < 1 {
		page = 1
	}
	var out professionsResponse
	q := url.Values{"page": {strconv.Itoa(page)}}
	if err := c.do(ctx, "list professions", http.MethodGet, "/api/profession", q, "", nil, &out); err != nil {
		return nil, err
	}
	return out.Professions, nil
}

func (c *Client) Categories(ctx context.Context, professionID string) ([]string, error) {
	if strings.TrimSpace(professionID) == "" {
		return nil, fmt.Errorf("list categories: %w", ErrMissingIdentifier)
	}
	var out categoriesResponse
	path := "/api/profession/" + url.PathEscape(professionID) + "/categories"
	if err := c.do(ctx, "list categories", http.MethodGet, path, nil, "", nil, &out); err != nil {
		return nil, err
	}
	return out.Categories, nil
}

func (c *Client) Products(ctx context.Context, category, city string, page int) ([]Product, error) {
	if page < 1 {
		page = 1
	}
	var out productsResponse
	q := url.Values{
		"category": {category},
		"city":     {city},
		"page":     {strconv.Itoa(page)},
	}
	if err := c.do(ctx, "list products", http.MethodGet, "/api/profession/products", q, "", nil, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

// SearchProviders drops blank filters before building the query.
func (c *Client) SearchProviders(ctx context.Context, token string, filters map[string]string) ([]Provider, error) {
	if token == "" {
		return nil, fmt.Errorf("search providers: %w", ErrUnauthorized)
	}
	q := url.Values{}
	for k, v := range filters {
		if v = strings.TrimSpace(v); v != "" {
			q.Set(k, v)
		}
	}
	var out providersResponse
	if err := c.do(ctx, "search providers", http.MethodGet, "/api/providers/search", q, token, nil, &out); err != nil {
		return nil, err
	}
	return out.Providers, nil
}

// Register creates an account. Token and User may be empty when the
// backend expects a separate login.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var out authResponse
	if err := c.do(ctx, "register", http.MethodPost, "/api/auth/register", nil, "", req, &out); err != nil {
		return nil, err
	}
	res := &AuthResponse{Token: out.Token}
	if out.User != nil {
		res.User = out.User.toUser()
	}
	return res, nil
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var out authResponse
	if err := c.do(ctx, "login", http.MethodPost, "/api/auth/login", nil, "", req, &out); err != nil {
		return nil, err
	}
	if out.Token == "" || out.User == nil {
		return nil, fmt.Errorf("login: %w", ErrIncompleteAuth)
	}
	return &AuthResponse{Token: out.Token, User: out.User.toUser()}, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, token string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &RequestError{Op: op, Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpDo.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed",
			zap.String("op", op), zap.String("path", path), zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = context.DeadlineExceeded
		}
		return &RequestError{Op: op, Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("backend request",
		zap.String("op", op), zap.String("path", path), zap.Int("status", resp.StatusCode), zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody errorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&errBody)
		reqErr := &RequestError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    errBody.Message,
			Retryable:  resp.StatusCode >= 500,
		}
		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			reqErr.Err = ErrUnauthorized
		default:
			reqErr.Err = errors.New(http.StatusText(resp.StatusCode))
		}
		return reqErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return &RequestError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
