package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Source is the read-only view of the Title Catalog API the rest of the app depends on
type Source interface {
	ListTitles(ctx context.Context) ([]Title, error)
	Recommended(ctx context.Context) ([]Title, error)
	ListGenres(ctx context.Context) ([]Genre, error)
}

// ClientConfig holds the connection settings for the Title Catalog API
type ClientConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// APIError is returned when the catalog answers with a non-2xx status
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog API returned %d: %s", e.StatusCode, e.Body)
}

// Client talks to the Title Catalog API over HTTP
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient creates a new catalog client
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required for the catalog client")
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		token:   config.Token,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// ListTitles returns the full catalog listing
func (c *Client) ListTitles(ctx context.Context) ([]Title, error) {
	var titles []Title
	if err := c.get(ctx, "/movies", &titles); err != nil {
		return nil, err
	}
	return titles, nil
}

// Recommended returns the titles recommended for the current user
func (c *Client) Recommended(ctx context.Context) ([]Title, error) {
	var titles []Title
	if err := c.get(ctx, "/movies/recommended", &titles); err != nil {
		return nil, err
	}
	return titles, nil
}

// ListGenres returns every genre known to the catalog
func (c *Client) ListGenres(ctx context.Context) ([]Genre, error) {
	var genres []Genre
	if err := c.get(ctx, "/genres", &genres); err != nil {
		return nil, err
	}
	return genres, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s response: %w", path, err)
	}
	return nil
}
