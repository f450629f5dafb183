// Package gh is a small GitHub REST client for issue comments, labels
// and deployments, built for CI automation.
package gh

import (
	"fmt"
	"os"

	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL = "https://api.github.com"
	apiVersion     = "2022-11-28"
)

// ProgressCallback reports (done, total) while iterating over batched
// API calls.
type ProgressCallback func(done, total int)

// Client talks to the GitHub REST API.
type Client struct {
	http *resty.Client
}

// ClientOption customizes a Client.
type ClientOption func(*resty.Client)

// WithBaseURL overrides the API base URL (GitHub Enterprise, tests).
func WithBaseURL(url string) ClientOption {
	return func(c *resty.Client) { c.SetBaseURL(url) }
}

// WithRetries sets the retry count for transient failures.
func WithRetries(count int) ClientOption {
	return func(c *resty.Client) { c.SetRetryCount(count) }
}

// NewClient creates a Client. An empty token falls back to the
// GITHUB_TOKEN environment variable.
func NewClient(token string, options ...ClientOption) (*Client, error) {
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		return nil, fmt.Errorf("gh: a token is required (set GITHUB_TOKEN)")
	}

	http := resty.New().
		SetBaseURL(defaultBaseURL).
		SetAuthToken(token).
		SetHeader("Accept", "application/vnd.github+json").
		SetHeader("X-GitHub-Api-Version", apiVersion)

	for _, opt := range options {
		opt(http)
	}
	return &Client{http: http}, nil
}

// Error is returned for non-2xx API responses.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("gh: status %d: %s", e.StatusCode, e.Message)
}

type apiError struct {
	Message string `json:"message"`
}

func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("gh: %w", err)
	}
	if resp.IsError() {
		msg := resp.String()
		if apiErr, ok := resp.Error().(*apiError); ok && apiErr.Message != "" {
			msg = apiErr.Message
		}
		return &Error{StatusCode: resp.StatusCode(), Message: msg}
	}
	return nil
}

func (c *Client) req() *resty.Request {
	return c.http.R().SetError(&apiError{})
}
