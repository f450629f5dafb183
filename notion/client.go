// Package notion is a Notion REST client with helpers to convert
// between markdown and Notion blocks, sync page content and cache
// database schemas locally.
package notion

import (
	"fmt"
	"os"

	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL = "https://api.notion.com"
	apiVersion     = "2025-09-03"
)

// Client talks to the Notion REST API.
type Client struct {
	http *resty.Client
	// oauth carries no bearer token: a client-level token would
	// override the basic auth the OAuth endpoints require.
	oauth *resty.Client
}

// ClientOption customizes a Client.
type ClientOption func(*resty.Client)

// WithBaseURL overrides the API base URL (tests).
func WithBaseURL(url string) ClientOption {
	return func(c *resty.Client) { c.SetBaseURL(url) }
}

// WithVersion overrides the Notion-Version header.
func WithVersion(version string) ClientOption {
	return func(c *resty.Client) { c.SetHeader("Notion-Version", version) }
}

// WithRetries sets the retry count for transient failures.
func WithRetries(count int) ClientOption {
	return func(c *resty.Client) { c.SetRetryCount(count) }
}

// NewClient creates a Client. An empty token falls back to the
// NOTION_TOKEN environment variable.
func NewClient(token string, options ...ClientOption) (*Client, error) {
	if token == "" {
		token = os.Getenv("NOTION_TOKEN")
	}
	if token == "" {
		return nil, fmt.Errorf("notion: a token is required (set NOTION_TOKEN)")
	}

	http := resty.New().
		SetBaseURL(defaultBaseURL).
		SetAuthToken(token).
		SetHeader("Notion-Version", apiVersion)
	oauth := resty.New().
		SetBaseURL(defaultBaseURL).
		SetHeader("Notion-Version", apiVersion)

	for _, opt := range options {
		opt(http)
		opt(oauth)
	}
	return &Client{http: http, oauth: oauth}, nil
}

// Error is returned for non-2xx API responses.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("notion: %s (status %d): %s", e.Code, e.StatusCode, e.Message)
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("notion: %w", err)
	}
	if resp.IsError() {
		apiErr, _ := resp.Error().(*apiError)
		if apiErr == nil || apiErr.Message == "" {
			apiErr = &apiError{Code: "unknown", Message: resp.String()}
		}
		return &Error{StatusCode: resp.StatusCode(), Code: apiErr.Code, Message: apiErr.Message}
	}
	return nil
}

func (c *Client) req() *resty.Request {
	return c.http.R().SetError(&apiError{})
}

// ListOptions control pagination of list endpoints.
type ListOptions struct {
	StartCursor string
	PageSize    int
}

func (o ListOptions) apply(req *resty.Request) *resty.Request {
	if o.StartCursor != "" {
		req.SetQueryParam("start_cursor", o.StartCursor)
	}
	if o.PageSize > 0 {
		req.SetQueryParam("page_size", fmt.Sprintf("%d", o.PageSize))
	}
	return req
}
