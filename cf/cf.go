// Package cf is a Cloudflare DNS client covering record lookup,
// creation, partial updates and deletion for a single zone.
package cf

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://api.cloudflare.com/client/v4"

// APIError is one error entry of a Cloudflare response.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error is returned when the API reports a failure.
type Error struct {
	StatusCode int
	Errors     []APIError
}

func (e *Error) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, apiErr := range e.Errors {
		msgs[i] = apiErr.Message
	}
	return fmt.Sprintf("cf: api error (status %d): %s", e.StatusCode, strings.Join(msgs, ", "))
}

// DNSRecord is a Cloudflare DNS record.
type DNSRecord struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Content    string    `json:"content"`
	TTL        int       `json:"ttl"`
	Proxied    bool      `json:"proxied"`
	Proxiable  bool      `json:"proxiable,omitempty"`
	Comment    string    `json:"comment,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	CreatedOn  time.Time `json:"created_on,omitempty"`
	ModifiedOn time.Time `json:"modified_on,omitempty"`
}

type envelope[T any] struct {
	Success bool       `json:"success"`
	Errors  []APIError `json:"errors"`
	Result  T          `json:"result"`
}

// Client manages DNS records of one Cloudflare zone.
type Client struct {
	http   *resty.Client
	zoneID string
}

// ClientOption customizes a Client.
type ClientOption func(*resty.Client)

// WithBaseURL overrides the API base URL, mainly for tests.
func WithBaseURL(url string) ClientOption {
	return func(c *resty.Client) { c.SetBaseURL(url) }
}

// WithRetries sets the retry count for transient failures.
func WithRetries(count int) ClientOption {
	return func(c *resty.Client) { c.SetRetryCount(count) }
}

// NewClient creates a Client. Empty token and zoneID fall back to the
// CLOUDFLARE_API_TOKEN and CLOUDFLARE_ZONE_ID environment variables.
func NewClient(token, zoneID string, options ...ClientOption) (*Client, error) {
	if token == "" {
		token = os.Getenv("CLOUDFLARE_API_TOKEN")
	}
	if zoneID == "" {
		zoneID = os.Getenv("CLOUDFLARE_ZONE_ID")
	}
	if token == "" {
		return nil, fmt.Errorf("cf: a token is required (set CLOUDFLARE_API_TOKEN)")
	}
	if zoneID == "" {
		return nil, fmt.Errorf("cf: a zone id is required (set CLOUDFLARE_ZONE_ID)")
	}

	http := resty.New().
		SetBaseURL(defaultBaseURL).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json")
	for _, opt := range options {
		opt(http)
	}
	return &Client{http: http, zoneID: zoneID}, nil
}

func unwrap[T any](resp *resty.Response, err error, env *envelope[T]) (T, error) {
	var zero T
	if err != nil {
		return zero, fmt.Errorf("cf: %w", err)
	}
	if !env.Success {
		return zero, &Error{StatusCode: resp.StatusCode(), Errors: env.Errors}
	}
	return env.Result, nil
}

// GetDNSRecord returns the record matching name and recordType, or
// nil when it does not exist. recordType defaults to CNAME.
func (c *Client) GetDNSRecord(ctx context.Context, name, recordType string) (*DNSRecord, error) {
	if recordType == "" {
		recordType = "CNAME"
	}

	var env envelope[[]DNSRecord]
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"name": name, "type": recordType}).
		SetResult(&env).
		SetError(&env).
		Get(fmt.Sprintf("/zones/%s/dns_records", c.zoneID))

	records, err := unwrap(resp, err, &env)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// CreateRecordInput describes a record to create. A TTL of 1 means
// automatic.
type CreateRecordInput struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Content string `json:"content"`
	TTL     int    `json:"ttl"`
	Proxied bool   `json:"proxied"`
	Comment string `json:"comment,omitempty"`
}

// CreateDNSRecord creates a record in the zone.
func (c *Client) CreateDNSRecord(ctx context.Context, input CreateRecordInput) (*DNSRecord, error) {
	if input.Type == "" {
		input.Type = "CNAME"
	}
	if input.TTL == 0 {
		input.TTL = 1
	}

	var env envelope[DNSRecord]
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(input).
		SetResult(&env).
		SetError(&env).
		Post(fmt.Sprintf("/zones/%s/dns_records", c.zoneID))

	record, err := unwrap(resp, err, &env)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// UpdateRecordInput holds the fields of a partial record update. Nil
// fields are left unchanged.
type UpdateRecordInput struct {
	Name    *string `json:"name,omitempty"`
	Type    *string `json:"type,omitempty"`
	Content *string `json:"content,omitempty"`
	TTL     *int    `json:"ttl,omitempty"`
	Proxied *bool   `json:"proxied,omitempty"`
	Comment *string `json:"comment,omitempty"`
}

// UpdateDNSRecord patches a record by ID.
func (c *Client) UpdateDNSRecord(ctx context.Context, recordID string, input UpdateRecordInput) (*DNSRecord, error) {
	var env envelope[DNSRecord]
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(input).
		SetResult(&env).
		SetError(&env).
		Patch(fmt.Sprintf("/zones/%s/dns_records/%s", c.zoneID, recordID))

	record, err := unwrap(resp, err, &env)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// DeleteDNSRecord removes a record by ID.
func (c *Client) DeleteDNSRecord(ctx context.Context, recordID string) error {
	var env envelope[struct {
		ID string `json:"id"`
	}]
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&env).
		SetError(&env).
		Delete(fmt.Sprintf("/zones/%s/dns_records/%s", c.zoneID, recordID))

	_, err = unwrap(resp, err, &env)
	return err
}

// DeleteDNSRecordByName removes the record matching name and type,
// reporting whether one existed.
func (c *Client) DeleteDNSRecordByName(ctx context.Context, name, recordType string) (bool, error) {
	record, err := c.GetDNSRecord(ctx, name, recordType)
	if err != nil {
		return false, err
	}
	if record == nil {
		return false, nil
	}
	if err := c.DeleteDNSRecord(ctx, record.ID); err != nil {
		return false, err
	}
	return true, nil
}

// DNSRecordExists reports whether a record matching name and type
// exists.
func (c *Client) DNSRecordExists(ctx context.Context, name, recordType string) (bool, error) {
	record, err := c.GetDNSRecord(ctx, name, recordType)
	if err != nil {
		return false, err
	}
	return record != nil, nil
}
