// Package s3http talks to S3 through presigned URLs and a plain HTTP
// client. It suits callers that must not embed AWS credentials in the
// data path: URLs are signed by the wrapped client, payloads travel
// over stock HTTP requests.
package s3http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Tracktor/tracktolib/s3"
)

// Session pairs a signing client with the HTTP client carrying the
// payloads.
type Session struct {
	client *s3.Client
	http   *http.Client
}

// NewSession creates a Session. A nil httpClient falls back to a
// client with a 5 minute timeout.
func NewSession(client *s3.Client, httpClient *http.Client) *Session {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Session{client: client, http: httpClient}
}

// PutObject uploads data to key through a presigned PUT URL.
func (s *Session) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	opts := &s3.PresignOptions{}
	if contentType != "" {
		opts.ContentType = contentType
	}
	url, err := s.client.PresignPut(ctx, key, opts)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return &s3.StorageError{Op: "http_put", Key: key, Err: err}
	}
	req.ContentLength = int64(len(data))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return &s3.StorageError{Op: "http_put", Key: key, Err: err}
	}
	defer resp.Body.Close()
	return checkStatus(resp, "http_put", key)
}

// GetObject downloads the object through a presigned GET URL. A
// missing key returns (nil, nil), matching HEAD-less existence probes.
func (s *Session) GetObject(ctx context.Context, key string) ([]byte, error) {
	url, err := s.client.PresignGet(ctx, key, nil)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &s3.StorageError{Op: "http_get", Key: key, Err: err}
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, &s3.StorageError{Op: "http_get", Key: key, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err := checkStatus(resp, "http_get", key); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &s3.StorageError{Op: "http_get", Key: key, Err: err}
	}
	return data, nil
}

// DeleteObject removes the object through a presigned DELETE URL.
func (s *Session) DeleteObject(ctx context.Context, key string) error {
	url, err := s.client.PresignDelete(ctx, key, nil)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return &s3.StorageError{Op: "http_delete", Key: key, Err: err}
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return &s3.StorageError{Op: "http_delete", Key: key, Err: err}
	}
	defer resp.Body.Close()
	return checkStatus(resp, "http_delete", key)
}

// DeleteObjects removes several objects, returning the keys that
// failed.
func (s *Session) DeleteObjects(ctx context.Context, keys []string) ([]string, error) {
	var failed []string
	var firstErr error
	for _, key := range keys {
		if err := s.DeleteObject(ctx, key); err != nil {
			failed = append(failed, key)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return failed, firstErr
}

func checkStatus(resp *http.Response, op, key string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	cause := fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	if resp.StatusCode == http.StatusNotFound {
		cause = s3.ErrNotFound
	}
	return &s3.StorageError{Op: op, Key: key, Err: cause}
}
