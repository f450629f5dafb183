// Package httpx provides streaming HTTP download helpers.
package httpx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
)

// defaultChunkSize is the read buffer size for streamed downloads.
const defaultChunkSize = 10 << 20

// DownloadOptions customize a download.
type DownloadOptions struct {
	// ChunkSize is the read buffer size, 10MB when zero.
	ChunkSize int
	// Params are appended to the URL as query parameters.
	Params map[string]string
	// Headers are set on the request.
	Headers map[string]string
	// OnResponse is called once with the response before the body is
	// consumed.
	OnResponse func(*http.Response)
	// OnChunk is called with every received chunk, useful for hashing
	// or progress display.
	OnChunk func([]byte)
	// MaxRetries retries failed requests with exponential backoff.
	// Once body bytes have been written the download is not retried.
	MaxRetries int
}

// DownloadFile streams url into w in chunks. The request is retried
// on transport errors and 5xx responses as long as nothing has been
// written yet.
func DownloadFile(ctx context.Context, client *resty.Client, url string, w io.Writer, opts DownloadOptions) error {
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}

	written := false
	attempt := func() error {
		resp, err := client.R().
			SetContext(ctx).
			SetQueryParams(opts.Params).
			SetHeaders(opts.Headers).
			SetDoNotParseResponse(true).
			Get(url)
		if err != nil {
			return fmt.Errorf("httpx: requesting %s: %w", url, err)
		}
		body := resp.RawBody()
		defer body.Close()

		if resp.StatusCode() >= 400 {
			err := fmt.Errorf("httpx: status %d downloading %s", resp.StatusCode(), url)
			if resp.StatusCode() < 500 {
				return backoff.Permanent(err)
			}
			return err
		}

		if opts.OnResponse != nil {
			opts.OnResponse(resp.RawResponse)
		}

		buf := make([]byte, chunkSize)
		for {
			n, err := io.ReadFull(body, buf)
			if n > 0 {
				written = true
				if _, werr := w.Write(buf[:n]); werr != nil {
					return backoff.Permanent(fmt.Errorf("httpx: writing chunk: %w", werr))
				}
				if opts.OnChunk != nil {
					opts.OnChunk(buf[:n])
				}
			}
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil
			}
			if err != nil {
				if written {
					return backoff.Permanent(fmt.Errorf("httpx: reading body: %w", err))
				}
				return fmt.Errorf("httpx: reading body: %w", err)
			}
		}
	}

	b := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	return backoff.Retry(attempt, backoff.WithMaxRetries(b, uint64(opts.MaxRetries)))
}

// Progress returns an OnResponse/OnChunk pair that reports the
// response Content-Length and the size of each received chunk to
// update.
func Progress(update func(contentLength int64, received int)) (func(*http.Response), func([]byte)) {
	var contentLength int64

	onResponse := func(resp *http.Response) {
		if raw := resp.Header.Get("Content-Length"); raw != "" {
			contentLength, _ = strconv.ParseInt(raw, 10, 64)
		}
	}
	onChunk := func(chunk []byte) {
		update(contentLength, len(chunk))
	}
	return onResponse, onChunk
}
