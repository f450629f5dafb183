package httpx

import (
	"bytes"
	"context"
	"crypto/md5"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadFile(t *testing.T) {
	payload := bytes.Repeat([]byte("abcd"), 1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "42", r.URL.Query().Get("version"))
		assert.Equal(t, "token-1", r.Header.Get("X-Auth"))
		w.Write(payload)
	}))
	t.Cleanup(server.Close)

	var out bytes.Buffer
	err := DownloadFile(context.Background(), resty.New(), server.URL, &out, DownloadOptions{
		Params:  map[string]string{"version": "42"},
		Headers: map[string]string{"X-Auth": "token-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, payload, out.Bytes())
}

func TestDownloadFileChunks(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 2500)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	t.Cleanup(server.Close)

	hash := md5.New()
	var chunks int
	var out bytes.Buffer
	err := DownloadFile(context.Background(), resty.New(), server.URL, &out, DownloadOptions{
		ChunkSize: 1000,
		OnChunk: func(chunk []byte) {
			chunks++
			hash.Write(chunk)
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, chunks)
	assert.Equal(t, md5.Sum(payload), [16]byte(hash.Sum(nil)))
}

func TestDownloadFileProgress(t *testing.T) {
	payload := strings.Repeat("y", 4096)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		w.Write([]byte(payload))
	}))
	t.Cleanup(server.Close)

	var total int64
	var received int
	onResponse, onChunk := Progress(func(contentLength int64, n int) {
		total = contentLength
		received += n
	})

	var out bytes.Buffer
	err := DownloadFile(context.Background(), resty.New(), server.URL, &out, DownloadOptions{
		ChunkSize:  1024,
		OnResponse: onResponse,
		OnChunk:    onChunk,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), total)
	assert.Equal(t, len(payload), received)
}

func TestDownloadFileRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("recovered"))
	}))
	t.Cleanup(server.Close)

	var out bytes.Buffer
	err := DownloadFile(context.Background(), resty.New(), server.URL, &out, DownloadOptions{MaxRetries: 2})
	require.NoError(t, err)
	assert.Equal(t, "recovered", out.String())
	assert.Equal(t, int32(2), calls.Load())
}

func TestDownloadFileClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	var out bytes.Buffer
	err := DownloadFile(context.Background(), resty.New(), server.URL, &out, DownloadOptions{MaxRetries: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	// 4xx responses are not retried.
	assert.Equal(t, int32(1), calls.Load())
}
