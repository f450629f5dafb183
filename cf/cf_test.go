package cf

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCloudflare implements the DNS record endpoints with the
// success/errors envelope of the real API.
type fakeCloudflare struct {
	mu      sync.Mutex
	records map[string]DNSRecord
}

func (f *fakeCloudflare) handler() http.Handler {
	writeOK := func(w http.ResponseWriter, result any) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"success": true, "errors": []any{}, "result": result})
	}
	writeErr := func(w http.ResponseWriter, status, code int, message string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"errors":  []APIError{{Code: code, Message: message}},
		})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/zones/zone-1/dns_records", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			name, recordType := r.URL.Query().Get("name"), r.URL.Query().Get("type")
			out := []DNSRecord{}
			for _, rec := range f.records {
				if rec.Name == name && rec.Type == recordType {
					out = append(out, rec)
				}
			}
			writeOK(w, out)
		case http.MethodPost:
			var in CreateRecordInput
			json.NewDecoder(r.Body).Decode(&in)
			for _, rec := range f.records {
				if rec.Name == in.Name && rec.Type == in.Type {
					writeErr(w, http.StatusBadRequest, 81058, "An identical record already exists.")
					return
				}
			}
			rec := DNSRecord{
				ID: uuid.New().String(), Name: in.Name, Type: in.Type,
				Content: in.Content, TTL: in.TTL, Proxied: in.Proxied, Comment: in.Comment,
			}
			f.records[rec.ID] = rec
			writeOK(w, rec)
		}
	})
	mux.HandleFunc("/zones/zone-1/dns_records/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id := strings.TrimPrefix(r.URL.Path, "/zones/zone-1/dns_records/")
		rec, ok := f.records[id]
		if !ok {
			writeErr(w, http.StatusNotFound, 81044, "Record not found.")
			return
		}
		switch r.Method {
		case http.MethodPatch:
			var in UpdateRecordInput
			json.NewDecoder(r.Body).Decode(&in)
			if in.Content != nil {
				rec.Content = *in.Content
			}
			if in.TTL != nil {
				rec.TTL = *in.TTL
			}
			if in.Proxied != nil {
				rec.Proxied = *in.Proxied
			}
			if in.Comment != nil {
				rec.Comment = *in.Comment
			}
			f.records[id] = rec
			writeOK(w, rec)
		case http.MethodDelete:
			delete(f.records, id)
			writeOK(w, map[string]string{"id": id})
		}
	})
	return mux
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	fake := &fakeCloudflare{records: map[string]DNSRecord{}}
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	client, err := NewClient("test-token", "zone-1", WithBaseURL(server.URL))
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresCredentials(t *testing.T) {
	t.Setenv("CLOUDFLARE_API_TOKEN", "")
	t.Setenv("CLOUDFLARE_ZONE_ID", "")

	_, err := NewClient("", "")
	assert.Error(t, err)
	_, err = NewClient("tok", "")
	assert.Error(t, err)

	t.Setenv("CLOUDFLARE_API_TOKEN", "tok")
	t.Setenv("CLOUDFLARE_ZONE_ID", "zone")
	client, err := NewClient("", "")
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestDNSRecordLifecycle(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	created, err := client.CreateDNSRecord(ctx, CreateRecordInput{
		Name:    "app.example.com",
		Content: "lb.example.com",
		Comment: "preview env",
	})
	require.NoError(t, err)
	assert.Equal(t, "CNAME", created.Type)
	assert.Equal(t, 1, created.TTL)
	assert.NotEmpty(t, created.ID)

	got, err := client.GetDNSRecord(ctx, "app.example.com", "")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)

	exists, err := client.DNSRecordExists(ctx, "app.example.com", "CNAME")
	require.NoError(t, err)
	assert.True(t, exists)

	content := "lb2.example.com"
	ttl := 300
	updated, err := client.UpdateDNSRecord(ctx, created.ID, UpdateRecordInput{Content: &content, TTL: &ttl})
	require.NoError(t, err)
	assert.Equal(t, "lb2.example.com", updated.Content)
	assert.Equal(t, 300, updated.TTL)

	require.NoError(t, client.DeleteDNSRecord(ctx, created.ID))

	got, err = client.GetDNSRecord(ctx, "app.example.com", "CNAME")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteDNSRecordByName(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	_, err := client.CreateDNSRecord(ctx, CreateRecordInput{Name: "x.example.com", Content: "y"})
	require.NoError(t, err)

	deleted, err := client.DeleteDNSRecordByName(ctx, "x.example.com", "CNAME")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = client.DeleteDNSRecordByName(ctx, "x.example.com", "CNAME")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestAPIError(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	_, err := client.CreateDNSRecord(ctx, CreateRecordInput{Name: "dup.example.com", Content: "a"})
	require.NoError(t, err)

	_, err = client.CreateDNSRecord(ctx, CreateRecordInput{Name: "dup.example.com", Content: "b"})
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Len(t, apiErr.Errors, 1)
	assert.Equal(t, 81058, apiErr.Errors[0].Code)
	assert.True(t, strings.Contains(apiErr.Error(), "identical record"), fmt.Sprint(apiErr))
}
