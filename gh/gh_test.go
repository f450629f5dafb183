package gh

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGitHub is a minimal in-memory GitHub API for the endpoints the
// client touches.
type fakeGitHub struct {
	mu       sync.Mutex
	comments map[int64]IssueComment
	labels   map[string]Label
	nextID   int64

	deployments []Deployment
	statuses    map[int64][]DeploymentStatus
}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{
		comments: map[int64]IssueComment{},
		labels:   map[string]Label{},
		statuses: map[int64][]DeploymentStatus{},
		nextID:   1,
	}
}

func (f *fakeGitHub) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/repos/org/repo/issues/1/comments", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			out := make([]IssueComment, 0, len(f.comments))
			for _, c := range f.comments {
				out = append(out, c)
			}
			json.NewEncoder(w).Encode(out)
		case http.MethodPost:
			var in struct {
				Body string `json:"body"`
			}
			json.NewDecoder(r.Body).Decode(&in)
			c := IssueComment{ID: f.nextID, Body: in.Body}
			f.nextID++
			f.comments[c.ID] = c
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(c)
		}
	})

	mux.HandleFunc("/repos/org/repo/issues/comments/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id, _ := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/repos/org/repo/issues/comments/"), 10, 64)
		if _, ok := f.comments[id]; !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"message": "Not Found"})
			return
		}
		delete(f.comments, id)
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("/repos/org/repo/issues/1/labels", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			out := make([]Label, 0, len(f.labels))
			for _, l := range f.labels {
				out = append(out, l)
			}
			json.NewEncoder(w).Encode(out)
		case http.MethodPost:
			var in struct {
				Labels []string `json:"labels"`
			}
			json.NewDecoder(r.Body).Decode(&in)
			for _, name := range in.Labels {
				f.labels[name] = Label{ID: f.nextID, Name: name}
				f.nextID++
			}
			out := make([]Label, 0, len(f.labels))
			for _, l := range f.labels {
				out = append(out, l)
			}
			json.NewEncoder(w).Encode(out)
		}
	})

	mux.HandleFunc("/repos/org/repo/issues/1/labels/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		name := strings.TrimPrefix(r.URL.Path, "/repos/org/repo/issues/1/labels/")
		if _, ok := f.labels[name]; !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"message": "Label does not exist"})
			return
		}
		delete(f.labels, name)
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/repos/org/repo/deployments", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		env := r.URL.Query().Get("environment")
		var out []Deployment
		for _, d := range f.deployments {
			if env == "" || d.Environment == env {
				out = append(out, d)
			}
		}
		json.NewEncoder(w).Encode(out)
	})

	mux.HandleFunc("/repos/org/repo/deployments/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		rest := strings.TrimPrefix(r.URL.Path, "/repos/org/repo/deployments/")
		id, _ := strconv.ParseInt(strings.TrimSuffix(rest, "/statuses"), 10, 64)
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(f.statuses[id])
		case http.MethodPost:
			var in DeploymentStatusInput
			json.NewDecoder(r.Body).Decode(&in)
			status := DeploymentStatus{ID: f.nextID, State: in.State, Description: in.Description}
			f.nextID++
			// Most recent first, like the real API.
			f.statuses[id] = append([]DeploymentStatus{status}, f.statuses[id]...)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(status)
		}
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		mux.ServeHTTP(w, r)
	})
}

func newTestClient(t *testing.T) (*Client, *fakeGitHub) {
	t.Helper()
	fake := newFakeGitHub()
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	client, err := NewClient("test-token", WithBaseURL(server.URL))
	require.NoError(t, err)
	return client, fake
}

func TestNewClientRequiresToken(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	_, err := NewClient("")
	assert.Error(t, err)

	t.Setenv("GITHUB_TOKEN", "from-env")
	client, err := NewClient("")
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestIssueComments(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	created, err := client.CreateIssueComment(ctx, "org/repo", 1, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", created.Body)

	comments, err := client.GetIssueComments(ctx, "org/repo", 1)
	require.NoError(t, err)
	require.Len(t, comments, 1)

	require.NoError(t, client.DeleteIssueComment(ctx, "org/repo", created.ID))
	comments, err = client.GetIssueComments(ctx, "org/repo", 1)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestIdempotentComment(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	marker := "<!-- ci-report -->"
	body := fmt.Sprintf("%s\nAll good", marker)

	first, err := client.CreateIdempotentComment(ctx, "org/repo", 1, body, marker)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := client.CreateIdempotentComment(ctx, "org/repo", 1, body, marker)
	require.NoError(t, err)
	assert.Nil(t, second)

	ids, err := client.FindCommentsWithMarker(ctx, "org/repo", 1, marker)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestDeleteCommentsWithMarker(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	marker := "<!-- preview -->"
	for i := 0; i < 3; i++ {
		_, err := client.CreateIssueComment(ctx, "org/repo", 1, fmt.Sprintf("%s build %d", marker, i))
		require.NoError(t, err)
	}
	_, err := client.CreateIssueComment(ctx, "org/repo", 1, "unrelated")
	require.NoError(t, err)

	var progress []int
	deleted, err := client.DeleteCommentsWithMarker(ctx, "org/repo", 1, marker, func(done, total int) {
		progress = append(progress, done)
		assert.Equal(t, 3, total)
	})
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)
	assert.Equal(t, []int{1, 2, 3}, progress)

	comments, err := client.GetIssueComments(ctx, "org/repo", 1)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "unrelated", comments[0].Body)
}

func TestLabels(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	labels, err := client.AddLabels(ctx, "org/repo", 1, []string{"bug", "p1"})
	require.NoError(t, err)
	assert.Len(t, labels, 2)

	removed, err := client.RemoveLabel(ctx, "org/repo", 1, "bug")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = client.RemoveLabel(ctx, "org/repo", 1, "bug")
	require.NoError(t, err)
	assert.False(t, removed)

	labels, err = client.GetIssueLabels(ctx, "org/repo", 1)
	require.NoError(t, err)
	require.Len(t, labels, 1)
	assert.Equal(t, "p1", labels[0].Name)
}

func TestDeployments(t *testing.T) {
	ctx := context.Background()
	client, fake := newTestClient(t)
	fake.deployments = []Deployment{
		{ID: 10, Environment: "staging"},
		{ID: 11, Environment: "production"},
	}

	deployments, err := client.GetDeployments(ctx, "org/repo", "staging")
	require.NoError(t, err)
	require.Len(t, deployments, 1)
	assert.Equal(t, int64(10), deployments[0].ID)

	status, err := client.CreateDeploymentStatus(ctx, "org/repo", 10, DeploymentStatusInput{State: "success"})
	require.NoError(t, err)
	assert.Equal(t, "success", status.State)

	latest, err := client.LatestDeploymentStatus(ctx, "org/repo", "staging")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "success", latest.State)

	latest, err = client.LatestDeploymentStatus(ctx, "org/repo", "unknown")
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestMarkDeploymentsInactive(t *testing.T) {
	ctx := context.Background()
	client, fake := newTestClient(t)
	fake.deployments = []Deployment{
		{ID: 1, Environment: "preview"},
		{ID: 2, Environment: "preview"},
	}

	count, err := client.MarkDeploymentsInactive(ctx, "org/repo", "preview", "", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	statuses, err := client.GetDeploymentStatuses(ctx, "org/repo", 1)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, "inactive", statuses[0].State)
	assert.Equal(t, "Environment removed", statuses[0].Description)
}
