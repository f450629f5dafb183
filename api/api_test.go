package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func perform(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestAddEndpoint(t *testing.T) {
	router := newTestRouter()

	endpoint := NewEndpoint().
		Get(func(c *gin.Context) (any, error) {
			return map[string]any{"status": "ok"}, nil
		}).
		Post(func(c *gin.Context) (any, error) {
			return map[string]any{"id": 1}, nil
		}, WithStatus(http.StatusCreated)).
		Delete(func(c *gin.Context) (any, error) {
			return nil, nil
		}, WithStatus(http.StatusNoContent))

	AddEndpoint(router, "/items", endpoint)

	resp := perform(router, http.MethodGet, "/items")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"ok"}`, resp.Body.String())

	resp = perform(router, http.MethodPost, "/items")
	assert.Equal(t, http.StatusCreated, resp.Code)
	assert.JSONEq(t, `{"id":1}`, resp.Body.String())

	resp = perform(router, http.MethodDelete, "/items")
	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Empty(t, resp.Body.String())

	// Unregistered methods are not routed.
	resp = perform(router, http.MethodPut, "/items")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestEndpointErrors(t *testing.T) {
	router := newTestRouter()

	endpoint := NewEndpoint().
		Get(func(c *gin.Context) (any, error) {
			return nil, NewError(http.StatusNotFound, "item not found")
		}).
		Post(func(c *gin.Context) (any, error) {
			return nil, fmt.Errorf("boom")
		})
	AddEndpoint(router, "/items", endpoint)

	resp := perform(router, http.MethodGet, "/items")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.JSONEq(t, `{"error":"item not found"}`, resp.Body.String())

	resp = perform(router, http.MethodPost, "/items")
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.JSONEq(t, `{"error":"boom"}`, resp.Body.String())
}

func TestEndpointMiddleware(t *testing.T) {
	router := newTestRouter()

	var order []string
	global := func(c *gin.Context) {
		order = append(order, "global")
		c.Next()
	}
	auth := func(c *gin.Context) {
		order = append(order, "auth")
		if c.GetHeader("Authorization") == "" {
			Abort(c, http.StatusUnauthorized, "missing token")
			return
		}
		c.Next()
	}

	endpoint := NewEndpoint().
		Get(func(c *gin.Context) (any, error) {
			order = append(order, "handler")
			return map[string]any{"ok": true}, nil
		}, WithMiddleware(auth))
	AddEndpoint(router, "/private", endpoint, global)

	resp := perform(router, http.MethodGet, "/private")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.JSONEq(t, `{"error":"missing token"}`, resp.Body.String())
	assert.Equal(t, []string{"global", "auth"}, order)

	order = nil
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer token")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"global", "auth", "handler"}, order)
}

func TestJSONSerialization(t *testing.T) {
	router := newTestRouter()

	createdAt := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	endpoint := NewEndpoint().
		Get(func(c *gin.Context) (any, error) {
			return map[string]any{"created_at": createdAt}, nil
		})
	AddEndpoint(router, "/events", endpoint)

	resp := perform(router, http.MethodGet, "/events")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Header().Get("Content-Type"), "application/json")
	assert.JSONEq(t, `{"created_at":"2024-01-15T10:30:00Z"}`, resp.Body.String())
}

func TestJSONRejectsNaN(t *testing.T) {
	router := newTestRouter()

	endpoint := NewEndpoint().
		Get(func(c *gin.Context) (any, error) {
			nan := 0.0
			return map[string]any{"value": nan / nan}, nil
		})
	AddEndpoint(router, "/broken", endpoint)

	resp := perform(router, http.MethodGet, "/broken")
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.True(t, strings.Contains(resp.Body.String(), "NaN"))
}
