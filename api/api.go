// Package api provides gin routing helpers: endpoints grouping
// handlers per HTTP method with a default status code and middleware,
// and JSON rendering through the utils serializer.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Tracktor/tracktolib/utils"
)

// HandlerFunc handles a request and returns the response payload. A
// returned *Error sets the response status, any other error maps to
// 500.
type HandlerFunc func(c *gin.Context) (any, error)

// Error carries an HTTP status along with the message.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// NewError builds an Error with the given status and message.
func NewError(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

type methodMeta struct {
	handler    HandlerFunc
	status     int
	middleware []gin.HandlerFunc
}

// Endpoint groups the handlers of one route per HTTP method.
type Endpoint struct {
	methods map[string]methodMeta
}

// NewEndpoint creates an empty Endpoint.
func NewEndpoint() *Endpoint {
	return &Endpoint{methods: map[string]methodMeta{}}
}

// MethodOption customizes a registered method.
type MethodOption func(*methodMeta)

// WithStatus sets the response status used for successful calls.
func WithStatus(status int) MethodOption {
	return func(m *methodMeta) { m.status = status }
}

// WithMiddleware prepends middleware to this method only.
func WithMiddleware(middleware ...gin.HandlerFunc) MethodOption {
	return func(m *methodMeta) { m.middleware = middleware }
}

func (e *Endpoint) register(method string, handler HandlerFunc, opts []MethodOption) *Endpoint {
	meta := methodMeta{handler: handler, status: http.StatusOK}
	for _, opt := range opts {
		opt(&meta)
	}
	e.methods[method] = meta
	return e
}

// Get registers the GET handler.
func (e *Endpoint) Get(handler HandlerFunc, opts ...MethodOption) *Endpoint {
	return e.register(http.MethodGet, handler, opts)
}

// Post registers the POST handler.
func (e *Endpoint) Post(handler HandlerFunc, opts ...MethodOption) *Endpoint {
	return e.register(http.MethodPost, handler, opts)
}

// Put registers the PUT handler.
func (e *Endpoint) Put(handler HandlerFunc, opts ...MethodOption) *Endpoint {
	return e.register(http.MethodPut, handler, opts)
}

// Patch registers the PATCH handler.
func (e *Endpoint) Patch(handler HandlerFunc, opts ...MethodOption) *Endpoint {
	return e.register(http.MethodPatch, handler, opts)
}

// Delete registers the DELETE handler.
func (e *Endpoint) Delete(handler HandlerFunc, opts ...MethodOption) *Endpoint {
	return e.register(http.MethodDelete, handler, opts)
}

// AddEndpoint registers every method of the endpoint on the router at
// path. middleware runs for all methods, before any method specific
// middleware.
func AddEndpoint(router gin.IRouter, path string, endpoint *Endpoint, middleware ...gin.HandlerFunc) {
	for method, meta := range endpoint.methods {
		handlers := make([]gin.HandlerFunc, 0, len(middleware)+len(meta.middleware)+1)
		handlers = append(handlers, middleware...)
		handlers = append(handlers, meta.middleware...)
		handlers = append(handlers, meta.ginHandler())
		router.Handle(method, path, handlers...)
	}
}

func (m methodMeta) ginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := m.handler(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if result == nil && m.status == http.StatusNoContent {
			c.Status(m.status)
			return
		}
		JSON(c, m.status, result)
	}
}

// errorBody is the JSON shape of error responses.
type errorBody struct {
	Error string `json:"error"`
}

// JSON writes v with the utils serializer, which renders time and IP
// values as strings.
func JSON(c *gin.Context, status int, v any) {
	raw, err := utils.Marshal(v)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	c.Data(status, "application/json; charset=utf-8", raw)
}

// AbortWithError stops the handler chain and writes the error as a
// JSON body. A *Error picks its own status, anything else is a 500.
func AbortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var apiErr *Error
	if errors.As(err, &apiErr) {
		status = apiErr.Status
	}
	c.AbortWithStatusJSON(status, errorBody{Error: err.Error()})
}

// Abort stops the handler chain with a status and message.
func Abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, errorBody{Error: message})
}
