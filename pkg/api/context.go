package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/koapa/koapa"
)

// Context carries one request through a controller. It owns a query builder
// that no other request sees.
type Context struct {
	Request *http.Request

	id       string
	db       *koapa.QueryBuilder
	response *Response
	logger   *slog.Logger
}

func newContext(r *http.Request, id string, db *koapa.QueryBuilder, logger *slog.Logger) *Context {
	return &Context{
		Request:  r,
		id:       id,
		db:       db,
		response: NewResponse(map[string]any{}),
		logger:   logger.With("request_id", id),
	}
}

// ID returns the request ID, also sent in the X-Request-Id header.
func (c *Context) ID() string { return c.id }

// Context returns the request's context.
func (c *Context) Context() context.Context { return c.Request.Context() }

// Database returns the request's query builder.
func (c *Context) Database() *koapa.QueryBuilder { return c.db }

// Logger returns a logger tagged with the request ID.
func (c *Context) Logger() *slog.Logger { return c.logger }

// Query returns the first value of the URL query parameter key.
func (c *Context) Query(key string) string {
	return c.Request.URL.Query().Get(key)
}

// Respond sets the body and status of the response.
func (c *Context) Respond(body any, status int) error {
	return c.response.Set(body, status)
}

// Response returns the response the handler will send.
func (c *Context) Response() *Response { return c.response }
