// Package api hosts controllers over HTTP. Each request gets its own Context
// and QueryBuilder; errors returned by a controller become JSON error bodies
// with the status the error maps to.
package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/koapa/koapa"
)

// Controller handles one route.
type Controller interface {
	OnRequest(c *Context) error
}

// ControllerFunc adapts a function to a Controller.
type ControllerFunc func(c *Context) error

// OnRequest calls f(c).
func (f ControllerFunc) OnRequest(c *Context) error { return f(c) }

// BuilderFactory returns a fresh QueryBuilder for a request.
type BuilderFactory func() *koapa.QueryBuilder

// Handler serves ctrl. A panic in the controller is recovered and answered
// with a 500.
func Handler(ctrl Controller, factory BuilderFactory, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		c := newContext(r, id, factory(), logger)

		defer func() {
			if rec := recover(); rec != nil {
				c.logger.Error("controller panicked", "path", r.URL.Path, "panic", rec)
				writeJSON(w, http.StatusInternalServerError,
					Errorf(http.StatusInternalServerError, "internal error: %v", rec))
			}
		}()

		if err := ctrl.OnRequest(c); err != nil {
			e := toError(err)
			level := slog.LevelWarn
			if e.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			c.logger.Log(r.Context(), level, "request failed",
				"path", r.URL.Path, "status", e.Status, "code", e.Code, "error", err)
			writeJSON(w, e.Status, e)
			return
		}

		c.logger.Debug("request handled", "path", r.URL.Path, "status", c.response.Status())
		writeJSON(w, c.response.Status(), c.response.Body())
	})
}
