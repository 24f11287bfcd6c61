package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrResponseStatus is returned when a controller sets a status outside the
// success range. Failures are reported by returning an error instead.
var ErrResponseStatus = errors.New("api: response status is not a success status")

// IsSuccessStatus reports whether status is in the success range 200-299.
func IsSuccessStatus(status int) bool {
	return status > 199 && status < 300
}

// Response is the JSON body and status a controller answers with.
// The zero value is an empty 200 response.
type Response struct {
	body   any
	status int
}

// NewResponse returns a 200 response with body.
func NewResponse(body any) *Response {
	return &Response{body: body, status: http.StatusOK}
}

// Set replaces the body and status.
func (r *Response) Set(body any, status int) error {
	if err := r.SetStatus(status); err != nil {
		return err
	}
	r.body = body
	return nil
}

// SetBody replaces the body and keeps the status.
func (r *Response) SetBody(body any) {
	r.body = body
}

// SetStatus changes the status. A status outside the success range is
// refused with ErrResponseStatus and the response is left unchanged.
func (r *Response) SetStatus(status int) error {
	if !IsSuccessStatus(status) {
		return fmt.Errorf("%w: %d", ErrResponseStatus, status)
	}
	r.status = status
	return nil
}

// Status returns the response status.
func (r *Response) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

// Body returns the response body.
func (r *Response) Body() any { return r.body }

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
