package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/koapa/koapa"
)

// Error is a failure a controller answers with. It renders as
//
//	{"message": "...", "status": 400, "code": "...", "details": {...}}
type Error struct {
	Message string         `json:"message"`
	Status  int            `json:"status"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Errorf returns an Error with status and a formatted message.
func Errorf(status int, format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Status: status}
}

// toError converts any controller error to the body sent to the client.
// Builder failures keep their code and details.
func toError(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	if e, ok := koapa.AsError(err); ok {
		return &Error{
			Message: e.Error(),
			Status:  e.Status(),
			Code:    string(e.Code),
			Details: e.Details,
		}
	}
	return &Error{Message: err.Error(), Status: http.StatusInternalServerError}
}
