package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSuccessStatus(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{199, false},
		{200, true},
		{201, true},
		{299, true},
		{300, false},
		{404, false},
		{500, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsSuccessStatus(tt.status), "status %d", tt.status)
	}
}

func TestResponse_SetStatus(t *testing.T) {
	r := NewResponse(map[string]any{"ok": true})
	assert.Equal(t, http.StatusOK, r.Status())

	require.NoError(t, r.SetStatus(http.StatusCreated))
	assert.Equal(t, http.StatusCreated, r.Status())

	err := r.SetStatus(http.StatusNotFound)
	require.ErrorIs(t, err, ErrResponseStatus)
	assert.Equal(t, http.StatusCreated, r.Status(), "a refused status leaves the response unchanged")
}

func TestResponse_Set(t *testing.T) {
	r := NewResponse(nil)
	require.NoError(t, r.Set("body", http.StatusAccepted))
	assert.Equal(t, "body", r.Body())
	assert.Equal(t, http.StatusAccepted, r.Status())

	require.Error(t, r.Set("other", http.StatusTeapot))
	assert.Equal(t, "body", r.Body())

	r.SetBody("replaced")
	assert.Equal(t, "replaced", r.Body())

	var zero Response
	assert.Equal(t, http.StatusOK, zero.Status())
}
