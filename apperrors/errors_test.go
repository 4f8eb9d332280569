package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_HTTPStatus(t *testing.T) {
	cases := map[*AppError]int{
		NewNotFoundError("x"):        http.StatusNotFound,
		NewValidationError("x", nil): http.StatusUnprocessableEntity,
		NewBadRequestError("x"):      http.StatusBadRequest,
		NewConflictError("x"):        http.StatusConflict,
		NewUnauthorizedError("x"):    http.StatusUnauthorized,
		NewForbiddenError("x"):       http.StatusForbidden,
		NewInternalError("x", nil):   http.StatusInternalServerError,
		NewExternalError("x", nil):   http.StatusBadGateway,
	}
	for err, status := range cases {
		assert.Equal(t, status, err.HTTPStatus(), string(err.Type))
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewInternalError("failed to load user", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NewNotFoundError("appointment not found"))

	appErr, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "appointment not found", appErr.Message)
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsNotFound(errors.New("plain")))
}
