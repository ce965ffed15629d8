package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{ErrTournamentNotFound, http.StatusNotFound},
		{ErrDeadlinePassed, http.StatusBadRequest},
		{ErrTournamentFull, http.StatusBadRequest},
		{ErrCapacityExceeded, http.StatusBadRequest},
		{ErrAlreadyRegistered, http.StatusConflict},
		{ErrNotOrganizer, http.StatusForbidden},
		{New(CodeUnauthorized, "nope"), http.StatusUnauthorized},
		{New(CodeInternal, "boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Message, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestWrapKeepsSentinelMatchable(t *testing.T) {
	wrapped := fmt.Errorf("register: %w", ErrCapacityExceeded)

	assert.True(t, errors.Is(wrapped, ErrCapacityExceeded))
	assert.False(t, errors.Is(wrapped, ErrTournamentFull))
	assert.Equal(t, CodeCapacityExceeded, CodeOf(wrapped))
	assert.Equal(t, ErrTournamentFull.Message, ErrCapacityExceeded.Message)
	assert.Equal(t, ErrTournamentFull.HTTPStatus(), ErrCapacityExceeded.HTTPStatus())
}

func TestCodeOf(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, CodeInternal, "failed to load tournament")

	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
	assert.False(t, IsCode(nil, CodeInternal))
	assert.True(t, IsCode(Validation("bad %s", "fee"), CodeValidation))
	assert.Equal(t, "INTERNAL: failed to load tournament (connection reset)", err.Error())
}
