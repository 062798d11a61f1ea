package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NotFound("Пользователь с ID %d не найден", 7), http.StatusNotFound},
		{"conflict", Conflict("taken"), http.StatusConflict},
		{"bad credentials", ErrBadCredentials, http.StatusUnauthorized},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"validation", Validation("bad"), http.StatusBadRequest},
		{"io", IO("read failed", errors.New("eof")), http.StatusBadRequest},
		{"oversize", fmt.Errorf("upload: %w", ErrOversize), http.StatusExpectationFailed},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MapErrorToStatus(tc.err))
		})
	}
}

func TestMessage(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NotFound("Пользователь с ID %d не найден", 42))
	assert.Equal(t, "Пользователь с ID 42 не найден", Message(err))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Empty(t, Message(errors.New("plain")))
}
