package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindTooManyRequests, http.StatusTooManyRequests},
		{KindInternal, http.StatusInternalServerError},
		{Kind("something else"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.HTTPStatus())
		})
	}
}

func TestIsMatchesGenericSentinel(t *testing.T) {
	errBook := NotFound("book not found")
	errShelf := NotFound("shelf not found")

	wrapped := fmt.Errorf("loading book: %w", errBook)

	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.True(t, errors.Is(wrapped, errBook))
	assert.False(t, errors.Is(wrapped, errShelf))
	assert.False(t, errors.Is(wrapped, ErrConflict))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindConflict, KindOf(fmt.Errorf("wrapped: %w", Conflict("taken"))))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "taken", MessageOf(Conflict("taken"), "fallback"))
	assert.Equal(t, "fallback", MessageOf(Internal("db exploded", errors.New("boom")), "fallback"))
	assert.Equal(t, "fallback", MessageOf(errors.New("boom"), "fallback"))
}

func TestInternalUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal("error querying books", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "error querying books: connection refused", err.Error())
}
