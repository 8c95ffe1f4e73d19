package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("handler: %w", New(KindUnknownProduct, "Unknown product: X"))

	assert.True(t, errors.Is(err, ErrUnknownProduct))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, KindUnknownProduct, KindOf(err))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("disk on fire")
	err := Wrap(KindStoreFailure, cause, "Failed to save feedback")

	assert.Equal(t, "Failed to save feedback", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusInternalServerError, err.Status())
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindTokenExpired, http.StatusUnauthorized},
		{KindTokenInvalid, http.StatusUnauthorized},
		{KindForbiddenRole, http.StatusForbidden},
		{KindRateLimited, http.StatusTooManyRequests},
		{KindQuotaExceeded, http.StatusTooManyRequests},
		{KindUnsupportedModel, http.StatusBadRequest},
		{KindEmptyAIResponse, http.StatusBadRequest},
		{KindInvalidAIResponse, http.StatusBadRequest},
		{KindAnalysisFailed, http.StatusInternalServerError},
		{KindUnknownProduct, http.StatusBadRequest},
		{KindNotFound, http.StatusNotFound},
		{KindClientDisconnected, 499},
		{KindStoreFailure, http.StatusInternalServerError},
		{KindUnavailable, http.StatusServiceUnavailable},
		{Kind("mystery"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.kind))
		})
	}
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abc...", Truncate("abcdef", 3))
	assert.Equal(t, "héé...", Truncate("hééllo", 3))
}
