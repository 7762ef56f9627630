package util

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainErrorCodes(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"validation", NewValidationError("bad", nil), "VALIDATION_FAILED", http.StatusBadRequest},
		{"not found", NewNotFound("staff", nil), "NOT_FOUND", http.StatusNotFound},
		{"unauthorized", NewUnauthorized("no"), "UNAUTHORIZED", http.StatusUnauthorized},
		{"forbidden", NewForbidden("no"), "FORBIDDEN", http.StatusForbidden},
		{"conflict", NewConflict("clash", nil), "CONFLICT", http.StatusConflict},
		{"ambiguous", NewAmbiguousIdentity("sid-k1", []string{"a", "b"}), "AMBIGUOUS_IDENTITY", http.StatusConflict},
		{"duplicate", NewDuplicateEvent("evt-1"), "DUPLICATE_EVENT", http.StatusConflict},
		{"timeout", NewTimeout("read", context.DeadlineExceeded), "TIMEOUT", http.StatusGatewayTimeout},
		{"internal", NewInternalError(errors.New("boom")), "INTERNAL_ERROR", http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var domainErr *DomainError
			require.ErrorAs(t, tc.err, &domainErr)
			assert.Equal(t, tc.code, domainErr.Code)
			assert.Equal(t, tc.status, domainErr.HTTPStatus)
			assert.True(t, HasCode(tc.err, tc.code))
		})
	}
}

func TestTimeoutWrapsCause(t *testing.T) {
	err := NewTimeout("query jobs", context.DeadlineExceeded)
	assert.True(t, IsTimeout(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIsDuplicateEvent(t *testing.T) {
	assert.True(t, IsDuplicateEvent(NewDuplicateEvent("evt-1")))
	assert.False(t, IsDuplicateEvent(NewConflict("other", nil)))
	assert.False(t, IsDuplicateEvent(nil))
}

func TestPartialAvailabilityError(t *testing.T) {
	partial := &PartialAvailabilityError{
		Succeeded: []string{"notifications"},
		Failed:    map[string]error{"jobs": errors.New("down")},
	}

	assert.Equal(t, "collections unavailable: jobs", partial.Error())

	rendered := partial.ToDomainError()
	assert.Equal(t, "PARTIAL_AVAILABILITY", rendered.Code)
	assert.Equal(t, http.StatusOK, rendered.HTTPStatus)
	assert.Equal(t, []string{"notifications"}, rendered.Details["succeeded"])
	assert.Equal(t, []string{"jobs"}, rendered.Details["failed"])
}

func TestToDomainError(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.Nil(t, ToDomainError(nil))
		assert.NoError(t, MapError(nil))
	})

	t.Run("domain error is preserved", func(t *testing.T) {
		original := NewNotFound("staff", nil)
		var domainErr *DomainError
		require.ErrorAs(t, original, &domainErr)
		assert.Same(t, domainErr, ToDomainError(original))
	})

	t.Run("partial error is rendered", func(t *testing.T) {
		partial := &PartialAvailabilityError{Failed: map[string]error{"jobs": errors.New("down")}}
		assert.Equal(t, "PARTIAL_AVAILABILITY", ToDomainError(partial).Code)
	})

	t.Run("unknown errors become internal", func(t *testing.T) {
		rendered := ToDomainError(errors.New("boom"))
		assert.Equal(t, "INTERNAL_ERROR", rendered.Code)
		assert.ErrorContains(t, rendered, "boom")
	})
}
