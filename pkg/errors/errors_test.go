package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/kpidash/pkg/errors"
)

func TestAppError_IsMatchesCode(t *testing.T) {
	err := errors.ErrOrganizationNotFound.WithMessage("org missing").WithCause(stderrors.New("no row"))
	wrapped := fmt.Errorf("resolve: %w", err)

	assert.True(t, errors.Is(wrapped, errors.ErrOrganizationNotFound))
	assert.False(t, errors.Is(wrapped, errors.ErrUnauthorized))
	assert.Equal(t, "org missing: no row", err.Error())
}

func TestAppError_CopiesDoNotMutateSentinels(t *testing.T) {
	_ = errors.ErrInvalidRequest.WithDetail("viewType", "bad").WithMessage("changed")

	assert.Equal(t, "Invalid request", errors.ErrInvalidRequest.Message)
	assert.Nil(t, errors.ErrInvalidRequest.Details)
	assert.Nil(t, errors.ErrInvalidRequest.Unwrap())
}

func TestAs(t *testing.T) {
	appErr, ok := errors.As(fmt.Errorf("outer: %w", errors.ErrConflict))
	require.True(t, ok)
	assert.Equal(t, errors.CodeConflict, appErr.Code)

	_, ok = errors.As(stderrors.New("plain"))
	assert.False(t, ok)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, errors.HTTPStatus(errors.ErrUnauthorized))
	assert.Equal(t, http.StatusNotFound, errors.HTTPStatus(errors.ErrOrganizationNotFound))
	assert.Equal(t, http.StatusTooManyRequests, errors.HTTPStatus(errors.ErrRateLimitExceeded))
	assert.Equal(t, http.StatusInternalServerError, errors.HTTPStatus(stderrors.New("boom")))
	assert.Equal(t, http.StatusInternalServerError, errors.HTTPStatus(errors.Internal("db", stderrors.New("down"))))
}

func TestInvalidConfig(t *testing.T) {
	err := errors.InvalidConfig("unknown environment %q", "staging")
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
	assert.Equal(t, `unknown environment "staging"`, err.Error())
}
