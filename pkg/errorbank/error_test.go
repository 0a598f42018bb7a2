package errorbank

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestKindMappings(t *testing.T) {
	tests := []struct {
		err    *AppError
		status int
		code   codes.Code
	}{
		{BadRequest("bad"), http.StatusBadRequest, codes.InvalidArgument},
		{Conflict("dup"), http.StatusConflict, codes.AlreadyExists},
		{NotFound("missing"), http.StatusNotFound, codes.NotFound},
		{Unprocessable("degraded"), http.StatusUnprocessableEntity, codes.FailedPrecondition},
		{Unavailable("down"), http.StatusServiceUnavailable, codes.Unavailable},
		{Internal("boom"), http.StatusInternalServerError, codes.Internal},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Kind()), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.StatusCode())
			assert.Equal(t, tt.code, tt.err.GRPCCode())
		})
	}
}

func TestFromWrapsPlainErrors(t *testing.T) {
	cause := errors.New("socket closed")

	appErr := From(cause)
	assert.Equal(t, KindInternal, appErr.Kind())
	assert.ErrorIs(t, appErr, cause)

	wrapped := fmt.Errorf("store: %w", NotFound("work order not found"))
	assert.Equal(t, KindNotFound, From(wrapped).Kind())
	assert.True(t, IsKind(wrapped, KindNotFound))
	assert.False(t, IsKind(cause, KindNotFound))
	assert.Nil(t, From(nil))
}

func TestDetails(t *testing.T) {
	err := BadRequest("invalid payload",
		WithDetail("field", "order_id"),
		WithDetails(map[string]any{"tag": "required"}),
	)
	assert.Equal(t, map[string]any{"field": "order_id", "tag": "required"}, err.Details())
	assert.Equal(t, "invalid payload", err.Error())
}

func TestGRPCStatusAndRetry(t *testing.T) {
	err := fmt.Errorf("list: %w", Unavailable("store unreachable"))
	assert.Equal(t, codes.Unavailable, status.Code(err))
	assert.True(t, From(err).Retryable())
	assert.False(t, Conflict("dup").Retryable())

	var nilErr *AppError
	assert.Equal(t, http.StatusInternalServerError, nilErr.StatusCode())
	assert.Equal(t, http.StatusInternalServerError, New(Kind("teapot"), "").StatusCode())
}
