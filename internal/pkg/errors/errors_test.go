package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without wrapped error",
			err:  NotFound("not found"),
			want: "NOT_FOUND: not found",
		},
		{
			name: "with wrapped error",
			err:  Wrap(fmt.Errorf("db error"), KindInternal, "database failure"),
			want: "INTERNAL: database failure: db error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap(inner, KindInternal, "msg")

	assert.True(t, errors.Is(appErr, inner))
}

func TestAs(t *testing.T) {
	appErr := NotFound("resource not found")
	wrapped := fmt.Errorf("wrapped: %w", appErr)

	got, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindNotFound, got.Kind)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(fmt.Errorf("plain")))
	assert.Equal(t, KindInvalidArgument, KindOf(InvalidArgument("bad")))
}

func TestConcurrency(t *testing.T) {
	err := Concurrency("version conflict")
	assert.Equal(t, KindConcurrency, err.Kind)
	assert.Equal(t, KindConcurrency, KindOf(err))
}

func TestKind_Code(t *testing.T) {
	tests := []struct {
		kind Kind
		want codes.Code
	}{
		{KindInvalidArgument, codes.InvalidArgument},
		{KindNotFound, codes.NotFound},
		{KindConcurrency, codes.FailedPrecondition},
		{KindInternal, codes.Internal},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.Code(), "%s.Code()", tt.kind)
	}
}
