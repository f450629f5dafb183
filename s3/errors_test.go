package s3

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "nil", err: nil, want: nil},
		{name: "canceled", err: context.Canceled, want: ErrAborted},
		{name: "deadline", err: context.DeadlineExceeded, want: ErrTimeout},
		{name: "no such key", err: &types.NoSuchKey{}, want: ErrNotFound},
		{name: "no such bucket", err: &types.NoSuchBucket{}, want: ErrNotFound},
		{name: "bucket exists", err: &types.BucketAlreadyExists{}, want: ErrConflict},
		{
			name: "api not found",
			err:  &smithy.GenericAPIError{Code: "NotFound", Message: "not found"},
			want: ErrNotFound,
		},
		{
			name: "access denied",
			err:  &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"},
			want: ErrInvalidConfig,
		},
		{
			name: "slow down",
			err:  &smithy.GenericAPIError{Code: "SlowDown", Message: "throttled"},
			want: ErrTimeout,
		},
		{
			name: "entity too large",
			err:  &smithy.GenericAPIError{Code: "EntityTooLarge", Message: "too big"},
			want: ErrTooLarge,
		},
		{
			name: "invalid part",
			err:  &smithy.GenericAPIError{Code: "InvalidPart", Message: "bad part"},
			want: ErrAborted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err, "op", "key")
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)

			var storageErr *StorageError
			assert.True(t, errors.As(got, &storageErr))
			assert.Equal(t, "op", storageErr.Op)
		})
	}
}

func TestMapErrorNoDoubleWrap(t *testing.T) {
	inner := &StorageError{Op: "download", Key: "k", Err: ErrNotFound}
	got := mapError(inner, "outer", "k")
	assert.Same(t, inner, got)
}

func TestStorageErrorMessage(t *testing.T) {
	err := &StorageError{Op: "upload", Key: "a/b.txt", Err: fmt.Errorf("boom")}
	assert.Equal(t, `s3 upload "a/b.txt": boom`, err.Error())

	err = &StorageError{Op: "ping", Err: fmt.Errorf("boom")}
	assert.Equal(t, "s3 ping: boom", err.Error())
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, isRetryable(nil))
	assert.False(t, isRetryable(&StorageError{Op: "get", Err: ErrNotFound}))
	assert.False(t, isRetryable(&StorageError{Op: "put", Err: ErrConflict}))
	assert.False(t, isRetryable(context.Canceled))
	assert.True(t, isRetryable(&StorageError{Op: "put", Err: ErrTimeout}))
	assert.True(t, isRetryable(fmt.Errorf("connection reset")))
}
