package s3

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// Domain errors, checked with errors.Is.
var (
	// ErrNotFound indicates the requested object or bucket was not found.
	ErrNotFound = errors.New("s3: not found")

	// ErrConflict indicates the object or bucket already exists.
	ErrConflict = errors.New("s3: conflict")

	// ErrInvalidConfig indicates the configuration or credentials were
	// rejected.
	ErrInvalidConfig = errors.New("s3: invalid configuration")

	// ErrAborted indicates the operation was cancelled, including
	// multipart uploads that were aborted.
	ErrAborted = errors.New("s3: operation aborted")

	// ErrTimeout indicates a deadline was exceeded or the service asked
	// to back off.
	ErrTimeout = errors.New("s3: operation timeout")

	// ErrTooLarge indicates the payload exceeds a service limit.
	ErrTooLarge = errors.New("s3: object too large")
)

// StorageError carries operation context along the wrapped cause.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("s3 %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("s3 %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// mapError converts SDK errors into domain errors wrapped with
// operation context.
func mapError(err error, op, key string) error {
	if err == nil {
		return nil
	}

	wrap := func(cause error) error {
		return &StorageError{Op: op, Key: key, Err: cause}
	}

	if errors.Is(err, context.Canceled) {
		return wrap(ErrAborted)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return wrap(ErrTimeout)
	}

	var (
		noBucket  *types.NoSuchBucket
		noKey     *types.NoSuchKey
		notFound  *types.NotFound
		bucketDup *types.BucketAlreadyExists
		bucketOwn *types.BucketAlreadyOwnedByYou
	)
	switch {
	case errors.As(err, &noBucket), errors.As(err, &noKey), errors.As(err, &notFound):
		return wrap(ErrNotFound)
	case errors.As(err, &bucketDup), errors.As(err, &bucketOwn):
		return wrap(ErrConflict)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket", "NoSuchKey", "NoSuchUpload", "NotFound":
			return wrap(ErrNotFound)
		case "BucketAlreadyExists", "BucketAlreadyOwnedByYou", "PreconditionFailed":
			return wrap(ErrConflict)
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch",
			"InvalidBucketName", "MalformedXML", "InvalidRequest":
			return wrap(fmt.Errorf("%s: %w", apiErr.ErrorMessage(), ErrInvalidConfig))
		case "EntityTooLarge":
			return wrap(ErrTooLarge)
		case "SlowDown", "ServiceUnavailable", "InternalError", "RequestTimeout":
			return wrap(fmt.Errorf("%s: %w", apiErr.ErrorMessage(), ErrTimeout))
		case "InvalidPart", "InvalidPartOrder":
			return wrap(fmt.Errorf("%s: %w", apiErr.ErrorMessage(), ErrAborted))
		}
	}

	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		return err
	}
	return wrap(err)
}

// isRetryable reports whether an operation wrapped by retryOp should be
// attempted again.
func isRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrTooLarge),
		errors.Is(err, ErrAborted):
		return false
	case errors.Is(err, ErrTimeout):
		return true
	}
	return true
}
