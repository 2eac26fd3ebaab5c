// Package errors provides error types and handling for release operations.
package errors

import (
	"errors"
	"fmt"
)

// Error is a failed step of a release run. Op names the step in the order a
// run performs them: "extract", "enumerate", "submit", "upload", "run batch",
// "purge", "notify", "publish". Bucket and Key locate the object when the step touched one,
// so an upload failure prints as "release.upload releases/app/app.apk: ...".
type Error struct {
	Op string

	// Bucket is the release bucket; empty for local steps such as extract
	Bucket string

	// Key is the object key relative to the upload root
	Key string

	// Err is the underlying error
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Bucket != "" && e.Key != "" {
		return fmt.Sprintf("release.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	if e.Bucket != "" {
		return fmt.Sprintf("release.%s bucket %s: %v", e.Op, e.Bucket, e.Err)
	}
	if e.Key != "" {
		return fmt.Sprintf("release.%s object %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("release.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Code returns the ErrorCode classifying this error.
func (e *Error) Code() ErrorCode {
	return CodeOf(e)
}

// WithBucket adds bucket context to an existing error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// NewBucketError creates a new Error with bucket context.
func NewBucketError(op, bucket string, err error) *Error {
	return &Error{
		Op:     op,
		Bucket: bucket,
		Err:    err,
	}
}

// NewObjectError creates a new Error with bucket and key context.
func NewObjectError(op, bucket, key string, err error) *Error {
	return &Error{
		Op:     op,
		Bucket: bucket,
		Key:    key,
		Err:    err,
	}
}

// NewConfigError creates a configuration error for the given operation.
// The returned error matches ErrInvalidConfig.
func NewConfigError(op, message string) *Error {
	return &Error{
		Op:  op,
		Err: fmt.Errorf("%w: %s", ErrInvalidConfig, message),
	}
}

// Wrap joins a sentinel with a cause so both match errors.Is.
func Wrap(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}

// Sentinel errors for release failures.
// These can be used with errors.Is() for error checking.
var (
	// ErrInvalidConfig indicates missing or inconsistent configuration; no work was attempted
	ErrInvalidConfig = errors.New("release: invalid configuration")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("release: invalid input")

	// ErrNotFound indicates that a required local path does not exist
	ErrNotFound = errors.New("release: not found")

	// ErrUploadFailed indicates that a single file failed to upload
	ErrUploadFailed = errors.New("release: upload failed")

	// ErrBatchFailed indicates that not every file of a batch was uploaded
	ErrBatchFailed = errors.New("release: batch failed")

	// ErrExternalService indicates that a CDN purge or notification call failed
	ErrExternalService = errors.New("release: external service error")

	// ErrAccessDenied indicates that the storage provider denied access
	ErrAccessDenied = errors.New("release: access denied")

	// ErrBucketNotFound indicates that the destination bucket does not exist
	ErrBucketNotFound = errors.New("release: bucket not found")

	// ErrPoolClosed indicates a task was submitted to a closed worker pool
	ErrPoolClosed = errors.New("release: worker pool closed")
)

// IsNotFound checks if an error indicates that a local path was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidConfig checks if an error indicates a configuration problem.
func IsInvalidConfig(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}

// IsBatchFailed checks if an error indicates a partially failed batch.
func IsBatchFailed(err error) bool {
	return errors.Is(err, ErrBatchFailed)
}

// IsExternalService checks if an error came from a downstream service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService)
}

// IsPermanent reports whether retrying the operation cannot succeed.
// Missing local files, bad input, denied access and missing buckets are permanent.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrAccessDenied) ||
		errors.Is(err, ErrBucketNotFound)
}
