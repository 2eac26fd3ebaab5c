package errors

import "errors"

// ErrorCode is a stable, machine-readable classification of a release failure.
// Codes are strings so they read naturally in logs and JSON output.
type ErrorCode string

const (
	// CodeNotFound indicates a required local resource (archive, directory, file) is missing.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeInvalidInput indicates an argument is malformed.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeInvalidConfig indicates required configuration is missing or inconsistent.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// CodeForbidden indicates the storage provider rejected the credentials.
	CodeForbidden ErrorCode = "FORBIDDEN"

	// CodePublishFailed indicates at least one file of a batch failed to upload.
	CodePublishFailed ErrorCode = "PUBLISH_FAILED"

	// CodeUnavailable indicates a downstream service (CDN, chat webhook) failed.
	CodeUnavailable ErrorCode = "SERVICE_UNAVAILABLE"

	// CodeUnknown indicates an unclassified error.
	CodeUnknown ErrorCode = "UNKNOWN"
)

// CodeOf returns the ErrorCode that best describes err.
// Configuration errors take precedence over everything else, since they mean
// no work was attempted. A nil error has no code.
func CodeOf(err error) ErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidConfig):
		return CodeInvalidConfig
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrBucketNotFound):
		return CodeNotFound
	case errors.Is(err, ErrAccessDenied):
		return CodeForbidden
	case errors.Is(err, ErrBatchFailed), errors.Is(err, ErrUploadFailed):
		return CodePublishFailed
	case errors.Is(err, ErrExternalService):
		return CodeUnavailable
	default:
		return CodeUnknown
	}
}
