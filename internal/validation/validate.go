// Package validation checks bucket names and object keys before they are
// sent to a storage provider.
package validation

import (
	"fmt"
	"net"
	"strings"
	"unicode"

	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
)

// MaxKeyLength is the longest object key S3-compatible stores accept, in bytes.
const MaxKeyLength = 1024

// ValidateBucketName checks that bucket is a DNS-compliant bucket name.
// Failures wrap ErrInvalidInput.
func ValidateBucketName(bucket string) error {
	invalid := func(msg string) error {
		return errors.NewBucketError("validate bucket", bucket, fmt.Errorf("%w: %s", errors.ErrInvalidInput, msg))
	}

	if len(bucket) < 3 || len(bucket) > 63 {
		return invalid("bucket name must be between 3 and 63 characters long")
	}

	for _, char := range bucket {
		if !isValidBucketChar(char) {
			return invalid("bucket name can only contain lowercase letters, numbers, dots, and hyphens")
		}
	}

	first, last := bucket[0], bucket[len(bucket)-1]
	if first == '-' || first == '.' || last == '-' || last == '.' {
		return invalid("bucket name cannot start or end with a hyphen or dot")
	}
	if strings.Contains(bucket, "..") {
		return invalid("bucket name cannot contain two adjacent periods")
	}
	if net.ParseIP(bucket) != nil {
		return invalid("bucket name cannot be formatted as an IP address")
	}

	return nil
}

// ValidateObjectKey checks that key is a relative, printable object key.
// Failures wrap ErrInvalidInput.
func ValidateObjectKey(key string) error {
	invalid := func(msg string) error {
		return errors.NewError("validate key", fmt.Errorf("%w: %s", errors.ErrInvalidInput, msg)).WithKey(key)
	}

	switch {
	case key == "":
		return invalid("object key cannot be empty")
	case len(key) > MaxKeyLength:
		return invalid(fmt.Sprintf("object key cannot exceed %d bytes", MaxKeyLength))
	case strings.HasPrefix(key, "/"):
		return invalid("object key must be relative")
	case hasTraversal(key):
		return invalid("object key cannot contain '..' segments")
	case hasControlCharacters(key):
		return invalid("object key cannot contain control characters")
	}

	return nil
}

func isValidBucketChar(char rune) bool {
	return (char >= '0' && char <= '9') || (char >= 'a' && char <= 'z') || char == '.' || char == '-'
}

// hasTraversal reports whether any path segment of key is "..".
func hasTraversal(key string) bool {
	for _, segment := range strings.Split(key, "/") {
		if segment == ".." {
			return true
		}
	}
	return false
}

func hasControlCharacters(key string) bool {
	for _, char := range key {
		if unicode.IsControl(char) {
			return true
		}
	}
	return false
}
