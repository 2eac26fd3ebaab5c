// Package storage holds helpers shared by the storage backends.
package storage

import (
	"fmt"
	"io"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-git/go-billy/v5"

	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
)

// Source is an opened local file ready to be streamed to a bucket.
type Source struct {
	File        billy.File
	Size        int64
	ContentType string
}

// Close closes the underlying file.
func (s *Source) Close() error {
	return s.File.Close()
}

// OpenSource opens path on filesystem, detects its content type and rewinds
// it so the whole file can be streamed. A missing file is ErrNotFound.
func OpenSource(filesystem billy.Filesystem, path string) (*Source, error) {
	info, err := filesystem.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrNotFound, err)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	file, err := filesystem.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	mime, err := mimetype.DetectReader(file)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to detect content type of %s: %w", path, err)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to rewind %s: %w", path, err)
	}

	return &Source{
		File:        file,
		Size:        info.Size(),
		ContentType: mime.String(),
	}, nil
}

// ClassifyCode maps an S3-style error code to a sentinel error.
// Unknown codes return nil.
func ClassifyCode(code string) error {
	switch code {
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return errors.ErrAccessDenied
	case "NoSuchBucket":
		return errors.ErrBucketNotFound
	case "InvalidBucketName", "KeyTooLongError", "InvalidArgument":
		return errors.ErrInvalidInput
	default:
		return nil
	}
}
