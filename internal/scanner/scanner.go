// Package scanner walks an upload directory and yields the files to publish.
//
// Enumeration is lazy: files are produced one at a time by a walker goroutine
// as the consumer asks for them, so a consumer that stops early also stops
// the walk.
package scanner

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
)

var errStopped = stderrors.New("enumeration stopped")

// Entry is one regular file found under the enumeration root.
type Entry struct {
	// AbsPath is the path of the file in the scanned filesystem
	AbsPath string

	// RelPath is the normalized destination key of the file
	RelPath string

	Size int64
}

// Scanner enumerates files of a billy filesystem.
type Scanner struct {
	filesystem billy.Filesystem
}

// NewScanner creates a new scanner over the provided filesystem.
func NewScanner(filesystem billy.Filesystem) *Scanner {
	return &Scanner{filesystem: filesystem}
}

// Files starts enumerating every regular file under root, recursing into
// subdirectories. It fails with ErrNotFound if root does not exist and with
// ErrInvalidInput if root is not a directory. An empty directory yields an
// empty enumeration.
func (s *Scanner) Files(root string) (*Enumerator, error) {
	info, err := s.filesystem.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewError("enumerate", errors.Wrap(errors.ErrNotFound, err))
		}
		return nil, errors.NewError("enumerate", fmt.Errorf("failed to stat %s: %w", root, err))
	}
	if !info.IsDir() {
		return nil, errors.NewError("enumerate", fmt.Errorf("%w: %s is not a directory", errors.ErrInvalidInput, root))
	}

	e := &Enumerator{
		entries: make(chan Entry),
		done:    make(chan struct{}),
	}
	go e.walk(s.filesystem, root)
	return e, nil
}

// Enumerator is a finite, non-restartable sequence of entries.
// Next and Err must be called from a single goroutine.
type Enumerator struct {
	entries   chan Entry
	done      chan struct{}
	closeOnce sync.Once

	// err is written by the walker before entries is closed
	err error
}

func (e *Enumerator) walk(filesystem billy.Filesystem, root string) {
	defer close(e.entries)

	err := util.Walk(filesystem, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Only regular files are uploaded; symlinks and devices are skipped
		if !info.Mode().IsRegular() {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path for %s: %w", path, err)
		}

		entry := Entry{
			AbsPath: path,
			RelPath: NormalizeKey(relPath),
			Size:    info.Size(),
		}

		select {
		case e.entries <- entry:
			return nil
		case <-e.done:
			return errStopped
		}
	})
	if err != nil && !stderrors.Is(err, errStopped) {
		e.err = errors.NewError("enumerate", fmt.Errorf("failed to walk directory %s: %w", root, err))
	}
}

// Next returns the next entry. It returns false once the sequence is
// exhausted, after which Err reports any walk failure.
func (e *Enumerator) Next() (Entry, bool) {
	entry, ok := <-e.entries
	return entry, ok
}

// Err returns the error that ended the walk, if any.
// It is only meaningful after Next has returned false or Close has returned.
func (e *Enumerator) Err() error {
	return e.err
}

// Close stops the walk and waits for the walker goroutine to exit.
// It is safe to call more than once.
func (e *Enumerator) Close() {
	e.closeOnce.Do(func() {
		close(e.done)
	})
	for range e.entries {
	}
}

// NormalizeKey converts a relative path into a destination key: every
// separator (slash or backslash, whatever the host convention) becomes a
// forward slash, empty segments are dropped, and the result has no leading
// or trailing slash.
func NormalizeKey(relPath string) string {
	key := strings.ReplaceAll(filepath.ToSlash(relPath), `\`, "/")

	segments := strings.Split(key, "/")
	kept := segments[:0]
	for _, seg := range segments {
		if seg != "" && seg != "." {
			kept = append(kept, seg)
		}
	}
	return strings.Join(kept, "/")
}
