// Package extract unpacks a release tarball into a fresh directory.
package extract

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/moby/go-archive"

	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
)

var archiveSuffixes = []string{".tar.gz", ".tgz", ".tar"}

// Extractor unpacks tar archives, gzip-compressed or not.
type Extractor struct {
	logger *slog.Logger
}

// New creates an Extractor.
func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract unpacks archivePath into outDir/<archive base name> and returns
// the absolute path of that directory. An existing directory of the same
// name is removed first. The destination must not be a file, outDir itself,
// or a directory holding the archive.
func (e *Extractor) Extract(archivePath, outDir string) (string, error) {
	if archivePath == "" {
		return "", errors.NewConfigError("extract", "archive path is required")
	}
	if outDir == "" {
		outDir = "."
	}

	f, err := os.Open(archivePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewError("extract", errors.Wrap(errors.ErrNotFound, err))
		}
		return "", errors.NewError("extract", err)
	}
	defer f.Close()

	dest, err := destination(archivePath, outDir)
	if err != nil {
		return "", errors.NewError("extract", err)
	}

	if err := os.RemoveAll(dest); err != nil {
		return "", errors.NewError("extract", fmt.Errorf("failed to clear %s: %w", dest, err))
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", errors.NewError("extract", fmt.Errorf("failed to create %s: %w", dest, err))
	}

	if err := archive.Untar(f, dest, &archive.TarOptions{NoLchown: true}); err != nil {
		return "", errors.NewError("extract", fmt.Errorf("failed to unpack %s: %w", archivePath, err))
	}

	e.logger.Info("archive extracted", "archive", archivePath, "dir", dest)
	return dest, nil
}

// destination resolves the extraction directory and refuses any target whose
// removal would take the archive or outDir with it.
func destination(archivePath, outDir string) (string, error) {
	base := ArchiveBaseName(archivePath)
	if base == "." || base == ".." {
		return "", fmt.Errorf("%w: archive name %q has no usable base name", errors.ErrInvalidInput, archivePath)
	}

	dest, err := filepath.Abs(filepath.Join(outDir, base))
	if err != nil {
		return "", err
	}
	absOut, err := filepath.Abs(outDir)
	if err != nil {
		return "", err
	}
	absArchive, err := filepath.Abs(archivePath)
	if err != nil {
		return "", err
	}

	if dest == absOut {
		return "", fmt.Errorf("%w: extraction directory %s is the output directory", errors.ErrInvalidInput, dest)
	}
	if rel, err := filepath.Rel(dest, absArchive); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: extraction directory %s would remove archive %s", errors.ErrInvalidInput, dest, archivePath)
	}

	info, err := os.Lstat(dest)
	switch {
	case err == nil && !info.IsDir():
		return "", fmt.Errorf("%w: %s exists and is not a directory", errors.ErrInvalidInput, dest)
	case err != nil && !os.IsNotExist(err):
		return "", err
	}
	return dest, nil
}

// ArchiveBaseName returns the file name of archivePath without its archive
// extension, e.g. "dist/app-1.0.tar.gz" gives "app-1.0".
func ArchiveBaseName(archivePath string) string {
	name := filepath.Base(archivePath)
	for _, suffix := range archiveSuffixes {
		if trimmed, ok := strings.CutSuffix(name, suffix); ok && trimmed != "" && trimmed != "." && trimmed != ".." {
			return trimmed
		}
	}
	return name
}
