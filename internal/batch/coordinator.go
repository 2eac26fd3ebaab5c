// Package batch coordinates a directory upload: enumeration, task
// construction, concurrent upload and aggregation.
//
// This package is the entry point used by the publisher for one batch.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"

	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
	"github.com/input-output-hk/catalyst-forge-libs/release/internal/aggregate"
	"github.com/input-output-hk/catalyst-forge-libs/release/internal/executor"
	"github.com/input-output-hk/catalyst-forge-libs/release/internal/scanner"
	"github.com/input-output-hk/catalyst-forge-libs/release/releasetypes"
)

// Coordinator runs batches against a single upload primitive.
type Coordinator struct {
	upload  releasetypes.UploadFunc
	config  releasetypes.BatchConfig
	scanner *scanner.Scanner
	logger  *slog.Logger

	// absRoots resolves relative roots against the working directory when
	// the default filesystem, rooted at /, is in use
	absRoots bool
}

// NewCoordinator creates a coordinator that uploads with the given primitive.
func NewCoordinator(upload releasetypes.UploadFunc, opts ...releasetypes.BatchOption) (*Coordinator, error) {
	if upload == nil {
		return nil, errors.NewConfigError("new coordinator", "upload function is required")
	}

	cfg := releasetypes.BatchConfig{
		InstallerExtension: releasetypes.DefaultInstallerExtension,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	absRoots := false
	if cfg.Filesystem == nil {
		// Default to OS filesystem rooted at /
		cfg.Filesystem = osfs.New("/")
		absRoots = true
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Coordinator{
		upload:   upload,
		config:   cfg,
		scanner:  scanner.NewScanner(cfg.Filesystem),
		logger:   cfg.Logger,
		absRoots: absRoots,
	}, nil
}

// RunBatch uploads every regular file under root to bucket and returns the
// aggregated result.
//
// Enumeration and configuration failures are returned before any result is
// built. Upload failures are not errors: they are reported through the
// result, whose AllSucceeded is false if any upload failed. Every submitted
// upload runs to completion.
//
// Cancelling ctx stops submitting new files but never interrupts uploads
// already submitted; the partial result is returned with the context error.
func (c *Coordinator) RunBatch(ctx context.Context, root, bucket string) (*releasetypes.BatchResult, error) {
	if root == "" {
		return nil, errors.NewConfigError("run batch", "root directory is required")
	}
	if bucket == "" {
		return nil, errors.NewConfigError("run batch", "bucket is required")
	}

	if c.absRoots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, errors.NewError("run batch", err)
		}
		root = abs
	}

	startTime := time.Now()
	batchID := uuid.NewString()
	logger := c.logger.With("batch", batchID, "bucket", bucket)

	enum, err := c.scanner.Files(root)
	if err != nil {
		return nil, err
	}
	defer enum.Close()

	pool := executor.New(context.WithoutCancel(ctx), executor.Config{
		Bucket:  bucket,
		Workers: c.config.WorkerCount,
		Logger:  logger,
	}, c.upload)
	defer pool.Close()

	logger.Info("starting upload", "root", root, "workers", pool.GetStats().Workers)

	var fatal, interrupted error
	for {
		if ctx.Err() != nil {
			interrupted = ctx.Err()
			break
		}

		entry, ok := enum.Next()
		if !ok {
			fatal = enum.Err()
			break
		}

		task, err := c.buildTask(entry)
		if err != nil {
			fatal = err
			break
		}

		logger.Debug("queueing upload", "source", task.SourcePath, "key", task.DestinationKey)
		if err := pool.Submit(task); err != nil {
			fatal = err
			break
		}
	}

	// In-flight uploads always complete, even when the batch is abandoned
	outcomes := pool.AwaitAll()

	if fatal != nil {
		logger.Error("batch aborted", "error", fatal, "completed", len(outcomes))
		return nil, fatal
	}

	result := aggregate.Aggregate(outcomes)
	result.BatchID = batchID
	result.Duration = time.Since(startTime)

	if result.AllSucceeded {
		logger.Info("all files uploaded",
			"files", result.FilesUploaded,
			"bytes", humanize.Bytes(uint64(result.BytesUploaded)),
			"duration", result.Duration)
	} else {
		logger.Warn("not all files uploaded, retry the release",
			"uploaded", result.FilesUploaded,
			"failed", result.FilesFailed,
			"duration", result.Duration)
	}

	if interrupted != nil {
		return result, errors.NewBucketError("run batch", bucket, fmt.Errorf("batch interrupted: %w", interrupted))
	}
	return result, nil
}

// buildTask classifies an entry and, for change-log and version files,
// reads their content immediately so the metadata survives a failed upload.
func (c *Coordinator) buildTask(entry scanner.Entry) (releasetypes.UploadTask, error) {
	task := releasetypes.UploadTask{
		SourcePath:     entry.AbsPath,
		DestinationKey: entry.RelPath,
		Size:           entry.Size,
		Kind:           Classify(entry.RelPath, c.config.InstallerExtension),
	}

	if task.Kind == releasetypes.KindChangeLog || task.Kind == releasetypes.KindVersion {
		data, err := util.ReadFile(c.config.Filesystem, entry.AbsPath)
		if err != nil {
			return releasetypes.UploadTask{}, errors.NewError("read", fmt.Errorf("failed to read %s: %w", entry.AbsPath, err)).
				WithKey(entry.RelPath)
		}
		task.Content = string(data)
	}

	return task, nil
}

// Classify returns the kind of the file with the given destination key.
// Only the base name is considered: the installer is matched by extension,
// change-log and version files by case-insensitive name.
func Classify(key, installerExt string) releasetypes.FileKind {
	name := path.Base(key)

	switch {
	case strings.EqualFold(name, releasetypes.ChangeLogFileName):
		return releasetypes.KindChangeLog
	case strings.EqualFold(name, releasetypes.VersionFileName):
		return releasetypes.KindVersion
	case installerExt != "" && path.Ext(name) == installerExt:
		return releasetypes.KindInstaller
	default:
		return releasetypes.KindRegular
	}
}
