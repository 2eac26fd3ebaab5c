package release

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
	"github.com/input-output-hk/catalyst-forge-libs/release/internal/batch"
	"github.com/input-output-hk/catalyst-forge-libs/release/internal/cdn"
	"github.com/input-output-hk/catalyst-forge-libs/release/internal/extract"
	"github.com/input-output-hk/catalyst-forge-libs/release/internal/notify"
	"github.com/input-output-hk/catalyst-forge-libs/release/releasetypes"
)

// Report describes a publish run.
type Report struct {
	ArchivePath string
	UploadDir   string

	// Batch is nil when the upload could not start
	Batch *releasetypes.BatchResult

	Purged   bool
	PurgeErr error

	Notified  bool
	NotifyErr error

	// Message is the announcement text, empty when no notifier is configured
	Message string
}

// Publisher uploads releases to one bucket.
type Publisher struct {
	bucket      string
	config      releasetypes.PublisherConfig
	coordinator *batch.Coordinator
	logger      *slog.Logger
}

// New creates a Publisher uploading to bucket with the given primitive.
func New(bucket string, upload releasetypes.UploadFunc, opts ...releasetypes.Option) (*Publisher, error) {
	if bucket == "" {
		return nil, errors.NewConfigError("new publisher", "bucket is required")
	}

	cfg := releasetypes.PublisherConfig{
		Batch: releasetypes.BatchConfig{
			InstallerExtension: releasetypes.DefaultInstallerExtension,
		},
		ExtractDir: ".",
		Clock:      time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Batch.Logger == nil {
		cfg.Batch.Logger = cfg.Logger
	}
	if cfg.CDNBaseURL != "" && !strings.HasSuffix(cfg.CDNBaseURL, "/") {
		cfg.CDNBaseURL += "/"
	}
	if cfg.Extractor == nil {
		cfg.Extractor = extract.New(cfg.Logger)
	}
	if cfg.Purger != nil && len(cfg.PurgePaths) == 0 {
		cfg.PurgePaths = []string{"/*"}
		if cfg.CDNBaseURL != "" {
			paths, err := cdn.PathsFromBaseURL(cfg.CDNBaseURL)
			if err != nil {
				return nil, err
			}
			cfg.PurgePaths = paths
		}
	}

	coordinator, err := batch.NewCoordinator(upload, func(b *releasetypes.BatchConfig) {
		*b = cfg.Batch
	})
	if err != nil {
		return nil, err
	}

	return &Publisher{
		bucket:      bucket,
		config:      cfg,
		coordinator: coordinator,
		logger:      cfg.Logger.With("bucket", bucket),
	}, nil
}

// Publish extracts archivePath and publishes the extracted directory.
func (p *Publisher) Publish(ctx context.Context, archivePath string) (*Report, error) {
	dir, err := p.config.Extractor.Extract(archivePath, p.config.ExtractDir)
	if err != nil {
		p.logger.Error("failed to extract archive", "archive", archivePath, "error", err)
		return nil, err
	}

	report, err := p.PublishDir(ctx, dir)
	if report != nil {
		report.ArchivePath = archivePath
	}
	return report, err
}

// PublishDir uploads every file under dir, then purges the CDN and sends
// the announcement if and only if every upload succeeded.
//
// A partially uploaded batch returns the report and an ErrBatchFailed
// error. Purge or notification failures return the report and an
// ErrExternalService error; uploaded objects are left in place.
func (p *Publisher) PublishDir(ctx context.Context, dir string) (*Report, error) {
	report := &Report{UploadDir: dir}

	result, err := p.coordinator.RunBatch(ctx, dir, p.bucket)
	if result == nil {
		return nil, err
	}
	report.Batch = result
	if err != nil {
		return report, err
	}

	if !result.AllSucceeded {
		return report, errors.NewBucketError("publish", p.bucket,
			fmt.Errorf("%w: %d of %d files failed", errors.ErrBatchFailed, result.FilesFailed, len(result.Outcomes)))
	}

	if err := p.announce(ctx, report); err != nil {
		return report, err
	}
	return report, nil
}

// announce runs the post-upload steps. The notification is sent even when
// purging fails.
func (p *Publisher) announce(ctx context.Context, report *Report) error {
	if p.config.Purger != nil {
		if err := p.config.Purger.Purge(ctx, p.config.PurgePaths); err != nil {
			report.PurgeErr = externalError(err)
			p.logger.Error("cdn purge failed", "paths", p.config.PurgePaths, "error", err)
		} else {
			report.Purged = true
		}
	}

	if p.config.Notifier != nil {
		result := report.Batch
		if err := notify.CheckVersion(result.Version); err != nil {
			p.logger.Warn("release version is not semantic", "error", err)
		}

		report.Message = notify.Message{
			InstallerKey: result.InstallerKey,
			ChangeLog:    result.ChangeLog,
			Version:      result.Version,
			ReleasedAt:   p.config.Clock(),
			CDNBaseURL:   p.config.CDNBaseURL,
		}.Format()

		if err := p.config.Notifier.Notify(ctx, report.Message); err != nil {
			report.NotifyErr = externalError(err)
			p.logger.Error("release notification failed", "error", err)
		} else {
			report.Notified = true
		}
	}

	if report.PurgeErr == nil && report.NotifyErr == nil {
		return nil
	}
	return errors.NewBucketError("publish", p.bucket, stderrors.Join(report.PurgeErr, report.NotifyErr))
}

func externalError(err error) error {
	if errors.IsExternalService(err) {
		return err
	}
	return errors.Wrap(errors.ErrExternalService, err)
}
