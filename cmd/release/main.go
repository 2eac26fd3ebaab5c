// Command release publishes a build tarball to object storage.
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/dustin/go-humanize"

	"github.com/input-output-hk/catalyst-forge-libs/release"
	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
	"github.com/input-output-hk/catalyst-forge-libs/release/internal/cdn"
	"github.com/input-output-hk/catalyst-forge-libs/release/internal/notify"
	"github.com/input-output-hk/catalyst-forge-libs/release/internal/retry"
	miniostore "github.com/input-output-hk/catalyst-forge-libs/release/internal/storage/minio"
	s3store "github.com/input-output-hk/catalyst-forge-libs/release/internal/storage/s3"
	"github.com/input-output-hk/catalyst-forge-libs/release/releasetypes"
)

// Exit codes.
const (
	exitOK          = 0
	exitFailure     = 1
	exitConfig      = 2
	exitNotFound    = 3
	exitBatchFailed = 4
	exitExternal    = 5
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	var args Args
	parser, err := arg.NewParser(arg.Config{Program: "release"}, &args)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}

	if err := parser.Parse(argv); err != nil {
		if stderrors.Is(err, arg.ErrHelp) {
			parser.WriteHelp(stdout)
			return exitOK
		}
		parser.WriteUsage(stderr)
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitConfig
	}

	cfg, err := args.toConfig()
	if err != nil {
		parser.WriteUsage(stderr)
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitCode(err)
	}

	logger := newLogger(stderr, cfg.logLevel, cfg.logFormat)

	publisher, err := newPublisher(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to set up release", "error", err)
		return exitCode(err)
	}

	report, err := publisher.Publish(ctx, cfg.archive)
	printReport(stdout, cfg.bucket, report)
	if err != nil {
		logger.Error("release failed", "error", err, "code", errors.CodeOf(err))
		return exitCode(err)
	}
	return exitOK
}

// newPublisher wires the storage backend, CDN purger and webhook notifier.
func newPublisher(ctx context.Context, cfg *config, logger *slog.Logger) (*release.Publisher, error) {
	cfg.storage.Logger = logger

	upload, err := newUpload(ctx, cfg.storage)
	if err != nil {
		return nil, err
	}

	opts := []releasetypes.Option{
		release.WithLogger(logger),
		release.WithWorkerCount(cfg.workerCount),
		release.WithInstallerExtension(cfg.installerExt),
		release.WithExtractDir(cfg.extractDir),
		release.WithCDNBaseURL(cfg.cdn.BaseURL),
	}

	if cfg.cdn.Enabled() {
		purger, err := cdn.NewFromConfig(ctx, cfg.cdn, logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, release.WithPurger(purger))
	}

	if cfg.notify.Enabled() {
		webhook, err := notify.NewWebhook(cfg.notify, logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, release.WithNotifier(webhook))
	}

	return release.New(cfg.bucket, upload, opts...)
}

// newUpload returns the upload primitive of the configured backend,
// decorated with the per-attempt timeout and retries.
func newUpload(ctx context.Context, storage releasetypes.StorageConfig) (releasetypes.UploadFunc, error) {
	var upload releasetypes.UploadFunc

	switch storage.Backend {
	case releasetypes.BackendMinio:
		u, err := miniostore.NewFromConfig(storage)
		if err != nil {
			return nil, err
		}
		upload = u.Upload
	default:
		u, err := s3store.NewFromConfig(ctx, storage)
		if err != nil {
			return nil, err
		}
		upload = u.Upload
	}

	upload = retry.WithTimeout(upload, storage.UploadTimeout)
	return retry.Wrap(upload, retry.Config{
		MaxRetries: storage.MaxRetries,
		Logger:     storage.Logger,
	}), nil
}

func printReport(w io.Writer, bucket string, report *release.Report) {
	if report == nil || report.Batch == nil {
		return
	}
	result := report.Batch

	fmt.Fprintf(w, "Uploaded %d of %d files (%s) to %s in %s\n",
		result.FilesUploaded, len(result.Outcomes),
		humanize.Bytes(uint64(result.BytesUploaded)), bucket, result.Duration.Round(time.Millisecond))

	for _, o := range result.Failures() {
		fmt.Fprintf(w, "  FAILED %s: %v\n", o.Task.DestinationKey, o.Err)
	}
	if !result.AllSucceeded {
		fmt.Fprintln(w, "Not all files were uploaded, retry the release.")
		return
	}
	if result.InstallerKey != "" {
		fmt.Fprintf(w, "Installer: %s\n", result.InstallerKey)
	}
	if result.Version != "" {
		fmt.Fprintf(w, "Version: %s\n", strings.TrimSpace(result.Version))
	}
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch errors.CodeOf(err) {
	case "":
		return exitOK
	case errors.CodeInvalidConfig, errors.CodeInvalidInput:
		return exitConfig
	case errors.CodeNotFound:
		return exitNotFound
	case errors.CodePublishFailed:
		return exitBatchFailed
	case errors.CodeUnavailable:
		return exitExternal
	default:
		return exitFailure
	}
}
