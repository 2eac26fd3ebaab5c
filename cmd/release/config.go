package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
	"github.com/input-output-hk/catalyst-forge-libs/release/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/release/releasetypes"
)

// Args holds CLI arguments parsed by go-arg.
type Args struct {
	Bucket      string `arg:"--bucket,env:RELEASE_BUCKET" help:"[required] destination bucket"`
	Archive     string `arg:"--archive,env:RELEASE_ARCHIVE" help:"[required] release tarball to publish"`
	ExtractDir  string `arg:"--exdir,env:RELEASE_EXDIR" default:"." help:"directory the tarball is extracted into"`
	WorkerCount int    `arg:"--worker-count,env:RELEASE_WORKER_COUNT" help:"concurrent uploads (default: number of CPUs)"`

	Backend       string        `arg:"--backend,env:RELEASE_BACKEND" default:"s3" help:"storage backend: s3 or minio"`
	Endpoint      string        `arg:"--endpoint,env:RELEASE_ENDPOINT" help:"custom endpoint for S3-compatible storage"`
	Region        string        `arg:"--region,env:RELEASE_REGION" help:"bucket region"`
	AccessKey     string        `arg:"--access-key,env:RELEASE_ACCESS_KEY" help:"static access key (default: AWS credential chain)"`
	SecretKey     string        `arg:"--secret-key,env:RELEASE_SECRET_KEY" help:"static secret key"`
	PathStyle     bool          `arg:"--path-style,env:RELEASE_PATH_STYLE" help:"use path-style bucket addressing"`
	MaxRetries    int           `arg:"--max-retries,env:RELEASE_MAX_RETRIES" default:"3" help:"retries per file on transient errors"`
	UploadTimeout time.Duration `arg:"--upload-timeout,env:RELEASE_UPLOAD_TIMEOUT" help:"timeout of one upload attempt, e.g. 2m (default: none)"`
	InstallerExt  string        `arg:"--installer-ext,env:RELEASE_INSTALLER_EXT" default:".apk" help:"extension of the installer file"`

	CDNDistribution string `arg:"--cdn-distribution,env:RELEASE_CDN_DISTRIBUTION" help:"CloudFront distribution to invalidate"`
	CDNBaseURL      string `arg:"--cdn-base-url,env:RELEASE_CDN_BASE_URL" help:"public base URL of the bucket"`
	WebhookURL      string `arg:"--webhook-url,env:RELEASE_WEBHOOK_URL" help:"chat webhook for the release announcement"`

	LogLevel  string `arg:"--log-level,env:RELEASE_LOG_LEVEL" default:"info" help:"debug, info, warn or error"`
	LogFormat string `arg:"--log-format,env:RELEASE_LOG_FORMAT" default:"text" help:"text or json"`
}

// Description provides the help header.
func (Args) Description() string {
	return "Extracts a release tarball, uploads its files to a bucket, purges the CDN and announces the release.\n"
}

type config struct {
	bucket       string
	archive      string
	extractDir   string
	workerCount  int
	installerExt string

	storage releasetypes.StorageConfig
	cdn     releasetypes.CDNConfig
	notify  releasetypes.NotifyConfig

	logLevel  slog.Level
	logFormat string
}

// toConfig validates the arguments and builds the component configurations.
func (a *Args) toConfig() (*config, error) {
	if a.Bucket == "" {
		return nil, errors.NewConfigError("parse args", "--bucket is required")
	}
	if a.Archive == "" {
		return nil, errors.NewConfigError("parse args", "--archive is required")
	}

	if err := validation.ValidateBucketName(a.Bucket); err != nil {
		return nil, err
	}

	cfg := &config{
		bucket:       a.Bucket,
		archive:      a.Archive,
		extractDir:   a.ExtractDir,
		workerCount:  a.WorkerCount,
		installerExt: a.InstallerExt,
		storage: releasetypes.StorageConfig{
			Backend:        releasetypes.Backend(strings.ToLower(a.Backend)),
			Region:         a.Region,
			Endpoint:       a.Endpoint,
			AccessKey:      a.AccessKey,
			SecretKey:      a.SecretKey,
			ForcePathStyle: a.PathStyle,
			MaxRetries:     a.MaxRetries,
			UploadTimeout:  a.UploadTimeout,
		},
		cdn: releasetypes.CDNConfig{
			DistributionID: a.CDNDistribution,
			BaseURL:        a.CDNBaseURL,
			Region:         a.Region,
		},
		notify: releasetypes.NotifyConfig{
			WebhookURL: a.WebhookURL,
		},
		logFormat: strings.ToLower(a.LogFormat),
	}

	if err := cfg.logLevel.UnmarshalText([]byte(a.LogLevel)); err != nil {
		return nil, errors.NewConfigError("parse args", fmt.Sprintf("invalid log level %q", a.LogLevel))
	}
	if cfg.logFormat != "text" && cfg.logFormat != "json" {
		return nil, errors.NewConfigError("parse args", fmt.Sprintf("invalid log format %q", a.LogFormat))
	}
	if cfg.installerExt != "" && !strings.HasPrefix(cfg.installerExt, ".") {
		cfg.installerExt = "." + cfg.installerExt
	}

	if err := cfg.storage.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.cdn.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.notify.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newLogger builds the process logger.
func newLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
