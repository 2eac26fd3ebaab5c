// Package releasetypes provides shared type definitions for the release module.
package releasetypes

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-git/go-billy/v5"
)

// FileKind classifies a file of the upload directory.
type FileKind string

// File kinds recognised while building upload tasks.
const (
	// KindRegular is an ordinary artifact file
	KindRegular FileKind = "regular"

	// KindInstaller is the primary download, matched by extension
	KindInstaller FileKind = "installer"

	// KindChangeLog is a file named changelog.txt (any case)
	KindChangeLog FileKind = "changelog"

	// KindVersion is a file named version.txt (any case)
	KindVersion FileKind = "version"
)

// Well-known special file names, compared case-insensitively.
const (
	ChangeLogFileName = "changelog.txt"
	VersionFileName   = "version.txt"

	// DefaultInstallerExtension marks the installer file of a release.
	DefaultInstallerExtension = ".apk"
)

// UploadTask is one local file mapped to one destination key.
// Tasks are immutable once built.
type UploadTask struct {
	// SourcePath is the path of the file in the enumerated filesystem
	SourcePath string

	// DestinationKey is the forward-slash relative key, without leading or trailing slash
	DestinationKey string

	// Size is the file size in bytes at enumeration time
	Size int64

	// Kind is the classification made when the task was built
	Kind FileKind

	// Content holds the verbatim text of change-log and version files
	Content string
}

// UploadOutcome is the terminal record of one UploadTask.
type UploadOutcome struct {
	Task      UploadTask
	Succeeded bool

	// Err is set when Succeeded is false
	Err error

	Duration time.Duration
}

// BatchResult is the fold of every UploadOutcome of a batch.
type BatchResult struct {
	// BatchID identifies the batch in logs
	BatchID string

	// AllSucceeded is true iff every outcome succeeded
	AllSucceeded bool

	// InstallerKey is the destination key of the installer file, if any
	InstallerKey string

	// ChangeLog is the content of changelog.txt, if any
	ChangeLog string

	// Version is the content of version.txt, if any
	Version string

	// Outcomes are sorted by destination key
	Outcomes []UploadOutcome

	FilesUploaded int
	FilesFailed   int
	BytesUploaded int64
	Duration      time.Duration
}

// HasInstaller reports whether the batch contained an installer file.
// A batch without one is a patch release.
func (r *BatchResult) HasInstaller() bool {
	return r.InstallerKey != ""
}

// Failures returns the outcomes that did not succeed.
func (r *BatchResult) Failures() []UploadOutcome {
	var failed []UploadOutcome
	for _, o := range r.Outcomes {
		if !o.Succeeded {
			failed = append(failed, o)
		}
	}
	return failed
}

// UploadFunc uploads the file at sourcePath to bucket under key.
type UploadFunc func(ctx context.Context, bucket, key, sourcePath string) error

// Upload lets an UploadFunc satisfy Uploader.
func (f UploadFunc) Upload(ctx context.Context, bucket, key, sourcePath string) error {
	return f(ctx, bucket, key, sourcePath)
}

// Uploader is a storage backend able to upload a single file.
type Uploader interface {
	Upload(ctx context.Context, bucket, key, sourcePath string) error
}

// Purger invalidates edge-cache paths after a successful batch.
type Purger interface {
	Purge(ctx context.Context, paths []string) error
}

// Notifier delivers a formatted release message.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Extractor unpacks a release archive into a directory and returns its path.
type Extractor interface {
	Extract(archivePath, outDir string) (string, error)
}

// BatchConfig configures a batch upload.
type BatchConfig struct {
	// WorkerCount is the number of concurrent uploads; <= 0 means runtime.NumCPU()
	WorkerCount int

	// InstallerExtension identifies the installer file (default ".apk")
	InstallerExtension string

	// Filesystem is walked for files and used to read special files
	Filesystem billy.Filesystem

	Logger *slog.Logger
}

// BatchOption configures a BatchConfig.
type BatchOption func(*BatchConfig)

// PublisherConfig configures a full release: extraction, batch, purge and notification.
type PublisherConfig struct {
	Batch BatchConfig

	// ExtractDir is where archives are unpacked (default ".")
	ExtractDir string

	// Extractor overrides the default tarball extractor
	Extractor Extractor

	// Purger is optional; without it purging is skipped
	Purger Purger

	// PurgePaths are the edge-cache paths to invalidate
	PurgePaths []string

	// Notifier is optional; without it notification is skipped
	Notifier Notifier

	// CDNBaseURL prefixes the installer key in the download link
	CDNBaseURL string

	// Clock returns the release time used in notifications
	Clock func() time.Time

	Logger *slog.Logger
}

// Option configures a PublisherConfig.
type Option func(*PublisherConfig)

// Backend names a storage implementation.
type Backend string

// Supported storage backends.
const (
	BackendS3    Backend = "s3"
	BackendMinio Backend = "minio"
)

// StorageConfig configures a storage backend.
type StorageConfig struct {
	Backend Backend

	// Region is the bucket region (default us-east-1)
	Region string

	// Endpoint is a custom endpoint for S3-compatible services
	Endpoint string

	// AccessKey and SecretKey select static credentials; empty means the default chain
	AccessKey string
	SecretKey string

	// ForcePathStyle uses path-style addressing
	ForcePathStyle bool

	// MaxRetries bounds retries of one upload; 0 disables retrying
	MaxRetries int

	// UploadTimeout bounds a single upload attempt; 0 means no timeout
	UploadTimeout time.Duration

	Filesystem billy.Filesystem
	Logger     *slog.Logger
}

// CDNConfig configures edge-cache purging.
type CDNConfig struct {
	// DistributionID is the CloudFront distribution to invalidate
	DistributionID string

	// BaseURL is the public base URL of the bucket behind the CDN
	BaseURL string

	Region string
}

// NotifyConfig configures the chat webhook.
type NotifyConfig struct {
	WebhookURL string
	Timeout    time.Duration
}
