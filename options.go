package release

import (
	"log/slog"
	"time"

	"github.com/go-git/go-billy/v5"

	"github.com/input-output-hk/catalyst-forge-libs/release/releasetypes"
)

// WithWorkerCount sets the number of concurrent uploads.
// Values <= 0 use the number of CPUs.
func WithWorkerCount(n int) releasetypes.Option {
	return func(c *releasetypes.PublisherConfig) {
		c.Batch.WorkerCount = n
	}
}

// WithInstallerExtension sets the file extension identifying the installer.
// Default is ".apk"; matching is case-sensitive.
func WithInstallerExtension(ext string) releasetypes.Option {
	return func(c *releasetypes.PublisherConfig) {
		c.Batch.InstallerExtension = ext
	}
}

// WithLogger sets the logger used by every release component.
func WithLogger(logger *slog.Logger) releasetypes.Option {
	return func(c *releasetypes.PublisherConfig) {
		c.Logger = logger
		c.Batch.Logger = logger
	}
}

// WithFilesystem sets the filesystem the upload directory is read from.
// Default is the OS filesystem rooted at /.
func WithFilesystem(filesystem billy.Filesystem) releasetypes.Option {
	return func(c *releasetypes.PublisherConfig) {
		c.Batch.Filesystem = filesystem
	}
}

// WithPurger enables CDN purging after a fully uploaded batch.
func WithPurger(purger releasetypes.Purger) releasetypes.Option {
	return func(c *releasetypes.PublisherConfig) {
		c.Purger = purger
	}
}

// WithPurgePaths sets the paths to invalidate. Default is derived from the
// CDN base URL, or "/*" without one.
func WithPurgePaths(paths ...string) releasetypes.Option {
	return func(c *releasetypes.PublisherConfig) {
		c.PurgePaths = paths
	}
}

// WithNotifier enables the release announcement.
func WithNotifier(notifier releasetypes.Notifier) releasetypes.Option {
	return func(c *releasetypes.PublisherConfig) {
		c.Notifier = notifier
	}
}

// WithCDNBaseURL sets the public URL prefix of uploaded objects.
func WithCDNBaseURL(baseURL string) releasetypes.Option {
	return func(c *releasetypes.PublisherConfig) {
		c.CDNBaseURL = baseURL
	}
}

// WithExtractDir sets the directory archives are extracted into.
func WithExtractDir(dir string) releasetypes.Option {
	return func(c *releasetypes.PublisherConfig) {
		c.ExtractDir = dir
	}
}

// WithExtractor replaces the tarball extractor.
func WithExtractor(extractor releasetypes.Extractor) releasetypes.Option {
	return func(c *releasetypes.PublisherConfig) {
		c.Extractor = extractor
	}
}

// WithClock sets the clock used for the release time.
func WithClock(clock func() time.Time) releasetypes.Option {
	return func(c *releasetypes.PublisherConfig) {
		c.Clock = clock
	}
}
