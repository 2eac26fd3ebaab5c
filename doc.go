// Package release publishes a build artifact tarball to object storage.
//
// A release is published in four steps:
//   - the tarball is extracted into a fresh directory
//   - every regular file in that directory is uploaded concurrently, keyed
//     by its slash-separated path relative to the directory
//   - when every upload succeeded, the CDN paths in front of the bucket are
//     invalidated
//   - a release announcement is posted to a chat webhook
//
// Upload failures never abort sibling uploads. A batch that is not fully
// uploaded skips the CDN purge and the announcement and is reported as
// ErrBatchFailed so the release can be retried.
//
// Example usage:
//
//	uploader, err := s3.NewFromConfig(ctx, releasetypes.StorageConfig{Backend: releasetypes.BackendS3})
//	if err != nil {
//	    return err
//	}
//
//	publisher, err := release.New("my-bucket", uploader.Upload,
//	    release.WithWorkerCount(8),
//	    release.WithNotifier(webhook),
//	)
//	if err != nil {
//	    return err
//	}
//
//	report, err := publisher.Publish(ctx, "dist/app-1.0.tar.gz")
package release
