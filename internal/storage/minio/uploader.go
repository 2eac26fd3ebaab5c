// Package minio uploads release files to a MinIO server.
package minio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
	"github.com/input-output-hk/catalyst-forge-libs/release/internal/storage"
	"github.com/input-output-hk/catalyst-forge-libs/release/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/release/releasetypes"
)

// ObjectPutter is the subset of *minio.Client used by the Uploader.
type ObjectPutter interface {
	PutObject(
		ctx context.Context,
		bucketName, objectName string,
		reader io.Reader,
		objectSize int64,
		opts minio.PutObjectOptions,
	) (minio.UploadInfo, error)
}

var _ ObjectPutter = (*minio.Client)(nil)

// Uploader puts local files into a MinIO bucket.
type Uploader struct {
	client     ObjectPutter
	filesystem billy.Filesystem
	logger     *slog.Logger
}

// New creates an Uploader around an existing client.
func New(client ObjectPutter, filesystem billy.Filesystem, logger *slog.Logger) *Uploader {
	if filesystem == nil {
		filesystem = osfs.New("/")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{
		client:     client,
		filesystem: filesystem,
		logger:     logger,
	}
}

// NewFromConfig connects to the endpoint in cfg. TLS is used when the
// endpoint scheme is https.
func NewFromConfig(cfg releasetypes.StorageConfig) (*Uploader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	endpoint, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, errors.NewConfigError("minio", fmt.Sprintf("invalid endpoint: %v", err))
	}

	client, err := minio.New(endpoint.Host, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: endpoint.Scheme == "https",
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.NewError("client initialization", err)
	}

	return New(client, cfg.Filesystem, cfg.Logger), nil
}

// Upload streams sourcePath to bucket/key. It satisfies releasetypes.UploadFunc.
func (u *Uploader) Upload(ctx context.Context, bucket, key, sourcePath string) error {
	if err := validation.ValidateObjectKey(key); err != nil {
		return errors.NewObjectError("upload", bucket, key, err)
	}

	src, err := storage.OpenSource(u.filesystem, sourcePath)
	if err != nil {
		return errors.NewObjectError("upload", bucket, key, err)
	}
	defer src.Close()

	info, err := u.client.PutObject(ctx, bucket, key, src.File, src.Size, minio.PutObjectOptions{
		ContentType: src.ContentType,
	})
	if err != nil {
		return errors.NewObjectError("upload", bucket, key, translateError(err))
	}

	u.logger.Debug("object stored",
		"bucket", bucket,
		"key", key,
		"size", info.Size,
		"etag", info.ETag)
	return nil
}

func translateError(err error) error {
	resp := minio.ToErrorResponse(err)
	if sentinel := storage.ClassifyCode(resp.Code); sentinel != nil {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return err
}
