// Package s3 uploads release files to Amazon S3 or an S3-compatible endpoint.
package s3

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
	"github.com/input-output-hk/catalyst-forge-libs/release/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/release/internal/storage"
	"github.com/input-output-hk/catalyst-forge-libs/release/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/release/releasetypes"
)

const defaultRegion = "us-east-1"

// Uploader puts local files into S3 with a single PutObject per file.
type Uploader struct {
	client     s3api.S3API
	filesystem billy.Filesystem
	logger     *slog.Logger
}

// New creates an Uploader around an existing S3 client.
// A nil filesystem defaults to the OS filesystem rooted at /.
func New(client s3api.S3API, filesystem billy.Filesystem, logger *slog.Logger) *Uploader {
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

// NewFromConfig builds an S3 client from cfg and wraps it in an Uploader.
// Credentials fall back to the default AWS chain when no static keys are set.
func NewFromConfig(ctx context.Context, cfg releasetypes.StorageConfig) (*Uploader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.NewError("client initialization", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return New(s3.NewFromConfig(awsCfg, s3Opts...), cfg.Filesystem, cfg.Logger), nil
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

	output, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          src.File,
		ContentType:   aws.String(src.ContentType),
		ContentLength: aws.Int64(src.Size),
	})
	if err != nil {
		return errors.NewObjectError("upload", bucket, key, mapError(err))
	}

	u.logger.Debug("object stored",
		"bucket", bucket,
		"key", key,
		"size", src.Size,
		"etag", aws.ToString(output.ETag))
	return nil
}

// mapError attaches a sentinel to well-known S3 API error codes.
func mapError(err error) error {
	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		if sentinel := storage.ClassifyCode(apiErr.ErrorCode()); sentinel != nil {
			return fmt.Errorf("%w: %w", sentinel, err)
		}
	}
	return err
}
