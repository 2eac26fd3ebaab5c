package s3

import (
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
	"github.com/input-output-hk/catalyst-forge-libs/release/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/release/releasetypes"
)

func TestUpload(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, testutil.WriteFiles(fs, map[string]string{
		"out/app/changelog.txt": "- faster startup\n",
	}))

	var got *s3.PutObjectInput
	var body []byte
	client := &testutil.MockS3Client{
		PutObjectFunc: func(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			got = in
			var err error
			body, err = io.ReadAll(in.Body)
			require.NoError(t, err)
			return &s3.PutObjectOutput{ETag: aws.String(`"abc"`)}, nil
		},
	}

	u := New(client, fs, nil)
	require.NoError(t, u.Upload(context.Background(), "releases", "app/changelog.txt", "out/app/changelog.txt"))

	require.NotNil(t, got)
	assert.Equal(t, "releases", aws.ToString(got.Bucket))
	assert.Equal(t, "app/changelog.txt", aws.ToString(got.Key))
	assert.Equal(t, int64(17), aws.ToInt64(got.ContentLength))
	assert.Contains(t, aws.ToString(got.ContentType), "text/plain")
	assert.Equal(t, "- faster startup\n", string(body))
}

func TestUploadMissingSource(t *testing.T) {
	called := false
	client := &testutil.MockS3Client{
		PutObjectFunc: func(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			called = true
			return &s3.PutObjectOutput{}, nil
		},
	}

	u := New(client, memfs.New(), nil)
	err := u.Upload(context.Background(), "b", "k", "missing.bin")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.False(t, called)
}

func TestUploadInvalidKey(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, testutil.WriteFiles(fs, map[string]string{"f.bin": "x"}))

	err := New(&testutil.MockS3Client{}, fs, nil).Upload(context.Background(), "b", "../f.bin", "f.bin")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	assert.True(t, errors.IsPermanent(err))
}

func TestUploadAPIErrors(t *testing.T) {
	tests := []struct {
		name string
		code string
		want error
	}{
		{"access denied", "AccessDenied", errors.ErrAccessDenied},
		{"no such bucket", "NoSuchBucket", errors.ErrBucketNotFound},
		{"bad bucket name", "InvalidBucketName", errors.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := memfs.New()
			require.NoError(t, testutil.WriteFiles(fs, map[string]string{"f.bin": "x"}))

			client := &testutil.MockS3Client{
				PutObjectFunc: func(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
					return nil, &smithy.GenericAPIError{Code: tt.code, Message: "rejected"}
				},
			}

			err := New(client, fs, nil).Upload(context.Background(), "b", "f.bin", "f.bin")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, errors.IsPermanent(err))

			var relErr *errors.Error
			require.ErrorAs(t, err, &relErr)
			assert.Equal(t, "b", relErr.Bucket)
			assert.Equal(t, "f.bin", relErr.Key)
		})
	}
}

func TestUploadTransientError(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, testutil.WriteFiles(fs, map[string]string{"f.bin": "x"}))

	client := &testutil.MockS3Client{
		PutObjectFunc: func(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			return nil, &smithy.GenericAPIError{Code: "SlowDown", Message: "reduce request rate"}
		},
	}

	err := New(client, fs, nil).Upload(context.Background(), "b", "f.bin", "f.bin")
	require.Error(t, err)
	assert.False(t, errors.IsPermanent(err))
}

func TestNewFromConfigValidates(t *testing.T) {
	_, err := NewFromConfig(context.Background(), releasetypes.StorageConfig{
		Backend:   releasetypes.BackendS3,
		AccessKey: "only-access",
	})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidConfig(err))
}

func TestNewFromConfigStaticCredentials(t *testing.T) {
	u, err := NewFromConfig(context.Background(), releasetypes.StorageConfig{
		Backend:        releasetypes.BackendS3,
		Region:         "eu-west-1",
		Endpoint:       "http://localhost:4566",
		AccessKey:      "test",
		SecretKey:      "test",
		ForcePathStyle: true,
	})
	require.NoError(t, err)
	require.NotNil(t, u)

	client, ok := u.client.(*s3.Client)
	require.True(t, ok)
	opts := client.Options()
	assert.Equal(t, "eu-west-1", opts.Region)
	assert.True(t, opts.UsePathStyle)
	assert.Equal(t, "http://localhost:4566", aws.ToString(opts.BaseEndpoint))
}
