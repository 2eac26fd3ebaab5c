package minio

import (
	"context"
	"io"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
	"github.com/input-output-hk/catalyst-forge-libs/release/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/release/releasetypes"
)

type fakePutter struct {
	err    error
	bucket string
	key    string
	body   []byte
	size   int64
	opts   minio.PutObjectOptions
}

func (f *fakePutter) PutObject(
	_ context.Context,
	bucket, key string,
	reader io.Reader,
	size int64,
	opts minio.PutObjectOptions,
) (minio.UploadInfo, error) {
	if f.err != nil {
		return minio.UploadInfo{}, f.err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.bucket, f.key, f.body, f.size, f.opts = bucket, key, data, size, opts
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: size, ETag: "etag"}, nil
}

func TestUpload(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, testutil.WriteFiles(fs, map[string]string{"out/version.txt": "1.2.3"}))

	putter := &fakePutter{}
	u := New(putter, fs, nil)

	require.NoError(t, u.Upload(context.Background(), "releases", "version.txt", "out/version.txt"))
	assert.Equal(t, "releases", putter.bucket)
	assert.Equal(t, "version.txt", putter.key)
	assert.Equal(t, "1.2.3", string(putter.body))
	assert.Equal(t, int64(5), putter.size)
	assert.Contains(t, putter.opts.ContentType, "text/plain")
}

func TestUploadErrors(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, testutil.WriteFiles(fs, map[string]string{"f.bin": "x"}))

	t.Run("missing source", func(t *testing.T) {
		err := New(&fakePutter{}, fs, nil).Upload(context.Background(), "b", "k", "nope")
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("no such bucket", func(t *testing.T) {
		putter := &fakePutter{err: minio.ErrorResponse{Code: "NoSuchBucket", Message: "bucket missing"}}
		err := New(putter, fs, nil).Upload(context.Background(), "b", "k", "f.bin")
		assert.ErrorIs(t, err, errors.ErrBucketNotFound)
	})

	t.Run("access denied", func(t *testing.T) {
		putter := &fakePutter{err: minio.ErrorResponse{Code: "AccessDenied", Message: "denied"}}
		err := New(putter, fs, nil).Upload(context.Background(), "b", "k", "f.bin")
		assert.ErrorIs(t, err, errors.ErrAccessDenied)
	})

	t.Run("transient", func(t *testing.T) {
		putter := &fakePutter{err: minio.ErrorResponse{Code: "SlowDown", Message: "slow down"}}
		err := New(putter, fs, nil).Upload(context.Background(), "b", "k", "f.bin")
		require.Error(t, err)
		assert.False(t, errors.IsPermanent(err))
	})
}

func TestNewFromConfig(t *testing.T) {
	_, err := NewFromConfig(releasetypes.StorageConfig{Backend: releasetypes.BackendMinio})
	assert.True(t, errors.IsInvalidConfig(err))

	u, err := NewFromConfig(releasetypes.StorageConfig{
		Backend:   releasetypes.BackendMinio,
		Endpoint:  "https://minio.example.com:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	})
	require.NoError(t, err)

	client, ok := u.client.(*minio.Client)
	require.True(t, ok)
	assert.Equal(t, "minio.example.com:9000", client.EndpointURL().Host)
	assert.Equal(t, "https", client.EndpointURL().Scheme)
}
