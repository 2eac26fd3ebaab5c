package storage

import (
	"io"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
)

func TestOpenSource(t *testing.T) {
	fs := memfs.New()
	content := []byte("<html><body>hello</body></html>")
	require.NoError(t, util.WriteFile(fs, "site/index.html", content, 0o644))

	src, err := OpenSource(fs, "site/index.html")
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, int64(len(content)), src.Size)
	assert.Contains(t, src.ContentType, "text/html")

	data, err := io.ReadAll(src.File)
	require.NoError(t, err)
	assert.Equal(t, content, data, "source must be rewound after detection")
}

func TestOpenSourceMissing(t *testing.T) {
	_, err := OpenSource(memfs.New(), "nope.bin")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.True(t, errors.IsPermanent(err))
}

func TestClassifyCode(t *testing.T) {
	assert.Equal(t, errors.ErrAccessDenied, ClassifyCode("AccessDenied"))
	assert.Equal(t, errors.ErrAccessDenied, ClassifyCode("SignatureDoesNotMatch"))
	assert.Equal(t, errors.ErrBucketNotFound, ClassifyCode("NoSuchBucket"))
	assert.Equal(t, errors.ErrInvalidInput, ClassifyCode("InvalidBucketName"))
	assert.Nil(t, ClassifyCode("SlowDown"))
}
