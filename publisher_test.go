package release

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
	"github.com/input-output-hk/catalyst-forge-libs/release/internal/testutil"
)

var fixedClock = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

type fixture struct {
	uploader *testutil.MockUploader
	purger   *testutil.MockPurger
	notifier *testutil.MockNotifier
}

func newPublisher(t *testing.T, files map[string]string, f *fixture) *Publisher {
	t.Helper()

	fs := memfs.New()
	require.NoError(t, testutil.WriteFiles(fs, files))
	require.NoError(t, fs.MkdirAll("release", 0o755))

	p, err := New("releases", f.uploader.Upload,
		WithFilesystem(fs),
		WithWorkerCount(3),
		WithExtractor(&testutil.MockExtractor{Dir: "release"}),
		WithPurger(f.purger),
		WithNotifier(f.notifier),
		WithCDNBaseURL("https://cdn.example.com/app"),
		WithClock(fixedClock),
	)
	require.NoError(t, err)
	return p
}

func newFixture() *fixture {
	return &fixture{
		uploader: &testutil.MockUploader{},
		purger:   &testutil.MockPurger{},
		notifier: &testutil.MockNotifier{},
	}
}

func TestPublish(t *testing.T) {
	f := newFixture()
	p := newPublisher(t, map[string]string{
		"release/app.apk":       "apk",
		"release/changelog.txt": "- dark mode",
		"release/version.txt":   "1.4.0",
		"release/assets/a.png":  "png",
	}, f)

	report, err := p.Publish(context.Background(), "dist/app.tar.gz")
	require.NoError(t, err)

	assert.Equal(t, "dist/app.tar.gz", report.ArchivePath)
	assert.Equal(t, "release", report.UploadDir)
	assert.True(t, report.Batch.AllSucceeded)
	assert.True(t, report.Purged)
	assert.True(t, report.Notified)
	assert.Equal(t, []string{"app.apk", "assets/a.png", "changelog.txt", "version.txt"}, f.uploader.Keys())

	assert.Equal(t, [][]string{{"/app/*"}}, f.purger.Calls())

	msgs := f.notifier.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, report.Message, msgs[0])
	assert.True(t, strings.HasPrefix(msgs[0], "Release type: full package\nRelease time: 2024-01-02 03:04:05\nVersion: 1.4.0"))
	assert.Contains(t, msgs[0], "\nDownload:\nhttps://cdn.example.com/app/app.apk\n")
	assert.Contains(t, msgs[0], "- dark mode")
}

func TestPublishPatch(t *testing.T) {
	f := newFixture()
	p := newPublisher(t, map[string]string{"release/lib.so": "so"}, f)

	report, err := p.Publish(context.Background(), "patch.tar.gz")
	require.NoError(t, err)
	assert.False(t, report.Batch.HasInstaller())
	assert.Equal(t, "Release type: patch\nRelease time: 2024-01-02 03:04:05", report.Message)
}

func TestPublishBatchFailureSkipsAnnouncement(t *testing.T) {
	f := newFixture()
	f.uploader.UploadFunc = func(_ context.Context, _, key, _ string) error {
		if key == "b.txt" {
			return fmt.Errorf("connection reset")
		}
		return nil
	}
	p := newPublisher(t, map[string]string{
		"release/a.txt": "a",
		"release/b.txt": "b",
		"release/c.txt": "c",
	}, f)

	report, err := p.Publish(context.Background(), "x.tar.gz")
	require.Error(t, err)
	assert.True(t, errors.IsBatchFailed(err))
	assert.Equal(t, errors.CodePublishFailed, errors.CodeOf(err))

	require.NotNil(t, report)
	assert.Equal(t, 1, report.Batch.FilesFailed)
	assert.Len(t, f.uploader.Calls(), 3, "a failure must not stop sibling uploads")
	assert.Empty(t, f.purger.Calls())
	assert.Empty(t, f.notifier.Messages())
}

func TestPublishNotifiesWhenPurgeFails(t *testing.T) {
	f := newFixture()
	f.purger.PurgeFunc = func(context.Context, []string) error {
		return fmt.Errorf("throttled")
	}
	p := newPublisher(t, map[string]string{"release/a.txt": "a"}, f)

	report, err := p.Publish(context.Background(), "x.tar.gz")
	require.Error(t, err)
	assert.True(t, errors.IsExternalService(err))

	assert.False(t, report.Purged)
	assert.Error(t, report.PurgeErr)
	assert.True(t, report.Notified)
	assert.Len(t, f.notifier.Messages(), 1)
	assert.Len(t, f.uploader.Calls(), 1, "uploads are not undone")
}

func TestPublishNotifyFailure(t *testing.T) {
	f := newFixture()
	f.notifier.NotifyFunc = func(context.Context, string) error {
		return errors.Wrap(errors.ErrExternalService, fmt.Errorf("503"))
	}
	p := newPublisher(t, map[string]string{"release/a.txt": "a"}, f)

	report, err := p.Publish(context.Background(), "x.tar.gz")
	require.Error(t, err)
	assert.True(t, errors.IsExternalService(err))
	assert.True(t, report.Purged)
	assert.False(t, report.Notified)
}

func TestPublishExtractFailure(t *testing.T) {
	f := newFixture()
	fs := memfs.New()
	p, err := New("releases", f.uploader.Upload,
		WithFilesystem(fs),
		WithExtractor(&testutil.MockExtractor{Err: errors.Wrap(errors.ErrNotFound, fmt.Errorf("no archive"))}),
	)
	require.NoError(t, err)

	report, err := p.Publish(context.Background(), "missing.tar.gz")
	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, errors.IsNotFound(err))
	assert.Empty(t, f.uploader.Calls())
}

func TestPublishDirWithoutCollaborators(t *testing.T) {
	up := &testutil.MockUploader{}
	fs := memfs.New()
	require.NoError(t, testutil.WriteFiles(fs, map[string]string{"out/a.txt": "a"}))

	p, err := New("releases", up.Upload, WithFilesystem(fs))
	require.NoError(t, err)

	report, err := p.PublishDir(context.Background(), "out")
	require.NoError(t, err)
	assert.False(t, report.Purged)
	assert.False(t, report.Notified)
	assert.Empty(t, report.Message)
}

func TestNewValidation(t *testing.T) {
	up := &testutil.MockUploader{}

	_, err := New("", up.Upload)
	assert.True(t, errors.IsInvalidConfig(err))

	_, err = New("b", nil)
	assert.True(t, errors.IsInvalidConfig(err))
}

func TestDefaultPurgePaths(t *testing.T) {
	up := &testutil.MockUploader{}

	p, err := New("b", up.Upload, WithPurger(&testutil.MockPurger{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"/*"}, p.config.PurgePaths)

	p, err = New("b", up.Upload, WithPurger(&testutil.MockPurger{}), WithPurgePaths("/a", "/b"))
	require.NoError(t, err)
	assert.Equal(t, []string{"/a", "/b"}, p.config.PurgePaths)
}
