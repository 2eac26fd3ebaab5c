// Package testutil provides test utilities and mocks for release operations.
// This package is internal and should only be used for testing within the release module.
package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// UploadCall records one invocation of MockUploader.
type UploadCall struct {
	Bucket     string
	Key        string
	SourcePath string
}

// MockUploader is a thread-safe in-memory storage backend.
// UploadFunc customizes the result of each call; by default every upload succeeds.
type MockUploader struct {
	UploadFunc func(ctx context.Context, bucket, key, sourcePath string) error

	mu    sync.Mutex
	calls []UploadCall
}

// Upload records the call and delegates to UploadFunc.
func (m *MockUploader) Upload(ctx context.Context, bucket, key, sourcePath string) error {
	m.mu.Lock()
	m.calls = append(m.calls, UploadCall{Bucket: bucket, Key: key, SourcePath: sourcePath})
	m.mu.Unlock()

	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, bucket, key, sourcePath)
	}
	return nil
}

// Calls returns a copy of the recorded calls.
func (m *MockUploader) Calls() []UploadCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]UploadCall(nil), m.calls...)
}

// Keys returns the uploaded keys in sorted order.
func (m *MockUploader) Keys() []string {
	calls := m.Calls()
	keys := make([]string, len(calls))
	for i, c := range calls {
		keys[i] = c.Key
	}
	sort.Strings(keys)
	return keys
}

// MockPurger records purge requests.
type MockPurger struct {
	PurgeFunc func(ctx context.Context, paths []string) error

	mu    sync.Mutex
	calls [][]string
}

// Purge records the paths and delegates to PurgeFunc.
func (m *MockPurger) Purge(ctx context.Context, paths []string) error {
	m.mu.Lock()
	m.calls = append(m.calls, append([]string(nil), paths...))
	m.mu.Unlock()

	if m.PurgeFunc != nil {
		return m.PurgeFunc(ctx, paths)
	}
	return nil
}

// Calls returns the recorded purge requests.
func (m *MockPurger) Calls() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]string(nil), m.calls...)
}

// MockNotifier records delivered messages.
type MockNotifier struct {
	NotifyFunc func(ctx context.Context, message string) error

	mu       sync.Mutex
	messages []string
}

// Notify records the message and delegates to NotifyFunc.
func (m *MockNotifier) Notify(ctx context.Context, message string) error {
	m.mu.Lock()
	m.messages = append(m.messages, message)
	m.mu.Unlock()

	if m.NotifyFunc != nil {
		return m.NotifyFunc(ctx, message)
	}
	return nil
}

// Messages returns the recorded messages.
func (m *MockNotifier) Messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.messages...)
}

// MockExtractor returns a fixed directory or error.
type MockExtractor struct {
	Dir string
	Err error
}

// Extract implements releasetypes.Extractor.
func (m *MockExtractor) Extract(string, string) (string, error) {
	return m.Dir, m.Err
}

// MockS3Client is a mock implementation of the s3api.S3API interface.
type MockS3Client struct {
	PutObjectFunc func(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// PutObject mocks the S3 PutObject operation.
func (m *MockS3Client) PutObject(
	ctx context.Context,
	params *s3.PutObjectInput,
	optFns ...func(*s3.Options),
) (*s3.PutObjectOutput, error) {
	if m.PutObjectFunc != nil {
		return m.PutObjectFunc(ctx, params, optFns...)
	}
	return &s3.PutObjectOutput{}, nil
}

// MockCloudFrontClient is a mock of the CloudFront invalidation API.
type MockCloudFrontClient struct {
	CreateInvalidationFunc func(
		context.Context,
		*cloudfront.CreateInvalidationInput,
		...func(*cloudfront.Options),
	) (*cloudfront.CreateInvalidationOutput, error)
}

// CreateInvalidation mocks the CloudFront CreateInvalidation operation.
func (m *MockCloudFrontClient) CreateInvalidation(
	ctx context.Context,
	params *cloudfront.CreateInvalidationInput,
	optFns ...func(*cloudfront.Options),
) (*cloudfront.CreateInvalidationOutput, error) {
	if m.CreateInvalidationFunc != nil {
		return m.CreateInvalidationFunc(ctx, params, optFns...)
	}
	return &cloudfront.CreateInvalidationOutput{}, nil
}

// WriteFiles writes the given path→content map into fs.
func WriteFiles(fs billy.Filesystem, files map[string]string) error {
	for name, content := range files {
		if err := util.WriteFile(fs, name, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}
