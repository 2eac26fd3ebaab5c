package cdn

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
	"github.com/input-output-hk/catalyst-forge-libs/release/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/release/releasetypes"
)

func TestPurge(t *testing.T) {
	var inputs []*cloudfront.CreateInvalidationInput
	client := &testutil.MockCloudFrontClient{
		CreateInvalidationFunc: func(
			_ context.Context,
			in *cloudfront.CreateInvalidationInput,
			_ ...func(*cloudfront.Options),
		) (*cloudfront.CreateInvalidationOutput, error) {
			inputs = append(inputs, in)
			return &cloudfront.CreateInvalidationOutput{
				Invalidation: &cftypes.Invalidation{Id: aws.String("I1"), Status: aws.String("InProgress")},
			}, nil
		},
	}

	p := NewPurger(client, "E123", nil)
	require.NoError(t, p.Purge(context.Background(), []string{"/*"}))
	require.NoError(t, p.Purge(context.Background(), []string{"/app/*", "/index.html"}))

	require.Len(t, inputs, 2)
	assert.Equal(t, "E123", aws.ToString(inputs[0].DistributionId))
	assert.Equal(t, []string{"/*"}, inputs[0].InvalidationBatch.Paths.Items)
	assert.Equal(t, int32(2), aws.ToInt32(inputs[1].InvalidationBatch.Paths.Quantity))
	assert.NotEqual(t,
		aws.ToString(inputs[0].InvalidationBatch.CallerReference),
		aws.ToString(inputs[1].InvalidationBatch.CallerReference),
		"each invalidation needs a unique caller reference")
}

func TestPurgeNoPaths(t *testing.T) {
	called := false
	client := &testutil.MockCloudFrontClient{
		CreateInvalidationFunc: func(
			context.Context,
			*cloudfront.CreateInvalidationInput,
			...func(*cloudfront.Options),
		) (*cloudfront.CreateInvalidationOutput, error) {
			called = true
			return nil, nil
		},
	}

	require.NoError(t, NewPurger(client, "E123", nil).Purge(context.Background(), nil))
	assert.False(t, called)
}

func TestPurgeError(t *testing.T) {
	client := &testutil.MockCloudFrontClient{
		CreateInvalidationFunc: func(
			context.Context,
			*cloudfront.CreateInvalidationInput,
			...func(*cloudfront.Options),
		) (*cloudfront.CreateInvalidationOutput, error) {
			return nil, fmt.Errorf("throttled")
		},
	}

	err := NewPurger(client, "E123", nil).Purge(context.Background(), []string{"/*"})
	require.Error(t, err)
	assert.True(t, errors.IsExternalService(err))
	assert.Contains(t, err.Error(), "throttled")
}

func TestPathsFromBaseURL(t *testing.T) {
	tests := []struct {
		url  string
		want []string
	}{
		{"https://cdn.example.com/", []string{"/*"}},
		{"https://cdn.example.com", []string{"/*"}},
		{"https://cdn.example.com/app/", []string{"/app/*"}},
		{"https://cdn.example.com/a/b", []string{"/a/b/*"}},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := PathsFromBaseURL(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := PathsFromBaseURL("://bad")
	assert.True(t, errors.IsInvalidConfig(err))
}

func TestNewFromConfigRequiresDistribution(t *testing.T) {
	_, err := NewFromConfig(context.Background(), releasetypes.CDNConfig{}, nil)
	assert.True(t, errors.IsInvalidConfig(err))

	_, err = NewFromConfig(context.Background(), releasetypes.CDNConfig{DistributionID: "E1"}, nil)
	assert.True(t, errors.IsInvalidConfig(err), "distribution without base url")
}
