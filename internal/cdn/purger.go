// Package cdn invalidates cached release paths on a CloudFront distribution.
package cdn

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/google/uuid"

	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
	"github.com/input-output-hk/catalyst-forge-libs/release/releasetypes"
)

// CloudFrontAPI is the subset of the CloudFront client used by the Purger.
type CloudFrontAPI interface {
	CreateInvalidation(
		ctx context.Context,
		params *cloudfront.CreateInvalidationInput,
		optFns ...func(*cloudfront.Options),
	) (*cloudfront.CreateInvalidationOutput, error)
}

var _ CloudFrontAPI = (*cloudfront.Client)(nil)

// Purger flushes paths from a distribution's edge caches.
type Purger struct {
	client         CloudFrontAPI
	distributionID string
	logger         *slog.Logger
}

// NewPurger creates a Purger for distributionID.
func NewPurger(client CloudFrontAPI, distributionID string, logger *slog.Logger) *Purger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Purger{
		client:         client,
		distributionID: distributionID,
		logger:         logger,
	}
}

// NewFromConfig builds a CloudFront client using the default credential chain.
func NewFromConfig(ctx context.Context, cfg releasetypes.CDNConfig, logger *slog.Logger) (*Purger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled() {
		return nil, errors.NewConfigError("cdn", "distribution id is required")
	}

	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.NewError("client initialization", err)
	}

	return NewPurger(cloudfront.NewFromConfig(awsCfg), cfg.DistributionID, logger), nil
}

// Purge invalidates paths. An empty path list is a no-op.
func (p *Purger) Purge(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	out, err := p.client.CreateInvalidation(ctx, &cloudfront.CreateInvalidationInput{
		DistributionId: aws.String(p.distributionID),
		InvalidationBatch: &cftypes.InvalidationBatch{
			CallerReference: aws.String(uuid.NewString()),
			Paths: &cftypes.Paths{
				Quantity: aws.Int32(int32(len(paths))),
				Items:    paths,
			},
		},
	})
	if err != nil {
		return errors.NewError("purge", errors.Wrap(errors.ErrExternalService, err))
	}

	var id, status string
	if out != nil && out.Invalidation != nil {
		id = aws.ToString(out.Invalidation.Id)
		status = aws.ToString(out.Invalidation.Status)
	}
	p.logger.Info("cdn invalidation created",
		"distribution", p.distributionID,
		"paths", paths,
		"invalidation", id,
		"status", status)
	return nil
}

// PathsFromBaseURL returns the invalidation path covering everything under
// baseURL, e.g. "https://cdn.example.com/app/" gives "/app/*".
func PathsFromBaseURL(baseURL string) ([]string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.NewConfigError("cdn", fmt.Sprintf("invalid base url: %v", err))
	}

	p := strings.TrimSuffix(u.Path, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if p == "/" {
		return []string{"/*"}, nil
	}
	return []string{p + "/*"}, nil
}
