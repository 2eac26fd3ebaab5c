package releasetypes

import (
	"fmt"
	"net/url"

	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
)

// Validate checks the storage configuration.
func (c *StorageConfig) Validate() error {
	switch c.Backend {
	case BackendS3:
	case BackendMinio:
		if c.Endpoint == "" {
			return errors.NewConfigError("storage", "minio backend requires an endpoint")
		}
	default:
		return errors.NewConfigError("storage", fmt.Sprintf("unknown backend %q", c.Backend))
	}

	if (c.AccessKey == "") != (c.SecretKey == "") {
		return errors.NewConfigError("storage", "access key and secret key must be set together")
	}
	if c.MaxRetries < 0 {
		return errors.NewConfigError("storage", "max retries cannot be negative")
	}
	if c.UploadTimeout < 0 {
		return errors.NewConfigError("storage", "upload timeout cannot be negative")
	}
	if c.Endpoint != "" {
		if err := validateURL(c.Endpoint); err != nil {
			return errors.NewConfigError("storage", fmt.Sprintf("endpoint: %v", err))
		}
	}
	return nil
}

// Enabled reports whether purging is configured.
func (c *CDNConfig) Enabled() bool {
	return c.DistributionID != ""
}

// Validate checks the CDN configuration.
func (c *CDNConfig) Validate() error {
	if c.BaseURL != "" {
		if err := validateURL(c.BaseURL); err != nil {
			return errors.NewConfigError("cdn", fmt.Sprintf("base url: %v", err))
		}
	}
	if c.Enabled() && c.BaseURL == "" {
		return errors.NewConfigError("cdn", "distribution requires a base url")
	}
	return nil
}

// Enabled reports whether notification is configured.
func (c *NotifyConfig) Enabled() bool {
	return c.WebhookURL != ""
}

// Validate checks the notification configuration.
func (c *NotifyConfig) Validate() error {
	if c.WebhookURL == "" {
		return nil
	}
	if err := validateURL(c.WebhookURL); err != nil {
		return errors.NewConfigError("notify", fmt.Sprintf("webhook url: %v", err))
	}
	if c.Timeout < 0 {
		return errors.NewConfigError("notify", "timeout cannot be negative")
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
