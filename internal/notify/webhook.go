package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
	"github.com/input-output-hk/catalyst-forge-libs/release/releasetypes"
)

// DefaultTimeout bounds one webhook request.
const DefaultTimeout = 10 * time.Second

type textContent struct {
	Text string `json:"text"`
}

type webhookRequest struct {
	MsgType string      `json:"msg_type"`
	Content textContent `json:"content"`
}

type webhookResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// Webhook posts text messages to a Feishu/Lark bot webhook.
type Webhook struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewWebhook creates a notifier from cfg.
func NewWebhook(cfg releasetypes.NotifyConfig, logger *slog.Logger) (*Webhook, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled() {
		return nil, errors.NewConfigError("notify", "webhook url is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Webhook{
		url:    cfg.WebhookURL,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}, nil
}

// Notify sends message as a text post. A non-2xx status or a non-zero
// response code is an ErrExternalService error.
func (w *Webhook) Notify(ctx context.Context, message string) error {
	body, err := json.Marshal(webhookRequest{
		MsgType: "text",
		Content: textContent{Text: message},
	})
	if err != nil {
		return errors.NewError("notify", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return errors.NewError("notify", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return errors.NewError("notify", errors.Wrap(errors.ErrExternalService, err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return errors.NewError("notify", errors.Wrap(errors.ErrExternalService, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.NewError("notify", fmt.Errorf("%w: webhook returned %s: %s",
			errors.ErrExternalService, resp.Status, strings.TrimSpace(string(data))))
	}

	var result webhookResponse
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &result); err != nil {
			w.logger.Debug("webhook response is not json", "body", string(data))
		}
	}
	if result.Code != 0 {
		return errors.NewError("notify", fmt.Errorf("%w: webhook rejected message: code %d: %s",
			errors.ErrExternalService, result.Code, result.Msg))
	}

	w.logger.Info("release notification sent", "status", resp.StatusCode)
	return nil
}

// CheckVersion reports whether version parses as a semantic version.
// Empty versions are valid.
func CheckVersion(version string) error {
	if version == "" {
		return nil
	}
	if _, err := semver.NewVersion(strings.TrimSpace(version)); err != nil {
		return fmt.Errorf("version %q is not a semantic version: %w", version, err)
	}
	return nil
}
