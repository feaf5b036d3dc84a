package identity

import (
	"context"
	"errors"
	"fmt"

	"courier/internal/config"

	"github.com/go-resty/resty/v2"
)

// Client talks to the external identity provider over HTTP. The provider
// owns email verification and assertion checking; the relay only forwards.
type Client struct {
	http *resty.Client
}

func NewClient(cfg config.IdentityConfig) *Client {
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout)
	if cfg.APIKey != "" {
		c.SetHeader("X-Api-Key", cfg.APIKey)
	}
	return &Client{http: c}
}

func (c *Client) SendVerificationEmail(ctx context.Context, email string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email}).
		Post("/v1/verification-emails")
	if err != nil {
		return fmt.Errorf("identity provider: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("identity provider: status %d", resp.StatusCode())
	}
	return nil
}

func (c *Client) VerifyAssertion(ctx context.Context, assertion string) (string, error) {
	var result struct {
		UserID string `json:"user_id"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"assertion": assertion}).
		SetResult(&result).
		Post("/v1/assertions/verify")
	if err != nil {
		return "", fmt.Errorf("identity provider: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("identity provider: status %d", resp.StatusCode())
	}
	if result.UserID == "" {
		return "", errors.New("identity provider: empty user id")
	}
	return result.UserID, nil
}
