package growiclient

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sony/gobreaker/v2"

	"github.com/fivetwenty-io/growi/internal/client"
	"github.com/fivetwenty-io/growi/pkg/growi"
)

// Environment variables read by NewFromEnv.
const (
	EnvURL   = "GROWI_URL"
	EnvToken = "GROWI_TOKEN"
)

// New creates a new wiki client. The caller's config is not modified.
func New(ctx context.Context, config *growi.Config) (growi.Client, error) {
	if config == nil {
		return nil, growi.ErrConfigRequired
	}

	if strings.TrimSpace(config.BaseURL) == "" {
		return nil, growi.ErrBaseURLRequired
	}

	normalized := *config
	normalized.BaseURL = NormalizeBaseURL(config.BaseURL)

	cli, err := client.New(ctx, &normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return cli, nil
}

// DefaultCircuitBreaker returns breaker settings suitable for Config.CircuitBreaker.
func DefaultCircuitBreaker() *gobreaker.Settings {
	return client.DefaultCircuitBreaker()
}

// NormalizeBaseURL trims trailing slashes and defaults the scheme to https.
func NormalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}

	return baseURL
}

// NewWithToken creates a new client with a base URL and access token.
func NewWithToken(ctx context.Context, baseURL, token string) (growi.Client, error) {
	return New(ctx, &growi.Config{
		BaseURL:     baseURL,
		AccessToken: token,
	})
}

// NewFromEnv creates a client from GROWI_URL and GROWI_TOKEN.
func NewFromEnv(ctx context.Context) (growi.Client, error) {
	return NewWithToken(ctx, os.Getenv(EnvURL), os.Getenv(EnvToken))
}
