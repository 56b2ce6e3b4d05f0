package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/fivetwenty-io/growi/internal/auth"
	"github.com/fivetwenty-io/growi/internal/constants"
	"github.com/fivetwenty-io/growi/internal/http"
	"github.com/fivetwenty-io/growi/internal/metrics"
	"github.com/fivetwenty-io/growi/internal/tracing"
	"github.com/fivetwenty-io/growi/pkg/growi"
)

// Operation names used for errors, metrics and spans.
const (
	opResolve    = "resolve"
	opExists     = "exists"
	opGet        = "get"
	opCreate     = "create"
	opUpdate     = "update"
	opRename     = "rename"
	opListByPath = "list_by_path"
	opListByUser = "list_by_user"
	opAttach     = "attach"
	opListTags   = "list_tags"
	opPageTags   = "page_tags"
)

// Client implements the growi.Client interface.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     growi.Logger

	pages       *PagesClient
	attachments *AttachmentsClient
	tags        *TagsClient
}

// createTokenManager returns nil when no token is configured; requests are
// then sent unauthenticated.
func createTokenManager(config *growi.Config) auth.TokenManager {
	token := strings.TrimSpace(config.AccessToken)
	if token == "" {
		return nil
	}

	return auth.NewStaticTokenManager(token)
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *growi.Config) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(&loggerAdapter{logger: config.Logger}))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	// A caller-supplied client keeps its own timeout.
	switch {
	case config.HTTPClient != nil:
		httpOpts = append(httpOpts, http.WithHTTPClient(config.HTTPClient))
	case config.HTTPTimeout > 0:
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	if config.CircuitBreaker != nil {
		httpOpts = append(httpOpts, http.WithCircuitBreaker(*config.CircuitBreaker))
	}

	if config.Interceptors != nil {
		httpOpts = append(httpOpts, http.WithInterceptors(config.Interceptors))
	}

	return httpOpts
}

// DefaultCircuitBreaker returns breaker settings that open after
// constants.CircuitBreakerThreshold consecutive failures.
func DefaultCircuitBreaker() *gobreaker.Settings {
	return &gobreaker.Settings{
		Timeout: constants.CircuitBreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= constants.CircuitBreakerThreshold
		},
	}
}

// New creates a new wiki client. No request is sent.
func New(_ context.Context, config *growi.Config) (*Client, error) {
	if config == nil {
		return nil, growi.NewInvalidArgument("new client", growi.ErrConfigRequired)
	}

	if config.BaseURL == "" {
		return nil, growi.NewInvalidArgument("new client", growi.ErrBaseURLRequired)
	}

	// An empty token means unauthenticated; a whitespace-only one is a mistake.
	if config.AccessToken != "" && strings.TrimSpace(config.AccessToken) == "" {
		return nil, growi.NewInvalidArgument("new client", growi.ErrAccessTokenBlank)
	}

	httpClient := http.NewClient(config.BaseURL, createTokenManager(config), createHTTPClientOptions(config)...)

	obs := &observer{
		metrics: metrics.NewRecorder(config.MetricsRegisterer),
		events:  config.Events,
		logger:  config.Logger,
	}

	client := &Client{
		httpClient: httpClient,
		baseURL:    httpClient.BaseURL(),
		logger:     config.Logger,
	}

	client.pages = NewPagesClient(httpClient, obs)
	client.attachments = NewAttachmentsClient(httpClient, client.pages, obs)
	client.tags = NewTagsClient(httpClient, client.pages, obs)

	if config.Logger != nil {
		config.Logger.Debug("wiki client ready", map[string]interface{}{"base_url": client.baseURL})
	}

	return client, nil
}

// BaseURL returns the wiki base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Pages implements growi.Client.Pages.
func (c *Client) Pages() growi.PagesClient {
	return c.pages
}

// Attachments implements growi.Client.Attachments.
func (c *Client) Attachments() growi.AttachmentsClient {
	return c.attachments
}

// Tags implements growi.Client.Tags.
func (c *Client) Tags() growi.TagsClient {
	return c.tags
}

// observer records metrics and spans for each public operation and
// publishes page events after successful writes.
type observer struct {
	metrics *metrics.Recorder
	events  growi.EventPublisher
	logger  growi.Logger
}

// start opens a span and a metrics timer for op. The returned func must be
// called with the operation's final error.
func (o *observer) start(ctx context.Context, op string, ref growi.PageRef) (context.Context, func(error)) {
	ctx, span := tracing.StartSpan(ctx, "growi."+op)
	tracing.AddPageAttributes(span, op, ref.Path, ref.ID)

	var done func(string)
	if o != nil {
		done = o.metrics.Start(op)
	}

	return ctx, func(err error) {
		tracing.RecordError(span, err)
		span.End()

		if done == nil {
			return
		}

		if err != nil {
			done(growi.KindOf(err).Label())

			return
		}

		done(metrics.OutcomeSuccess)
	}
}

// publish never fails the calling operation; errors are logged.
func (o *observer) publish(ctx context.Context, event *growi.PageEvent) {
	if o == nil || o.events == nil {
		return
	}

	event.Time = time.Now().UTC()

	err := o.events.Publish(ctx, event)
	if err != nil && o.logger != nil {
		o.logger.Warn("publishing page event failed", map[string]interface{}{
			"operation": string(event.Operation),
			"path":      event.Path,
			"error":     err.Error(),
		})
	}
}

// call sends a request and classifies the outcome.
func call(op string, send func() (*http.Response, error)) (*http.Response, error) {
	resp, err := send()
	if err != nil {
		return nil, growi.NewUnreachable(op, err)
	}

	if apiErr := growi.Classify(op, resp.StatusCode, resp.Body); apiErr != nil {
		return nil, apiErr
	}

	return resp, nil
}

func decodeError(op string, resp *http.Response, err error, what string) error {
	return growi.NewDecodeError(op, resp.StatusCode, resp.Body, fmt.Errorf("parsing %s: %w", what, err))
}

// loggerAdapter adapts growi.Logger to http.Logger.
type loggerAdapter struct {
	logger growi.Logger
}

func (l *loggerAdapter) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, fields)
}

func (l *loggerAdapter) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, fields)
}

func (l *loggerAdapter) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, fields)
}

func (l *loggerAdapter) Error(msg string, fields map[string]interface{}) {
	l.logger.Error(msg, fields)
}
