// Package http is the transport used by the wiki client. It sends one
// request and returns the status and raw body, or a transport error; it never
// interprets status codes.
package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker/v2"

	"github.com/fivetwenty-io/growi/internal/auth"
	"github.com/fivetwenty-io/growi/internal/constants"
	"github.com/fivetwenty-io/growi/pkg/growi"
)

// Static errors for err113 compliance.
var (
	errServerFailure = errors.New("server failure")
)

// Logger is the logging surface used by the transport.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Request is a single API call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Form is sent as an application/x-www-form-urlencoded body.
	Form url.Values
	// Body is sent verbatim with ContentType when Form is nil.
	Body        []byte
	ContentType string
	Headers     map[string]string
}

// Response is the status and raw body of a completed exchange.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Client sends requests to the wiki.
type Client struct {
	baseURL      string
	tokenManager auth.TokenManager
	client       *retryablehttp.Client
	breaker      *gobreaker.CircuitBreaker[*http.Response]
	interceptors *growi.InterceptorChain
	logger       Logger
	debug        bool
	userAgent    string
}

// Option configures the client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
		c.client.Logger = &leveledLogger{logger: logger}
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithRetryConfig enables retries of transport errors, 429 and 5xx.
func WithRetryConfig(maxRetries int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.client.RetryMax = maxRetries
		c.client.RetryWaitMin = waitMin
		c.client.RetryWaitMax = waitMax
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.client.HTTPClient = httpClient
		}
	}
}

// WithTimeout sets the per-attempt timeout of the underlying *http.Client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.client.HTTPClient.Timeout = timeout
		}
	}
}

// WithCircuitBreaker wraps every exchange in a circuit breaker. Transport
// errors and 5xx responses count as failures.
func WithCircuitBreaker(settings gobreaker.Settings) Option {
	return func(c *Client) {
		if settings.Name == "" {
			settings.Name = c.baseURL
		}

		c.breaker = gobreaker.NewCircuitBreaker[*http.Response](settings)
	}
}

// WithInterceptors runs the chain around every exchange.
func WithInterceptors(chain *growi.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// NewClient creates a new transport for baseURL. A nil tokenManager sends
// unauthenticated requests.
func NewClient(baseURL string, tokenManager auth.TokenManager, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = constants.DefaultRetryMax
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.Logger = nil
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout

	client := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		tokenManager: tokenManager,
		client:       retryClient,
		userAgent:    constants.DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// BaseURL returns the wiki base URL the client was built for.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends the request. A non-nil error means no response was received.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	fullURL, err := c.buildURL(ctx, req)
	if err != nil {
		return nil, err
	}

	body, contentType := req.encodeBody()

	var rawBody interface{}
	if body != nil {
		rawBody = body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL.String(), rawBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	intercepted := &growi.Request{
		Method:  req.Method,
		Path:    req.Path,
		Headers: httpReq.Header,
	}

	if c.interceptors != nil {
		err = c.interceptors.ExecuteRequestInterceptors(ctx, intercepted)
		if err != nil {
			return nil, err
		}
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    redactURL(fullURL),
			"body":   loggableBody(body, contentType),
		})
	}

	httpResp, err := c.send(httpReq)
	if err != nil {
		err = redactError(err)
		c.afterResponse(ctx, intercepted, &growi.Response{Error: err})

		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}

	defer func() {
		_ = httpResp.Body.Close()
	}()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		c.afterResponse(ctx, intercepted, &growi.Response{StatusCode: httpResp.StatusCode, Error: err})

		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status": httpResp.StatusCode,
			"body":   loggableBody(respBody, httpResp.Header.Get("Content-Type")),
		})
	}

	response := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
	}

	c.afterResponse(ctx, intercepted, &growi.Response{
		StatusCode: response.StatusCode,
		Headers:    response.Headers,
		Body:       response.Body,
	})

	return response, nil
}

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// PostForm sends a form-encoded POST request.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Form: form})
}

// PutForm sends a form-encoded PUT request.
func (c *Client) PutForm(ctx context.Context, path string, form url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Form: form})
}

// PostRaw sends a POST request with a pre-encoded body, e.g. multipart form data.
func (c *Client) PostRaw(ctx context.Context, path string, body []byte, contentType string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body, ContentType: contentType})
}

func (c *Client) send(req *retryablehttp.Request) (*http.Response, error) {
	if c.breaker == nil {
		return c.client.Do(req)
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, errServerFailure
		}

		return resp, nil
	})
	if errors.Is(err, errServerFailure) {
		return resp, nil
	}

	return resp, err
}

func (c *Client) afterResponse(ctx context.Context, req *growi.Request, resp *growi.Response) {
	if c.interceptors == nil {
		return
	}

	err := c.interceptors.ExecuteResponseInterceptors(ctx, req, resp)
	if err != nil && c.logger != nil {
		c.logger.Warn("response interceptor failed", map[string]interface{}{"error": err.Error()})
	}
}

func (c *Client) buildURL(ctx context.Context, req *Request) (*url.URL, error) {
	fullURL, err := url.Parse(c.baseURL + req.Path)
	if err != nil {
		return nil, fmt.Errorf("parsing request URL: %w", err)
	}

	query := url.Values{}
	for key, values := range req.Query {
		query[key] = append([]string(nil), values...)
	}

	if c.tokenManager != nil {
		token, err := c.tokenManager.GetToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("getting access token: %w", err)
		}

		query.Set(constants.ParamAccessToken, token)
	}

	fullURL.RawQuery = query.Encode()

	return fullURL, nil
}

func (r *Request) encodeBody() ([]byte, string) {
	if r.Form != nil {
		return []byte(r.Form.Encode()), "application/x-www-form-urlencoded"
	}

	if r.Body != nil {
		return r.Body, r.ContentType
	}

	return nil, ""
}

func redactURL(u *url.URL) string {
	redacted := *u

	query := redacted.Query()
	if token := query.Get(constants.ParamAccessToken); token != "" {
		query.Set(constants.ParamAccessToken, auth.Redact(token))
		redacted.RawQuery = query.Encode()
	}

	return redacted.String()
}

// redactText masks every access_token query value found in text.
func redactText(text string) string {
	const marker = constants.ParamAccessToken + "="

	var builder strings.Builder

	for {
		index := strings.Index(text, marker)
		if index < 0 {
			builder.WriteString(text)

			return builder.String()
		}

		index += len(marker)
		builder.WriteString(text[:index])
		text = text[index:]

		end := strings.IndexAny(text, "&#\" \t\n")
		if end < 0 {
			end = len(text)
		}

		builder.WriteString(auth.Redact(text[:end]))
		text = text[end:]
	}
}

// redactError masks the access token in the URL of a *url.Error in err's
// chain. The error is updated in place so wrapping and Unwrap are kept.
func redactError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = redactText(urlErr.URL)
	}

	return err
}

func redactValue(value interface{}) interface{} {
	switch v := value.(type) {
	case *url.URL:
		return redactURL(v)
	case error:
		return redactText(redactError(v).Error())
	case string:
		return redactText(v)
	default:
		return value
	}
}

func loggableBody(body []byte, contentType string) string {
	switch {
	case len(body) == 0:
		return ""
	case strings.HasPrefix(contentType, "multipart/"):
		return fmt.Sprintf("<multipart %d bytes>", len(body))
	case len(body) > constants.MaxLoggedBodyBytes:
		return string(body[:constants.MaxLoggedBodyBytes]) + "..."
	default:
		return string(bytes.ToValidUTF8(body, []byte("?")))
	}
}

// leveledLogger adapts Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, toFields(keysAndValues))
}

func toFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}

		fields[key] = redactValue(keysAndValues[i+1])
	}

	return fields
}
