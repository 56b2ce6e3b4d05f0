package growi

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
)

// PagesClient resolves and mutates pages.
type PagesClient interface {
	// Resolve returns the current id and revision of the referenced page.
	Resolve(ctx context.Context, ref PageRef) (*PageDescriptor, error)
	// Exists reports whether the referenced page exists. NotFound is false, not an error.
	Exists(ctx context.Context, ref PageRef) (bool, error)
	Get(ctx context.Context, ref PageRef) (*Page, error)
	ListByPath(ctx context.Context, path string, opts *ListOptions) (*PageList, error)
	ListByUser(ctx context.Context, user string, opts *ListOptions) (*PageList, error)
	Create(ctx context.Context, path, body string, grant GrantLevel) (*PageDescriptor, error)
	// Update resolves the page and writes the new body against the resolved revision.
	Update(ctx context.Context, request *MutationRequest) (*PageDescriptor, error)
	// Rename resolves the page and moves it to request.NewPath against the resolved revision.
	Rename(ctx context.Context, request *MutationRequest) (*PageDescriptor, error)
}

// AttachmentsClient uploads files to pages.
type AttachmentsClient interface {
	Attach(ctx context.Context, ref PageRef, payload *AttachmentPayload) (*AttachmentReference, error)
	AttachFile(ctx context.Context, ref PageRef, filePath string, opts *AttachFileOptions) (*AttachmentReference, error)
}

// TagsClient reads tag metadata.
type TagsClient interface {
	List(ctx context.Context, opts *ListOptions) (*TagList, error)
	ByPage(ctx context.Context, ref PageRef) ([]string, error)
}

// Client is the wiki API client.
type Client interface {
	Pages() PagesClient
	Attachments() AttachmentsClient
	Tags() TagsClient
}

// AttachFileOptions overrides what AttachFile derives from the local file.
type AttachFileOptions struct {
	// FileName defaults to the base name of the local file.
	FileName string
	// MIMEType defaults to a guess from the file extension.
	MIMEType   string
	TargetPath string
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration.
//
// # Credentials
//
// AccessToken is a static API token. It is sent as the access_token query
// parameter on every request and is never refreshed; an invalid token
// surfaces as KindUnauthorized.
//
// # Retries and timeouts
//
// Per-request deadlines come from the context passed to each call. RetryMax
// defaults to zero so writes are never replayed behind the caller's back;
// when raised, only transport errors, 429 and 5xx are retried. A
// CircuitBreaker, when set, fails calls fast with KindUnreachable while open.
type Config struct {
	// BaseURL of the wiki, e.g. "https://wiki.example.com".
	BaseURL     string
	AccessToken string

	Logger    Logger
	Debug     bool
	UserAgent string

	// HTTPClient replaces the underlying *http.Client (timeouts, TLS, proxies).
	HTTPClient   *http.Client
	HTTPTimeout  time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	CircuitBreaker *gobreaker.Settings

	// Interceptors run around every HTTP exchange.
	Interceptors *InterceptorChain

	// MetricsRegisterer, when set, receives per-operation request metrics.
	MetricsRegisterer prometheus.Registerer

	// Events, when set, is notified after every successful write.
	Events EventPublisher
}
