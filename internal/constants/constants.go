package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second
)

// Retry defaults. Retries are off unless the caller asks for them.
const (
	// DefaultRetryMax is the number of retries when none is configured.
	DefaultRetryMax = 0

	// DefaultRetryWaitMin is the minimum wait between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Circuit breaker defaults.
const (
	// CircuitBreakerThreshold is consecutive failures before the breaker opens.
	CircuitBreakerThreshold = 5

	// CircuitBreakerTimeout is how long the breaker stays open.
	CircuitBreakerTimeout = 30 * time.Second
)

// Wire endpoints, relative to the wiki base URL.
const (
	APIPathPage          = "/_api/v3/page"
	APIPathPages         = "/_api/v3/pages"
	APIPathPagesRename   = "/_api/v3/pages/rename"
	APIPathPagesList     = "/_api/pages.list"
	APIPathPagesUpdate   = "/_api/pages.update"
	APIPathPageTags      = "/_api/pages.getPageTag"
	APIPathTagsList      = "/_api/tags.list"
	APIPathAttachmentAdd = "/_api/attachments.add"
)

// Query and form parameter names.
const (
	ParamAccessToken = "access_token"
)

// Listing.
const (
	// UnboundedListLimit is sent as the limit when the caller asks for every
	// result; omitting the parameter makes the server apply its own page size.
	UnboundedListLimit = 10000000000

	// DefaultTagListLimit is the page size the CLI uses for tag listings.
	DefaultTagListLimit = 50
)

// Misc.
const (
	// DefaultUserAgent is sent when the caller does not set one.
	DefaultUserAgent = "growi-go-client"

	// DefaultMIMEType is used when a file's type cannot be inferred.
	DefaultMIMEType = "application/octet-stream"

	// JSONIndentSize is the number of spaces for JSON indentation.
	JSONIndentSize = 2

	// MaxLoggedBodyBytes bounds how much of a body the debug log prints.
	MaxLoggedBodyBytes = 2048
)
