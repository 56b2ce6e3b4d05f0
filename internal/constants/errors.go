package constants

import "errors"

// Configuration errors.
var (
	ErrNoWikiConfigured  = errors.New("no wiki URL configured, use --url or 'growi config set url <url>'")
	ErrNoTokenConfigured = errors.New("no access token configured, use --token, GROWI_TOKEN or 'growi config set token <token>'")
	ErrUnknownConfigKey  = errors.New("unknown configuration key")
	ErrInvalidOutput     = errors.New("invalid output format, expected table, json or yaml")
)

// Argument errors.
var (
	ErrPathOrIDRequired     = errors.New("a page path argument or --id is required")
	ErrPathAndIDExclusive   = errors.New("a page path argument and --id cannot be combined")
	ErrBodyRequired         = errors.New("page body is required, use --body or --file")
	ErrBodySourceConflict   = errors.New("--body and --file cannot be combined")
	ErrPathOrUserRequired   = errors.New("either a path prefix or --user is required")
	ErrPathAndUserExclusive = errors.New("a path prefix and --user cannot be combined")
	ErrBatchEntryInvalid    = errors.New("batch entry needs exactly one of path or id and one of body or file")
	ErrBatchFailed          = errors.New("one or more batch updates failed")
)

// File system errors.
var (
	ErrNotRegularFile = errors.New("path is not a regular file")
)
