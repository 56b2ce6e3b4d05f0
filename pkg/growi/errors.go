package growi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind is the closed set of failure classes every operation maps to.
type ErrorKind int

const (
	// KindUnknown covers statuses outside the table below; the raw status and body are kept.
	KindUnknown ErrorKind = iota
	// KindInvalidArgument is a caller error detected before any network call.
	KindInvalidArgument
	// KindNotFound is an HTTP 404 or a lookup that returned no page.
	KindNotFound
	// KindAlreadyExists is an HTTP 400 carrying the page-exists marker.
	KindAlreadyExists
	// KindBadRequest is any other HTTP 400.
	KindBadRequest
	// KindUnauthorized is an HTTP 401 or 403.
	KindUnauthorized
	// KindOperationFailed is a 2xx response whose ok flag is false.
	KindOperationFailed
	// KindServerError is an HTTP 5xx.
	KindServerError
	// KindUnreachable is a transport failure with no response.
	KindUnreachable
)

var kindNames = map[ErrorKind]string{
	KindUnknown:         "unknown",
	KindInvalidArgument: "invalid argument",
	KindNotFound:        "not found",
	KindAlreadyExists:   "already exists",
	KindBadRequest:      "bad request",
	KindUnauthorized:    "unauthorized",
	KindOperationFailed: "operation failed",
	KindServerError:     "server error",
	KindUnreachable:     "unreachable",
}

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("kind(%d)", int(k))
}

// Label returns the kind as a metric/log friendly token, e.g. "not_found".
func (k ErrorKind) Label() string {
	return strings.ReplaceAll(k.String(), " ", "_")
}

// Static errors for err113 compliance.
var (
	ErrPageRefEmpty       = errors.New("either page path or page id is required")
	ErrPageRefAmbiguous   = errors.New("specify either page path or page id, not both")
	ErrPathRequired       = errors.New("page path is required")
	ErrNewPathRequired    = errors.New("new page path is required")
	ErrUserRequired       = errors.New("user name is required")
	ErrRequestRequired    = errors.New("mutation request is required")
	ErrPayloadRequired    = errors.New("attachment payload is required")
	ErrFileNameRequired   = errors.New("attachment file name is required")
	ErrBaseURLRequired    = errors.New("base URL is required")
	ErrConfigRequired     = errors.New("config is required")
	ErrAccessTokenBlank   = errors.New("access token is blank")
	ErrMissingPageInReply = errors.New("response did not contain a page")
	ErrMissingAttachment  = errors.New("response did not contain an attachment")
	ErrNotConfirmed       = errors.New("response did not confirm success")
)

// Error is the failure value returned by every client operation.
type Error struct {
	Kind       ErrorKind
	Op         string
	StatusCode int
	Body       string
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString("growi")

	if e.Op != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Op)
	}

	sb.WriteString(": ")
	sb.WriteString(e.Kind.String())

	if e.StatusCode != 0 {
		fmt.Fprintf(&sb, " (status %d)", e.StatusCode)
	}

	switch {
	case e.Message != "":
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	case e.Err != nil:
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}

	return sb.String()
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Classify maps an HTTP status and raw body to an *Error, or nil when the
// response is a success. A 2xx body that carries "ok": false is a failure.
func Classify(op string, statusCode int, body []byte) *Error {
	kind, failed := classifyStatus(statusCode, body)
	if !failed {
		return nil
	}

	return &Error{
		Kind:       kind,
		Op:         op,
		StatusCode: statusCode,
		Body:       string(body),
		Message:    extractMessage(body),
	}
}

func classifyStatus(statusCode int, body []byte) (ErrorKind, bool) {
	switch {
	case statusCode >= 200 && statusCode < 300:
		if ok, present := okFlag(body); present && !ok {
			return KindOperationFailed, true
		}

		return KindUnknown, false
	case statusCode == http.StatusNotFound:
		return KindNotFound, true
	case statusCode == http.StatusBadRequest:
		if hasExistsMarker(body) {
			return KindAlreadyExists, true
		}

		return KindBadRequest, true
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		return KindUnauthorized, true
	case statusCode >= 500 && statusCode < 600:
		return KindServerError, true
	default:
		return KindUnknown, true
	}
}

// NewInvalidArgument reports a caller error. No request has been sent.
func NewInvalidArgument(op string, cause error) *Error {
	return &Error{Kind: KindInvalidArgument, Op: op, Err: cause}
}

// NewUnreachable reports a transport failure: no response was received.
func NewUnreachable(op string, cause error) *Error {
	return &Error{Kind: KindUnreachable, Op: op, Err: cause}
}

// NewOperationFailed reports a 2xx response that did not confirm success.
func NewOperationFailed(op string, statusCode int, body []byte, cause error) *Error {
	return &Error{
		Kind:       KindOperationFailed,
		Op:         op,
		StatusCode: statusCode,
		Body:       string(body),
		Message:    extractMessage(body),
		Err:        cause,
	}
}

// NewNotFound reports a lookup that succeeded on the wire but found nothing.
// StatusCode is 404, the same as a server-side not-found reply; Body keeps
// the reply as received.
func NewNotFound(op string, body []byte) *Error {
	return &Error{
		Kind:       KindNotFound,
		Op:         op,
		StatusCode: http.StatusNotFound,
		Body:       string(body),
		Err:        ErrMissingPageInReply,
	}
}

// NewDecodeError reports a success response whose body could not be understood.
func NewDecodeError(op string, statusCode int, body []byte, cause error) *Error {
	return &Error{
		Kind:       KindUnknown,
		Op:         op,
		StatusCode: statusCode,
		Body:       string(body),
		Err:        cause,
	}
}

// KindOf returns the kind carried by err, or KindUnknown if err is not an *Error.
func KindOf(err error) ErrorKind {
	apiErr := &Error{}
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}

	return KindUnknown
}

// StatusCodeOf returns the HTTP status carried by err, or 0.
func StatusCodeOf(err error) int {
	apiErr := &Error{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}

	return 0
}

func isKind(err error, kind ErrorKind) bool {
	apiErr := &Error{}

	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

// IsInvalidArgument checks if the error is a caller error.
func IsInvalidArgument(err error) bool { return isKind(err, KindInvalidArgument) }

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool { return isKind(err, KindNotFound) }

// IsAlreadyExists checks if the error reports an existing page.
func IsAlreadyExists(err error) bool { return isKind(err, KindAlreadyExists) }

// IsBadRequest checks if the error is a generic bad request.
func IsBadRequest(err error) bool { return isKind(err, KindBadRequest) }

// IsUnauthorized checks if the error is an unauthorized error.
func IsUnauthorized(err error) bool { return isKind(err, KindUnauthorized) }

// IsOperationFailed checks if the server accepted the request but reported failure.
func IsOperationFailed(err error) bool { return isKind(err, KindOperationFailed) }

// IsServerError checks if the error is a 5xx.
func IsServerError(err error) bool { return isKind(err, KindServerError) }

// IsUnreachable checks if the error is a transport failure.
func IsUnreachable(err error) bool { return isKind(err, KindUnreachable) }

// IsConflict reports whether a write was rejected because the revision it
// carried is no longer current. The caller decides whether to re-resolve and retry.
func IsConflict(err error) bool {
	apiErr := &Error{}
	if !errors.As(err, &apiErr) {
		return false
	}

	if apiErr.StatusCode == http.StatusConflict {
		return true
	}

	if apiErr.Kind != KindOperationFailed && apiErr.Kind != KindBadRequest {
		return false
	}

	text := strings.ToLower(apiErr.Message + " " + apiErr.Body)

	return strings.Contains(text, "outdated") || strings.Contains(text, "conflict")
}

// okFlag reports the value of a top-level "ok" field and whether it was present.
func okFlag(body []byte) (bool, bool) {
	var envelope struct {
		OK *bool `json:"ok"`
	}

	if json.Unmarshal(body, &envelope) != nil || envelope.OK == nil {
		return false, false
	}

	return *envelope.OK, true
}

var existsMarkers = []string{"already_exists", "already exists", "page exists", "alreadyexists"}

func hasExistsMarker(body []byte) bool {
	text := strings.ToLower(string(body))
	for _, marker := range existsMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}

	return false
}

// extractMessage pulls a human readable message out of either the legacy
// {"ok":false,"error":"..."} shape or the v3 {"errors":[{"message":"..."}]} shape.
func extractMessage(body []byte) string {
	var envelope struct {
		Error  json.RawMessage `json:"error"`
		Errors []struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"errors"`
	}

	if json.Unmarshal(body, &envelope) != nil {
		return ""
	}

	if len(envelope.Errors) > 0 {
		msgs := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			switch {
			case e.Message != "":
				msgs = append(msgs, e.Message)
			case e.Code != "":
				msgs = append(msgs, e.Code)
			}
		}

		return strings.Join(msgs, "; ")
	}

	if len(envelope.Error) == 0 {
		return ""
	}

	var text string
	if json.Unmarshal(envelope.Error, &text) == nil {
		return text
	}

	var nested struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(envelope.Error, &nested) == nil {
		return nested.Message
	}

	return ""
}
