// Package mclerror defines the single closed error taxonomy shared by every
// component: configuration/precondition failures, credential state errors,
// transport failures, HTTP-status-mapped failures, and data-lake-specific
// failures. Every fallible library operation (everything except the demo
// CLI and its environment loader in internal/config) returns a
// *mclerror.Error (or nil) so callers can branch on Kind instead of parsing
// message text.
package mclerror

import (
	"errors"
	"fmt"
)

// Kind is a closed enumeration of result kinds. String-backed so log lines
// stay readable without a lookup table.
type Kind string

const (
	// Success / informational.
	OK             Kind = "ok"
	Created        Kind = "created"
	PartialContent Kind = "partial_content"

	// Precondition / configuration errors.
	TriggeredWithNull Kind = "triggered_with_null"
	InvalidParameter  Kind = "invalid_parameter"
	OutOfMemory       Kind = "out_of_memory"
	NoFileSupport     Kind = "no_file_support"
	InvalidLogLevel   Kind = "invalid_log_level"

	// Credential / processor state errors.
	NotOnboarded              Kind = "not_onboarded"
	AlreadyOnboarded          Kind = "already_onboarded"
	NoAccessTokenExists       Kind = "no_access_token_exists"
	NoAccessTokenProvided     Kind = "no_access_token_provided"
	CredentialsUpToDate       Kind = "credentials_up_to_date"
	CredentialsNotSaved       Kind = "credentials_not_saved"
	CredentialsNotLoaded      Kind = "credentials_not_loaded"
	CannotEnterCriticalSection Kind = "cannot_enter_critical_section"

	// Transport errors.
	CouldNotResolveProxy        Kind = "could_not_resolve_proxy"
	CouldNotResolveHost         Kind = "could_not_resolve_host"
	CouldNotConnect             Kind = "could_not_connect"
	SslHandshakeFail            Kind = "ssl_handshake_fail"
	NetworkSendFail             Kind = "network_send_fail"
	NetworkReceiveFail          Kind = "network_receive_fail"
	ServerCertificateNotVerified Kind = "server_certificate_not_verified"
	ImproperCertificate         Kind = "improper_certificate"
	RequestTimeout              Kind = "request_timeout"

	// HTTP-status-mapped errors.
	BadRequest            Kind = "bad_request"
	Unauthorized          Kind = "unauthorized"
	Forbidden             Kind = "forbidden"
	NotFound              Kind = "not_found"
	Conflict              Kind = "conflict"
	PreconditionFail      Kind = "precondition_fail"
	RequestPayloadTooLarge Kind = "request_payload_too_large"
	TooManyRequests       Kind = "too_many_requests"
	ServerFail            Kind = "server_fail"
	UnexpectedResultCode  Kind = "unexpected_result_code"

	// Data-lake-specific.
	SignedUrlGenerationFail Kind = "signed_url_generation_fail"

	// JSON facade.
	JsonNameDuplication Kind = "json_name_duplication"
	JsonTypeMismatch    Kind = "json_type_mismatch"
	BadContentEncoding  Kind = "bad_content_encoding"

	// Generic.
	Fail Kind = "fail"
)

// Error is the concrete error type carried across every component boundary.
type Error struct {
	Kind    Kind
	Message string
	// Status is the originating HTTP status code, when Kind came from the
	// HTTP-status mapping table. Zero when not applicable.
	Status int
	// Correlation is the Correlation-ID of the request that failed, when any.
	Correlation string
	// Body is the raw response body of the request that failed, when any.
	Body string
	// Err wraps the underlying cause, if any (e.g. a transport error).
	Err error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, mclerror.New(kind, "")) match on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New builds an *Error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an *Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error carrying an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// FromStatus maps an HTTP status code to its Kind per the fixed table in
// spec.md §7. Any 5xx code is ServerFail; every other code not in the table,
// including success codes other than 200/201/206, is UnexpectedResultCode.
func FromStatus(status int) Kind {
	switch status {
	case 200:
		return OK
	case 201:
		return Created
	case 206:
		return PartialContent
	case 400:
		return BadRequest
	case 401:
		return Unauthorized
	case 403:
		return Forbidden
	case 404:
		return NotFound
	case 409:
		return Conflict
	case 412:
		return PreconditionFail
	case 413:
		return RequestPayloadTooLarge
	case 429:
		return TooManyRequests
	}
	if status >= 500 && status < 600 {
		return ServerFail
	}
	return UnexpectedResultCode
}

// KindOf returns err's Kind when err is (or wraps) an *Error, or "" for any
// other error (including nil), so callers can branch on Kind without a
// type assertion at every call site.
func KindOf(err error) Kind {
	var merr *Error
	if errors.As(err, &merr) {
		return merr.Kind
	}
	return ""
}

// IsSuccess reports whether kind is one of the success/informational kinds.
func IsSuccess(kind Kind) bool {
	switch kind {
	case OK, Created, PartialContent:
		return true
	}
	return false
}

// FromHTTPStatus builds an *Error from a response status, correlation id, and
// raw body, unless the status maps to a success kind (in which case it
// returns nil).
func FromHTTPStatus(status int, correlationID, body string) *Error {
	kind := FromStatus(status)
	if IsSuccess(kind) {
		return nil
	}
	return &Error{
		Kind:        kind,
		Message:     fmt.Sprintf("unexpected response status %d", status),
		Status:      status,
		Correlation: correlationID,
		Body:        body,
	}
}
