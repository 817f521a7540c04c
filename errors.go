package snowql

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a Error by which stage of the query execution
// core produced it, following the taxonomy in spec.md §7.
type ErrorKind int

const (
	// KindConfig covers DSN parsing and HTTP client construction
	// failures, surfaced before any network I/O happens.
	KindConfig ErrorKind = iota
	// KindAuthentication covers login HTTP errors, a non-success
	// login envelope, or a missing/unparsable bearer token.
	KindAuthentication
	// KindExecution covers a non-success submission envelope, a
	// terminal non-success poll status, retry-policy-exhausting HTTP
	// errors, and deadline exhaustion.
	KindExecution
	// KindChunkLoad covers chunk HTTP errors, missing or invalid
	// encryption headers, and decompression failures.
	KindChunkLoad
	// KindDeserialization covers any envelope, cell, or schema that
	// could not be parsed.
	KindDeserialization
	// KindSerialization covers failures re-serializing a decoded
	// Value back to JSON for the JSONMapResult shape.
	KindSerialization
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindAuthentication:
		return "authentication"
	case KindExecution:
		return "execution"
	case KindChunkLoad:
		return "chunk_load"
	case KindDeserialization:
		return "deserialization"
	case KindSerialization:
		return "serialization"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by every exported operation
// in this package. It carries the ErrorKind, a human message, and the
// optional context a caller needs to locate the failure: the server's
// ErrorResult for execution failures, or a field/value pair for
// deserialization failures.
type Error struct {
	Kind    ErrorKind
	Message string
	// QueryDetail is populated when the server returned an
	// ErrorResult alongside an execution failure.
	QueryDetail *ErrorResult
	// Field and Value pinpoint the offending cell for deserialization
	// failures; both are empty otherwise.
	Field string
	Value string
	// Err is the underlying cause, if any (network error, JSON
	// decode error, etc.), unwrapped via errors.Unwrap.
	Err error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("snowql: %s: %s", e.Kind, e.Message)
	if e.Field != "" {
		msg += fmt.Sprintf(" (field=%q value=%q)", e.Field, e.Value)
	}
	if e.QueryDetail != nil {
		msg += fmt.Sprintf(" (query_id=%s error_code=%s)", e.QueryDetail.QueryID, e.QueryDetail.ErrorCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func newConfigError(format string, args ...any) *Error {
	return &Error{Kind: KindConfig, Message: fmt.Sprintf(format, args...)}
}

func newConfigErrorPlain(msg string) *Error {
	return &Error{Kind: KindConfig, Message: msg}
}

func newAuthError(msg string, err error) *Error {
	return &Error{Kind: KindAuthentication, Message: msg, Err: err}
}

func newExecutionError(msg string, detail *ErrorResult, err error) *Error {
	return &Error{Kind: KindExecution, Message: msg, QueryDetail: detail, Err: err}
}

func newChunkError(msg string, err error) *Error {
	return &Error{Kind: KindChunkLoad, Message: msg, Err: err}
}

func newDeserializationError(field, value string, err error) *Error {
	return &Error{Kind: KindDeserialization, Message: "failed to decode cell", Field: field, Value: value, Err: err}
}

func newSerializationError(err error) *Error {
	return &Error{Kind: KindSerialization, Message: "failed to re-serialize value to JSON", Err: err}
}

// Sentinel configuration errors, returned by ParseDSN before any
// network I/O is attempted.
var (
	errBadScheme     = errors.New(`dsn: scheme must be "snowflake"`)
	errEmptyUser     = errors.New("dsn: user is required")
	errEmptyPassword = errors.New("dsn: password is required")
	errEmptyAccount  = errors.New("dsn: account (host) is required")
)

// Sentinel cell-decoding errors.
var (
	errNullInNonNullableColumn = errors.New("null value in non-nullable column")
	errBadBooleanLiteral       = errors.New(`boolean literal must be "0" or "1"`)
	errBadTimestampTZLiteral   = errors.New("timestamp_tz literal must be \"<seconds> <offset>\"")
	errBadIntegerLiteral       = errors.New("invalid integer literal")
)

// Sentinel poll-loop errors, always wrapped with retryable() before
// being handed to the backoff loop.
var (
	errPollNoData      = errors.New("poll: query not yet visible (NoData)")
	errPollNotTerminal = errors.New("poll: query not yet in a terminal status")
)
