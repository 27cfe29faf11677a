package utils

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrorKind is the machine-readable category of a failure.
type ErrorKind string

const (
	KindInvalidCoordinate   ErrorKind = "INVALID_COORDINATE"
	KindInvalidRideState    ErrorKind = "INVALID_RIDE_STATE"
	KindNoSeatsAvailable    ErrorKind = "NO_SEATS_AVAILABLE"
	KindInvalidParticipant  ErrorKind = "INVALID_PARTICIPANT"
	KindConflict            ErrorKind = "CONFLICT"
	KindProviderUnavailable ErrorKind = "PROVIDER_UNAVAILABLE"
	KindNotFound            ErrorKind = "NOT_FOUND"
	KindValidation          ErrorKind = "VALIDATION_ERROR"
	KindDuplicate           ErrorKind = "DUPLICATE"
	KindForbidden           ErrorKind = "FORBIDDEN"
	KindInternal            ErrorKind = "INTERNAL_ERROR"
)

// AppError carries a kind plus context such as the ride id or the attempted transition.
type AppError struct {
	Kind    ErrorKind
	Message string
	Context map[string]string
	Err     error
}

// Sentinels for errors.Is. Matching compares kinds only.
var (
	ErrInvalidCoordinate   = &AppError{Kind: KindInvalidCoordinate, Message: "invalid coordinate"}
	ErrInvalidRideState    = &AppError{Kind: KindInvalidRideState, Message: "invalid ride state"}
	ErrNoSeatsAvailable    = &AppError{Kind: KindNoSeatsAvailable, Message: "no seats available"}
	ErrInvalidParticipant  = &AppError{Kind: KindInvalidParticipant, Message: "invalid participant"}
	ErrConflict            = &AppError{Kind: KindConflict, Message: "concurrent update conflict"}
	ErrProviderUnavailable = &AppError{Kind: KindProviderUnavailable, Message: "provider unavailable"}
	ErrNotFound            = &AppError{Kind: KindNotFound, Message: "not found"}
	ErrValidation          = &AppError{Kind: KindValidation, Message: "validation failed"}
	ErrDuplicate           = &AppError{Kind: KindDuplicate, Message: "already exists"}
	ErrForbidden           = &AppError{Kind: KindForbidden, Message: "forbidden"}
)

func NewError(kind ErrorKind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

func WrapError(kind ErrorKind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%s=%s", k, e.Context[k])
		}
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// With returns a copy of e with key=value added to its context.
func (e *AppError) With(key, value string) *AppError {
	ctx := make(map[string]string, len(e.Context)+1)
	for k, v := range e.Context {
		ctx[k] = v
	}
	ctx[key] = value
	return &AppError{Kind: e.Kind, Message: e.Message, Context: ctx, Err: e.Err}
}

// KindOf returns the kind of the first AppError in err's chain, or KindInternal.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// ContextOf returns the context of the first AppError in err's chain.
func ContextOf(err error) map[string]string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Context
	}
	return nil
}

// IsRetryable reports whether the caller may re-read and retry the operation.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindConflict, KindProviderUnavailable:
		return true
	default:
		return false
	}
}

func HTTPStatus(kind ErrorKind) int {
	switch kind {
	case KindInvalidCoordinate, KindInvalidParticipant, KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidRideState, KindNoSeatsAvailable, KindConflict, KindDuplicate:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindProviderUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
