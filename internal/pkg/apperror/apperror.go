package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies failures of the RAG pipelines so transports can map them
// to a status code and batch jobs can decide whether to continue.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindUnauthorized
	KindValidation
	KindNotFound
	KindEmptyPayload
	KindNoTextExtracted
	KindProvider
	KindPersistence
	KindNoRelevantInformation
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "ConfigurationError"
	case KindUnauthorized:
		return "Unauthorized"
	case KindValidation:
		return "ValidationError"
	case KindNotFound:
		return "NotFound"
	case KindEmptyPayload:
		return "EmptyPayload"
	case KindNoTextExtracted:
		return "NoTextExtracted"
	case KindProvider:
		return "ProviderError"
	case KindPersistence:
		return "PersistenceError"
	case KindNoRelevantInformation:
		return "NoRelevantInformation"
	default:
		return "UnknownError"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrConfiguration         = &Error{Kind: KindConfiguration}
	ErrUnauthorized          = &Error{Kind: KindUnauthorized}
	ErrValidation            = &Error{Kind: KindValidation}
	ErrNotFound              = &Error{Kind: KindNotFound}
	ErrEmptyPayload          = &Error{Kind: KindEmptyPayload}
	ErrNoTextExtracted       = &Error{Kind: KindNoTextExtracted}
	ErrProvider              = &Error{Kind: KindProvider}
	ErrPersistence           = &Error{Kind: KindPersistence}
	ErrNoRelevantInformation = &Error{Kind: KindNoRelevantInformation}
)

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to err. A nil err yields nil.
func Wrap(kind Kind, err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the outermost *Error in the chain.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// Message returns the human readable message without the wrapped cause,
// falling back to err.Error().
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound, KindNoRelevantInformation:
		return http.StatusNotFound
	case KindEmptyPayload, KindNoTextExtracted:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
