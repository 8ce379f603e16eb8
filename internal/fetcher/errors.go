package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// Kind discriminates the ways a backend operation can fail.
type Kind string

const (
	// KindValidation is local input rejected before any request was sent.
	KindValidation Kind = "validation"
	// KindTransport is a connection, timeout or cancellation failure.
	KindTransport Kind = "transport"
	// KindHTTP is a non-2xx response.
	KindHTTP Kind = "http"
	// KindDecode is a 2xx response whose body could not be decoded.
	KindDecode Kind = "decode"
	// KindUnsupported is a missing client capability (e.g. speech recognition).
	KindUnsupported Kind = "unsupported"
)

// Error is returned by every Client method.
type Error struct {
	Kind   Kind
	Op     string // ingest, reports, report, cve, voice_query
	Status int    // HTTP status for KindHTTP
	Detail string // backend "detail" field, or the validation message
	Err    error
}

func (e *Error) Error() string {
	return e.Op + ": " + e.Message()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message is the text shown to the user in a status line.
func (e *Error) Message() string {
	switch e.Kind {
	case KindHTTP:
		if e.Detail != "" {
			return e.Detail
		}
		return "HTTP " + strconv.Itoa(e.Status)
	case KindValidation, KindUnsupported:
		return e.Detail
	case KindTransport:
		if errors.Is(e.Err, context.DeadlineExceeded) {
			return "request timed out"
		}
		if errors.Is(e.Err, context.Canceled) {
			return "request cancelled"
		}
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind) + " error"
}

// Message returns the user facing text of any error, unwrapping *Error.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message()
	}
	return err.Error()
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// IsCancelled reports whether err comes from a cancelled context, which the
// dashboard uses for superseded requests.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}

func validation(op, msg string) *Error {
	return &Error{Kind: KindValidation, Op: op, Detail: msg}
}

func transport(op string, err error) *Error {
	return &Error{Kind: KindTransport, Op: op, Err: err}
}

func decode(op string, err error) *Error {
	return &Error{Kind: KindDecode, Op: op, Err: fmt.Errorf("unexpected response: %w", err)}
}
