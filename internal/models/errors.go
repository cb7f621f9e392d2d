package models

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type ErrorKind string

const (
	KindInputInvalid       ErrorKind = "INPUT_INVALID"
	KindTrackerUnavailable ErrorKind = "TRACKER_UNAVAILABLE"
	KindSessionStale       ErrorKind = "SESSION_STALE"
	KindMessageTooLarge    ErrorKind = "MESSAGE_TOO_LARGE"
	KindDownloaderFailure  ErrorKind = "DOWNLOADER_FAILURE"
)

// Sentinels for errors.Is; they match any *Error of the same kind.
var (
	ErrInputInvalid       = &Error{Kind: KindInputInvalid}
	ErrTrackerUnavailable = &Error{Kind: KindTrackerUnavailable}
	ErrSessionStale       = &Error{Kind: KindSessionStale}
	ErrMessageTooLarge    = &Error{Kind: KindMessageTooLarge}
	ErrDownloaderFailure  = &Error{Kind: KindDownloaderFailure}
)

type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func NewError(kind ErrorKind, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Err:     cause,
	}
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// KindOf returns the kind of the first *Error in the chain, or "" if none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Code classifies err the same way request and consumer logs do.
func Code(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	switch KindOf(err) {
	case KindInputInvalid:
		return codes.InvalidArgument
	case KindTrackerUnavailable, KindDownloaderFailure:
		return codes.Unavailable
	case KindSessionStale:
		return codes.FailedPrecondition
	case KindMessageTooLarge:
		return codes.ResourceExhausted
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return codes.DeadlineExceeded
	}
	if errors.Is(err, context.Canceled) {
		return codes.Canceled
	}
	st, ok := status.FromError(err)
	if !ok {
		return status.Code(errors.Unwrap(err))
	}
	return st.Code()
}
