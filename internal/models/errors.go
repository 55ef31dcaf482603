package models

import (
	"errors"
)

// Kind classifies failures surfaced to the user
type Kind string

const (
	KindPreconditionFailed Kind = "precondition_failed"
	KindRetryable          Kind = "retryable"
	KindFatal              Kind = "fatal"
	KindNoActiveSession    Kind = "no_active_session"
	KindMalformedResponse  Kind = "malformed_response"
	KindNotFound           Kind = "not_found"
	KindBusy               Kind = "busy"
)

// Error is a classified error. Op names the failing operation.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same kind and message, so sentinels work with errors.Is
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message && t.Message != ""
}

// NewError builds a classified error wrapping err
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

var (
	ErrNoAPIKey          = &Error{Kind: KindPreconditionFailed, Message: "Gemini API key is not configured. Add it in settings."}
	ErrNoImage           = &Error{Kind: KindPreconditionFailed, Message: "No image selected. Pick an image first."}
	ErrNoProductImages   = &Error{Kind: KindPreconditionFailed, Message: "Product has no images."}
	ErrNoListing         = &Error{Kind: KindPreconditionFailed, Message: "Generate a listing first."}
	ErrNoActiveSession   = &Error{Kind: KindNoActiveSession, Message: "No active chat session. Please start a new edit."}
	ErrSessionBusy       = &Error{Kind: KindBusy, Message: "Another request is already in progress."}
	ErrProductNotFound   = &Error{Kind: KindNotFound, Message: "Product not found."}
	ErrArtifactNotFound  = &Error{Kind: KindNotFound, Message: "Artifact not found."}
	ErrDuplicateProduct  = errors.New("product already exists")
	ErrInvalidImageIndex = errors.New("image index out of range")
)

// KindOf returns the kind of the first *Error in err's chain, or KindFatal for
// any other non-nil error.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindFatal
}
