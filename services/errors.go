package services

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failed coordinator operation. The HTTP layer maps kinds
// to status codes.
type Kind int

const (
	KindValidationFailed Kind = iota + 1
	KindReferenceNotFound
	KindInvalidState
	KindConflict
	KindNotFound
	KindStoreError
)

func (k Kind) String() string {
	switch k {
	case KindValidationFailed:
		return "ValidationFailed"
	case KindReferenceNotFound:
		return "ReferenceNotFound"
	case KindInvalidState:
		return "InvalidState"
	case KindConflict:
		return "Conflict"
	case KindNotFound:
		return "NotFound"
	case KindStoreError:
		return "StoreError"
	}
	return "Unknown"
}

// Error is the typed failure returned by every Coordinator operation.
// Entity names what the failure refers to ("task", "user", "email", ...).
type Error struct {
	Kind    Kind
	Entity  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind carried by err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func validationFailed(message string) error {
	return &Error{Kind: KindValidationFailed, Message: message}
}

func referenceNotFound(entity, id string) error {
	return &Error{Kind: KindReferenceNotFound, Entity: entity, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

func invalidState(entity, message string) error {
	return &Error{Kind: KindInvalidState, Entity: entity, Message: message}
}

func conflict(entity, message string) error {
	return &Error{Kind: KindConflict, Entity: entity, Message: message}
}

func notFound(entity string) error {
	return &Error{Kind: KindNotFound, Entity: entity, Message: strings.ToUpper(entity[:1]) + entity[1:] + " not found"}
}

func storeError(message string, err error) error {
	return &Error{Kind: KindStoreError, Message: message, Err: err}
}
