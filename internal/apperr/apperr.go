// Package apperr defines the value-level failure taxonomy shared by the
// entity managers and the HTTP boundary. Every error carries a kind plus the
// entity or field it concerns, so handlers can map them to responses without
// string matching.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindMissingRequiredValue
	KindBelowMinimumLength
	KindAboveMaximumLength
	KindAlreadyExists
	KindNotFound
	KindInvalidDateRange
	KindTimeConflict
	KindInvalidValueType
	KindInvalidValueLength
	// KindStoreDesync signals a cache/store mismatch (delete affected an
	// unexpected row count after a confirmed existence check). Unrecoverable
	// for the operation; never swallowed.
	KindStoreDesync
)

func (k Kind) String() string {
	switch k {
	case KindMissingRequiredValue:
		return "missing required value"
	case KindBelowMinimumLength:
		return "below minimum length"
	case KindAboveMaximumLength:
		return "above maximum length"
	case KindAlreadyExists:
		return "already exists"
	case KindNotFound:
		return "not found"
	case KindInvalidDateRange:
		return "invalid date range"
	case KindTimeConflict:
		return "time conflict"
	case KindInvalidValueType:
		return "invalid value type"
	case KindInvalidValueLength:
		return "invalid value length"
	case KindStoreDesync:
		return "store desync"
	default:
		return "unknown error"
	}
}

type Error struct {
	Kind   Kind
	Entity string // entity kind ("lecturer", "user", "tag") where relevant
	Field  string // offending field where relevant
	Detail string
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Entity != "" {
		msg = e.Entity + " " + msg
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s: field %q", msg, e.Field)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is matches by kind, and by entity/field when the target sets them. This
// lets tests compare against bare kinds like apperr.NotFound("").
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	if t.Entity != "" && t.Entity != e.Entity {
		return false
	}
	if t.Field != "" && t.Field != e.Field {
		return false
	}
	return true
}

// KindOf extracts the kind from err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func MissingRequiredValue(field string) *Error {
	return &Error{Kind: KindMissingRequiredValue, Field: field}
}

func BelowMinimumLength(field string) *Error {
	return &Error{Kind: KindBelowMinimumLength, Field: field}
}

func AboveMaximumLength(field string) *Error {
	return &Error{Kind: KindAboveMaximumLength, Field: field}
}

func AlreadyExists(entity string) *Error {
	return &Error{Kind: KindAlreadyExists, Entity: entity}
}

func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Entity: entity}
}

func InvalidDateRange() *Error {
	return &Error{Kind: KindInvalidDateRange, Detail: "end must be after start"}
}

func TimeConflict() *Error {
	return &Error{Kind: KindTimeConflict, Detail: "overlaps an existing appointment"}
}

func InvalidValueType(field, want string) *Error {
	return &Error{Kind: KindInvalidValueType, Field: field, Detail: "expected " + want}
}

func InvalidValueLength(field string, max int) *Error {
	return &Error{Kind: KindInvalidValueLength, Field: field, Detail: fmt.Sprintf("at most %d characters", max)}
}

func StoreDesync(entity string) *Error {
	return &Error{Kind: KindStoreDesync, Entity: entity, Detail: "store row count does not match cached state"}
}
