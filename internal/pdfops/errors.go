package pdfops

import (
	"errors"
	"fmt"
)

// Validation errors. Caused by caller input and reported back verbatim.
var (
	ErrEmptySpecification       = errors.New("empty page specification")
	ErrInvalidRangeSyntax       = errors.New("invalid range syntax")
	ErrRangeOutOfBounds         = errors.New("range out of bounds")
	ErrInvalidRangeOrder        = errors.New("invalid range order")
	ErrInvalidBatchSize         = errors.New("invalid batch size")
	ErrEmptyDocument            = errors.New("document has no pages")
	ErrPageIndexInvalid         = errors.New("page index invalid")
	ErrTooFewSources            = errors.New("too few sources")
	ErrTooManySources           = errors.New("too many sources")
	ErrPageSelectionOutOfBounds = errors.New("page selection out of bounds")
	ErrUnknownStrategy          = errors.New("unknown merge strategy")
)

// Internal consistency errors. These indicate a bug, not bad input.
var (
	ErrArchiveCollision      = errors.New("archive entry name collision")
	ErrPartitionInconsistent = errors.New("batch partition inconsistent")
)

// ErrUnreadableDocument is returned when the codec cannot parse an input.
var ErrUnreadableDocument = errors.New("unreadable document")

// Kind classifies an error for callers that need to pick a response status.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindInternal
	KindUnreadable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindInternal:
		return "internal"
	case KindUnreadable:
		return "unreadable_input"
	default:
		return "unknown"
	}
}

var validationErrors = []error{
	ErrEmptySpecification,
	ErrInvalidRangeSyntax,
	ErrRangeOutOfBounds,
	ErrInvalidRangeOrder,
	ErrInvalidBatchSize,
	ErrEmptyDocument,
	ErrPageIndexInvalid,
	ErrTooFewSources,
	ErrTooManySources,
	ErrPageSelectionOutOfBounds,
	ErrUnknownStrategy,
	ErrInvalidSelection,
}

// KindOf reports which class err belongs to.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return KindValidation
		}
	}
	if errors.Is(err, ErrUnreadableDocument) {
		return KindUnreadable
	}
	if errors.Is(err, ErrArchiveCollision) || errors.Is(err, ErrPartitionInconsistent) {
		return KindInternal
	}
	return KindUnknown
}

// Error carries the offending parameter and value alongside a sentinel.
// Valid describes the accepted range or format when it is known.
type Error struct {
	Op    string
	Param string
	Value string
	Valid string
	Err   error
}

func (e *Error) Error() string {
	msg := e.Err.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Param != "" {
		msg += fmt.Sprintf(" (%s=%q", e.Param, e.Value)
		if e.Valid != "" {
			msg += ", valid: " + e.Valid
		}
		msg += ")"
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func newError(op, param, value, valid string, err error) *Error {
	return &Error{Op: op, Param: param, Value: value, Valid: valid, Err: err}
}
