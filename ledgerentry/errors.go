package ledgerentry

import (
	"errors"
	"fmt"
)

// Kind is the stable error identifier reported in the "error" field.
type Kind string

const (
	KindMalformedRequest     Kind = "malformedRequest"
	KindMalformedAddress     Kind = "malformedAddress"
	KindMalformedOwner       Kind = "malformedOwner"
	KindMalformedAuthorized  Kind = "malformedAuthorized"
	KindMalformedCurrency    Kind = "malformedCurrency"
	KindMalformedDocumentID  Kind = "malformedDocumentID"
	KindEntryNotFound        Kind = "entryNotFound"
	KindUnexpectedLedgerType Kind = "unexpectedLedgerType"
	KindUnknownOption        Kind = "unknownOption"
	KindInvalidParams        Kind = "invalidParams"
	KindLedgerNotFound       Kind = "lgrNotFound"
)

// ErrStructural marks a request whose shape could not be read at all, as
// opposed to one that was read and found invalid.
var ErrStructural = errors.New("ledgerentry: structural request error")

// errNoShape is reported by the classifier when no known field is present.
// The version policy turns it into unknownOption or invalidParams.
var errNoShape = errors.New("ledgerentry: no recognized request shape")

// Error is a request error reported to the caller.
//
// Message is for humans and logs; callers branch on Kind.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, cause error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func malformed(format string, args ...any) error {
	return newError(KindMalformedRequest, format, args...)
}

func structural(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrStructural}, args...)...)
}

// IsKind reports whether err is (or wraps) an *Error with the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// KindOf extracts the kind of a request error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Kind, true
}
