package lending

import (
	"errors"
	"fmt"
	"strings"

	"booklend/internal/notification"
)

// ErrorKind classifies a failed operation.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindForbidden
	KindMissingPrecondition
	KindNotFound
	KindConflict
	KindDispatchFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindForbidden:
		return "FORBIDDEN"
	case KindMissingPrecondition:
		return "MISSING_PRECONDITION"
	case KindNotFound:
		return "NOT_FOUND"
	case KindConflict:
		return "CONFLICT"
	case KindDispatchFailure:
		return "DISPATCH_FAILED"
	}
	return "INTERNAL_ERROR"
}

// Error is a domain failure with a user-facing message.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

var (
	ErrMissingPostalCode    = newError(KindMissingPrecondition, "A postal code is required for books handed over by post")
	ErrAlreadyBorrowed      = newError(KindConflict, "Book is already borrowed")
	ErrNotBorrowed          = newError(KindConflict, "Book is not borrowed")
	ErrLoanExpired          = newError(KindConflict, "Loan has expired, answer the expiry notification instead")
	ErrAlreadyRequested     = newError(KindConflict, "You already asked to borrow this book")
	ErrNotificationNotFound = newError(KindNotFound, "Notification not found")
	ErrBookNotFound         = newError(KindNotFound, "Book not found")
	ErrUserNotFound         = newError(KindNotFound, "User not found")
	ErrNothingToCancel      = newError(KindNotFound, "No pending request for this book")
	ErrNotOwner             = newError(KindForbidden, "Only the owner can do this")
	ErrNotRecipient         = newError(KindForbidden, "Notification belongs to another user")
	ErrOwnBook              = newError(KindValidation, "You cannot borrow your own book")
	ErrInvalidScore         = newError(KindValidation, "Score must be between 0 and 5")
	ErrSelfReview           = newError(KindValidation, "You cannot review yourself")
	ErrWrongNotification    = newError(KindValidation, "Notification does not belong to this action")
)

// KindOf returns the kind of err, or 0 for errors outside the domain.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	var dispatchErr *DispatchError
	if errors.As(err, &dispatchErr) {
		return KindDispatchFailure
	}
	return 0
}

// DispatchError reports notifications that were stored but not delivered.
// The writes that preceded it are kept.
type DispatchError struct {
	Failed []notification.Record
}

func (e *DispatchError) Error() string {
	kinds := make([]string, len(e.Failed))
	for i, rec := range e.Failed {
		kinds[i] = string(rec.Kind)
	}
	return fmt.Sprintf("saved, but the push notification could not be delivered (%s)", strings.Join(kinds, ", "))
}
