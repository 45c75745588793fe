package notification

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a notification does not exist (any more).
	ErrNotFound = errors.New("notification not found")
	// ErrNotRecipient is returned when a user touches someone else's notification.
	ErrNotRecipient = errors.New("notification belongs to another user")
	// ErrNotDismissible is returned for kinds that are resolved by an action.
	ErrNotDismissible = errors.New("notification must be answered, not dismissed")
	// ErrEmptyMatch guards bulk operations against an unrestricted match.
	ErrEmptyMatch = errors.New("notification match has no criteria")
)

// Kind tags a notification record. The recipient and actor roles depend on it.
type Kind string

const (
	// BorrowRequested goes to the owner; actor is the requester.
	BorrowRequested Kind = "BorrowRequested"
	// ContactOwner goes to the owner after an accepted request; actor is the borrower.
	ContactOwner Kind = "ContactOwner"
	// ContactBorrower goes to the borrower after an accepted request; actor is the owner.
	ContactBorrower Kind = "ContactBorrower"
	// OwnerDeclined goes to the requester; actor is the owner.
	OwnerDeclined Kind = "OwnerDeclined"
	// EvaluateOwner asks the former borrower to review the owner.
	EvaluateOwner Kind = "EvaluateOwner"
	// EvaluateBorrower asks the owner to review the borrower.
	EvaluateBorrower Kind = "EvaluateBorrower"
	// LoanExpired goes to the owner once a loan is overdue; actor is the borrower.
	LoanExpired Kind = "LoanExpired"
	// BookAvailable goes to a wait-listed user; actor is the owner.
	BookAvailable Kind = "BookAvailable"
)

var allKinds = []Kind{
	BorrowRequested, ContactOwner, ContactBorrower, OwnerDeclined,
	EvaluateOwner, EvaluateBorrower, LoanExpired, BookAvailable,
}

// Kinds lists every known kind.
func Kinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

func (k Kind) Valid() bool {
	for _, known := range allKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Actionable reports whether the record is resolved by a recipient action
// (answer, return, review) rather than by dismissal.
func (k Kind) Actionable() bool {
	switch k {
	case BorrowRequested, LoanExpired, EvaluateOwner, EvaluateBorrower:
		return true
	}
	return false
}

// Dismissible reports whether the recipient may delete the record directly.
// Borrow requests and expired loans must be answered instead.
func (k Kind) Dismissible() bool {
	return k != BorrowRequested && k != LoanExpired
}

// IsEvaluation reports whether the kind prompts a review.
func (k Kind) IsEvaluation() bool {
	return k == EvaluateOwner || k == EvaluateBorrower
}

// Record is a stored notification. BookID becomes nil once the book is deleted;
// BookTitle is captured at creation time so the history stays readable.
type Record struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	RecipientID string    `json:"recipientId"`
	ActorID     string    `json:"actorId"`
	ActorName   string    `json:"actorName,omitempty"`
	BookID      *string   `json:"bookId"`
	BookTitle   string    `json:"bookTitle"`
	CreatedAt   time.Time `json:"arrivedAt"`
}

// RefersTo reports whether the record points at the given book.
func (r Record) RefersTo(bookID string) bool {
	return r.BookID != nil && *r.BookID == bookID
}

// Match selects notifications. Empty fields are wildcards; RecipientIn takes
// precedence over RecipientID.
type Match struct {
	BookID      string
	Kinds       []Kind
	RecipientID string
	RecipientIn []string
	ActorID     string
}

func (m Match) Empty() bool {
	return m.BookID == "" && len(m.Kinds) == 0 && m.RecipientID == "" &&
		len(m.RecipientIn) == 0 && m.ActorID == ""
}

// Matches evaluates the match against a record in memory.
func (m Match) Matches(r Record) bool {
	if m.BookID != "" && !r.RefersTo(m.BookID) {
		return false
	}
	if len(m.Kinds) > 0 && !containsKind(m.Kinds, r.Kind) {
		return false
	}
	if len(m.RecipientIn) > 0 {
		if !containsString(m.RecipientIn, r.RecipientID) {
			return false
		}
	} else if m.RecipientID != "" && m.RecipientID != r.RecipientID {
		return false
	}
	if m.ActorID != "" && m.ActorID != r.ActorID {
		return false
	}
	return true
}

func containsKind(kinds []Kind, k Kind) bool {
	for _, v := range kinds {
		if v == k {
			return true
		}
	}
	return false
}

func containsString(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
