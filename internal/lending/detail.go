package lending

import (
	"context"
	"time"

	"booklend/internal/book"
	"booklend/internal/eligibility"
	"booklend/internal/notification"
)

// Detail is a book as seen by one viewer.
type Detail struct {
	book.Book
	MyBook                 bool       `json:"myBook"`
	Borrowing              bool       `json:"borrowing"`
	Requesting             bool       `json:"requesting"`
	RequestingNotification bool       `json:"requestingNotification"`
	DueOn                  *time.Time `json:"dueOn,omitempty"`
}

// Detail loads the book with the viewer's relation to it. Age-restricted
// books are reported as missing to minors.
func (e *Engine) Detail(ctx context.Context, viewerID, bookID string) (Detail, error) {
	b, err := e.getBook(ctx, bookID)
	if err != nil {
		return Detail{}, err
	}
	viewer, err := e.getUser(ctx, viewerID)
	if err != nil {
		return Detail{}, err
	}
	if !b.IsOwnedBy(viewerID) && !eligibility.Visible(b, eligibility.Age(viewer.BirthDate, e.clock.Now())) {
		return Detail{}, ErrBookNotFound
	}

	d := Detail{
		Book:      b,
		MyBook:    b.IsOwnedBy(viewerID),
		Borrowing: b.IsBorrowedBy(viewerID),
	}
	if b.BorrowedOn != nil {
		due := dateOf(*b.BorrowedOn).AddDate(0, 0, b.MaxLoanDays)
		d.DueOn = &due
	}

	pending, err := e.notes.ListMatching(ctx, notification.Match{
		BookID:  b.ID,
		Kinds:   []notification.Kind{notification.BorrowRequested},
		ActorID: viewerID,
	})
	if err != nil {
		return Detail{}, err
	}
	d.Requesting = len(pending) > 0

	entries, err := e.waits.ListByBook(ctx, b.ID)
	if err != nil {
		return Detail{}, err
	}
	for _, entry := range entries {
		if entry.UserID == viewerID {
			d.RequestingNotification = true
			break
		}
	}
	return d, nil
}

// ViewerAge returns the age used for eligibility checks.
func (e *Engine) ViewerAge(ctx context.Context, viewerID string) (int, error) {
	viewer, err := e.getUser(ctx, viewerID)
	if err != nil {
		return 0, err
	}
	return eligibility.Age(viewer.BirthDate, e.clock.Now()), nil
}
