package lending

import (
	"context"
	"errors"

	"booklend/internal/book"
	"booklend/internal/notification"
)

// RequestBorrow asks the owner to lend the book to the requester. The book
// itself is not touched: it stays available to everyone until the owner
// answers, and several requests may be pending at once.
func (e *Engine) RequestBorrow(ctx context.Context, requesterID, bookID string) error {
	b, err := e.getBook(ctx, bookID)
	if err != nil {
		return err
	}
	if b.IsOwnedBy(requesterID) {
		return ErrOwnBook
	}
	if b.IsBorrowed() {
		return ErrAlreadyBorrowed
	}
	if b.AcceptsPostal() {
		requester, err := e.getUser(ctx, requesterID)
		if err != nil {
			return err
		}
		if !requester.HasPostalCode() {
			return ErrMissingPostalCode
		}
	}
	pending, err := e.notes.ListMatching(ctx, notification.Match{
		BookID:  b.ID,
		Kinds:   []notification.Kind{notification.BorrowRequested},
		ActorID: requesterID,
	})
	if err != nil {
		return err
	}
	if len(pending) > 0 {
		return ErrAlreadyRequested
	}

	out := e.newOutbox()
	if err := out.send(ctx, notification.BorrowRequested, b.OwnerID, requesterID, &b, ""); err != nil {
		return err
	}
	if err := out.err(); err != nil {
		return err
	}
	// the request supersedes a plain availability subscription
	if _, err := e.waits.DeleteForUser(ctx, requesterID, b.ID); err != nil {
		return err
	}
	return nil
}

// AnswerBorrowRequest resolves a BorrowRequested notification addressed to
// the owner. Accepting lends the book to the requester and silently drops
// every other pending request and availability alert for it.
func (e *Engine) AnswerBorrowRequest(ctx context.Context, ownerID, bookID, notificationID string, accepted bool) error {
	rec, err := e.getNotification(ctx, notificationID)
	if err != nil {
		return err
	}
	if rec.Kind != notification.BorrowRequested || !rec.RefersTo(bookID) {
		return ErrWrongNotification
	}
	if rec.RecipientID != ownerID {
		return ErrNotRecipient
	}
	b, err := e.getBook(ctx, bookID)
	if err != nil {
		return err
	}
	if accepted && b.IsBorrowed() {
		return ErrAlreadyBorrowed
	}
	requesterID := rec.ActorID

	if err := e.consume(ctx, rec.ID); err != nil {
		return err
	}

	out := e.newOutbox()
	if !accepted {
		if err := out.send(ctx, notification.OwnerDeclined, requesterID, ownerID, &b, ""); err != nil {
			return err
		}
		return out.err()
	}

	if err := e.books.SetBorrower(ctx, b.ID, requesterID, e.today()); err != nil {
		if errors.Is(err, book.ErrAlreadyBorrowed) {
			return ErrAlreadyBorrowed
		}
		return err
	}
	if _, err := e.notes.DeleteMatching(ctx, notification.Match{
		BookID: b.ID,
		Kinds:  []notification.Kind{notification.BorrowRequested, notification.BookAvailable},
	}); err != nil {
		return err
	}
	if err := out.send(ctx, notification.ContactBorrower, requesterID, ownerID, &b, ""); err != nil {
		return err
	}
	if err := out.send(ctx, notification.ContactOwner, ownerID, requesterID, &b, ""); err != nil {
		return err
	}
	return out.err()
}

// RequestAvailabilityNotice subscribes the user to a BookAvailable alert.
// Repeated calls add repeated entries.
func (e *Engine) RequestAvailabilityNotice(ctx context.Context, userID, bookID string) error {
	b, err := e.getBook(ctx, bookID)
	if err != nil {
		return err
	}
	_, err = e.waits.Add(ctx, userID, b.ID)
	return err
}

// CancelRequest withdraws the user's wait-list subscription for the book,
// together with any alert already sent for it, or else their pending borrow
// request.
func (e *Engine) CancelRequest(ctx context.Context, userID, bookID string) error {
	removed, err := e.waits.DeleteForUser(ctx, userID, bookID)
	if err != nil {
		return err
	}
	if removed > 0 {
		_, err := e.notes.DeleteMatching(ctx, notification.Match{
			BookID:      bookID,
			Kinds:       []notification.Kind{notification.BookAvailable},
			RecipientID: userID,
		})
		return err
	}

	removed, err = e.notes.DeleteMatching(ctx, notification.Match{
		BookID:  bookID,
		Kinds:   []notification.Kind{notification.BorrowRequested},
		ActorID: userID,
	})
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrNothingToCancel
	}
	return nil
}
