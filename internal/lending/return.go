package lending

import (
	"context"
	"errors"

	"booklend/internal/book"
	"booklend/internal/notification"

	"go.uber.org/zap"
)

// ReturnVoluntarily is the owner closing a running loan. The owner is always
// asked to evaluate the borrower. When returned is true the book becomes
// available again and the wait-list is alerted; when false the loan is left
// as it is.
func (e *Engine) ReturnVoluntarily(ctx context.Context, ownerID, bookID string, returned bool) error {
	b, err := e.getBook(ctx, bookID)
	if err != nil {
		return err
	}
	if !b.IsOwnedBy(ownerID) {
		return ErrNotOwner
	}
	if !b.IsBorrowed() {
		return ErrNotBorrowed
	}
	expired, err := e.notes.ListMatching(ctx, notification.Match{
		BookID: b.ID,
		Kinds:  []notification.Kind{notification.LoanExpired},
	})
	if err != nil {
		return err
	}
	if len(expired) > 0 {
		return ErrLoanExpired
	}
	borrowerID := *b.BorrowerID

	out := e.newOutbox()
	if err := out.send(ctx, notification.EvaluateBorrower, b.OwnerID, borrowerID, &b, ""); err != nil {
		return err
	}
	if returned {
		if err := e.completeReturn(ctx, out, b, borrowerID); err != nil {
			return err
		}
	}
	return out.err()
}

// ResolveExpiredLoan answers a LoanExpired notification. With returned the
// loan closes like a voluntary return; without it the book is presumed lost
// and deleted, and only the owner's evaluation prompt survives it.
func (e *Engine) ResolveExpiredLoan(ctx context.Context, ownerID, bookID, notificationID string, returned bool) error {
	rec, err := e.getNotification(ctx, notificationID)
	if err != nil {
		return err
	}
	if rec.Kind != notification.LoanExpired || !rec.RefersTo(bookID) {
		return ErrWrongNotification
	}
	if rec.RecipientID != ownerID {
		return ErrNotRecipient
	}
	b, err := e.getBook(ctx, bookID)
	if err != nil {
		return err
	}
	if !b.IsOwnedBy(ownerID) {
		return ErrNotOwner
	}
	borrowerID := rec.ActorID
	if b.BorrowerID != nil {
		borrowerID = *b.BorrowerID
	}

	if err := e.consume(ctx, rec.ID); err != nil {
		return err
	}
	// Overlapping sweeps may have flagged the same loan twice.
	if _, err := e.notes.DeleteMatching(ctx, notification.Match{
		BookID: b.ID,
		Kinds:  []notification.Kind{notification.LoanExpired},
	}); err != nil {
		return err
	}

	out := e.newOutbox()
	if returned {
		if err := out.send(ctx, notification.EvaluateBorrower, b.OwnerID, borrowerID, &b, ""); err != nil {
			return err
		}
		if err := e.completeReturn(ctx, out, b, borrowerID); err != nil {
			return err
		}
		return out.err()
	}

	if err := e.deleteContacts(ctx, b, borrowerID); err != nil {
		return err
	}
	if err := e.removeBook(ctx, b); err != nil {
		return err
	}
	if err := out.send(ctx, notification.EvaluateBorrower, b.OwnerID, borrowerID, nil, b.Title); err != nil {
		return err
	}
	return out.err()
}

// completeReturn frees the book, closes the hand-over conversation and fans
// out the evaluation prompt and availability alerts. Wait-list entries stay.
func (e *Engine) completeReturn(ctx context.Context, out *outbox, b book.Book, borrowerID string) error {
	if err := e.books.ClearBorrower(ctx, b.ID); err != nil {
		if errors.Is(err, book.ErrNotFound) {
			return ErrBookNotFound
		}
		return err
	}
	if err := e.deleteContacts(ctx, b, borrowerID); err != nil {
		return err
	}
	if err := out.send(ctx, notification.EvaluateOwner, borrowerID, b.OwnerID, &b, ""); err != nil {
		return err
	}
	entries, err := e.waits.ListByBook(ctx, b.ID)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := out.send(ctx, notification.BookAvailable, entry.UserID, b.OwnerID, &b, ""); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) deleteContacts(ctx context.Context, b book.Book, borrowerID string) error {
	_, err := e.notes.DeleteMatching(ctx, notification.Match{
		BookID:      b.ID,
		Kinds:       []notification.Kind{notification.ContactOwner, notification.ContactBorrower},
		RecipientIn: []string{b.OwnerID, borrowerID},
	})
	return err
}

// removeBook deletes the row and then its cover. A cover that cannot be
// removed is logged; the book is gone either way.
func (e *Engine) removeBook(ctx context.Context, b book.Book) error {
	if err := e.books.Delete(ctx, b.ID); err != nil && !errors.Is(err, book.ErrNotFound) {
		return err
	}
	if err := e.covers.Delete(b.ID); err != nil {
		e.logger.Warn("cover cleanup failed", zap.String("book_id", b.ID), zap.Error(err))
	}
	return nil
}
