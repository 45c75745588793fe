package lending

import (
	"context"

	"booklend/internal/notification"

	"go.uber.org/zap"
)

// Sweep checks every running loan against its length. Loans that reached
// MaxLoanDays get a LoanExpired notification for the owner; loans that ran
// DeletionGraceDays beyond that lose their book without any notification.
// Loans already flagged as expired are left for the owner to resolve.
//
// Undelivered LoanExpired alerts are reported as a DispatchError after the
// whole sweep ran; the stored notifications are kept.
func (e *Engine) Sweep(ctx context.Context) error {
	borrowed, err := e.books.ListBorrowed(ctx)
	if err != nil {
		return err
	}
	if len(borrowed) == 0 {
		return nil
	}
	flagged, err := e.notes.ListMatching(ctx, notification.Match{
		Kinds: []notification.Kind{notification.LoanExpired},
	})
	if err != nil {
		return err
	}
	alreadyExpired := make(map[string]struct{}, len(flagged))
	for _, rec := range flagged {
		if rec.BookID != nil {
			alreadyExpired[*rec.BookID] = struct{}{}
		}
	}

	today := e.today()
	out := e.newOutbox()
	for _, b := range borrowed {
		if _, ok := alreadyExpired[b.ID]; ok {
			continue
		}
		if b.BorrowedOn == nil || b.BorrowerID == nil {
			continue
		}
		days := elapsedDays(*b.BorrowedOn, today)
		switch {
		case days >= b.MaxLoanDays+DeletionGraceDays:
			if err := e.removeBook(ctx, b); err != nil {
				return err
			}
			e.logger.Info("abandoned loan removed",
				zap.String("book_id", b.ID),
				zap.String("owner_id", b.OwnerID),
				zap.Int("elapsed_days", days),
			)
		case days >= b.MaxLoanDays:
			if err := out.send(ctx, notification.LoanExpired, b.OwnerID, *b.BorrowerID, &b, ""); err != nil {
				return err
			}
		}
	}
	return out.err()
}
