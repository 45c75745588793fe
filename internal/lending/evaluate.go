package lending

import (
	"context"
	"errors"

	"booklend/internal/notification"
	"booklend/internal/review"
)

// Review is a submitted evaluation of the other party of a finished loan.
type Review struct {
	AuthorID       string
	SubjectID      string
	NotificationID string
	Score          float64
	Content        *string
}

// SubmitReview stores the review, refreshes the subject's average and then
// removes the EvaluateOwner/EvaluateBorrower prompt it answers. It returns
// the subject's new average.
func (e *Engine) SubmitReview(ctx context.Context, in Review) (*float64, error) {
	if !review.ValidScore(in.Score) {
		return nil, ErrInvalidScore
	}
	if in.AuthorID == in.SubjectID {
		return nil, ErrSelfReview
	}
	rec, err := e.getNotification(ctx, in.NotificationID)
	if err != nil {
		return nil, err
	}
	if !rec.Kind.IsEvaluation() || rec.ActorID != in.SubjectID {
		return nil, ErrWrongNotification
	}
	if rec.RecipientID != in.AuthorID {
		return nil, ErrNotRecipient
	}

	avg, err := e.ledger.Record(ctx, &review.Review{
		AuthorID:  in.AuthorID,
		SubjectID: in.SubjectID,
		Score:     in.Score,
		Content:   in.Content,
	})
	switch {
	case errors.Is(err, review.ErrSubjectNotFound):
		return nil, ErrUserNotFound
	case errors.Is(err, review.ErrInvalidScore):
		return nil, ErrInvalidScore
	case errors.Is(err, review.ErrSelfReview):
		return nil, ErrSelfReview
	case err != nil:
		return nil, err
	}

	// a concurrent submission may have consumed the prompt already
	if err := e.notes.Delete(ctx, rec.ID); err != nil && !errors.Is(err, notification.ErrNotFound) {
		return nil, err
	}
	return avg, nil
}
