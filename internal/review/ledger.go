package review

import (
	"context"
	"errors"
	"strings"

	"booklend/internal/user"
)

// Ledger appends reviews and keeps every subject's average in sync.
type Ledger struct {
	repo   Repository
	scores ScoreStore
}

func NewLedger(repo Repository, scores ScoreStore) *Ledger {
	return &Ledger{repo: repo, scores: scores}
}

// Mean is sum/count, or nil when there is nothing to average.
func Mean(sum float64, count int) *float64 {
	if count == 0 {
		return nil
	}
	avg := sum / float64(count)
	return &avg
}

// Record stores the review and returns the subject's new average.
func (l *Ledger) Record(ctx context.Context, r *Review) (*float64, error) {
	if !ValidScore(r.Score) {
		return nil, ErrInvalidScore
	}
	if r.AuthorID == r.SubjectID {
		return nil, ErrSelfReview
	}
	if r.Content != nil {
		trimmed := strings.TrimSpace(*r.Content)
		if trimmed == "" {
			r.Content = nil
		} else {
			r.Content = &trimmed
		}
	}

	if err := l.repo.Insert(ctx, r); err != nil {
		return nil, err
	}
	sum, count, err := l.repo.Totals(ctx, r.SubjectID)
	if err != nil {
		return nil, err
	}
	avg := Mean(sum, count)
	if err := l.scores.SetAverageScore(ctx, r.SubjectID, avg); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, err
	}
	return avg, nil
}

func (l *Ledger) ListBySubject(ctx context.Context, subjectID string) ([]Review, error) {
	return l.repo.ListBySubject(ctx, subjectID)
}
