package review

//go:generate mockgen -destination=mock_repository.go -package=review . Repository,ScoreStore

import (
	"context"
	"errors"
	"time"
)

const (
	MinScore = 0.0
	MaxScore = 5.0
)

var (
	ErrInvalidScore    = errors.New("score must be between 0 and 5")
	ErrSelfReview      = errors.New("users cannot review themselves")
	ErrSubjectNotFound = errors.New("reviewed user not found")
)

type Review struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName,omitempty"`
	SubjectID  string    `json:"subjectId"`
	Score      float64   `json:"score"`
	Content    *string   `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

func ValidScore(score float64) bool {
	return score >= MinScore && score <= MaxScore
}

type Repository interface {
	Insert(ctx context.Context, r *Review) error
	// Totals returns the sum and number of scores where the user is the subject.
	Totals(ctx context.Context, subjectID string) (sum float64, count int, err error)
	ListBySubject(ctx context.Context, subjectID string) ([]Review, error)
}

// ScoreStore persists the displayed average of a user.
type ScoreStore interface {
	SetAverageScore(ctx context.Context, userID string, avg *float64) error
}
