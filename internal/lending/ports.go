package lending

//go:generate mockgen -destination=mock_dispatcher.go -package=lending . Dispatcher

import (
	"context"
	"time"

	"booklend/internal/notification"
	"booklend/internal/review"
	"booklend/internal/user"
)

// Dispatcher delivers a stored notification to its recipient. It reports
// failure instead of returning an error; there is exactly one attempt.
type Dispatcher interface {
	Dispatch(ctx context.Context, rec notification.Record) bool
}

type Users interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type Ledger interface {
	Record(ctx context.Context, r *review.Review) (*float64, error)
}

type Covers interface {
	Delete(bookID string) error
}

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}
