package user

//go:generate mockgen -destination=mock_repository.go -package=user . Repository

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (User, error)
	Update(ctx context.Context, id string, upd Update) error
	// SetAverageScore stores the recomputed mean; nil clears it.
	SetAverageScore(ctx context.Context, id string, avg *float64) error
}
