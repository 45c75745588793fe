package notification

//go:generate mockgen -destination=mock_repository.go -package=notification . Repository

import "context"

// Repository stores notification records. Records are inserted and deleted,
// never updated.
type Repository interface {
	Create(ctx context.Context, r *Record) error
	Get(ctx context.Context, id string) (Record, error)
	Delete(ctx context.Context, id string) error
	DeleteMatching(ctx context.Context, m Match) (int64, error)
	ListMatching(ctx context.Context, m Match) ([]Record, error)
	ListForRecipient(ctx context.Context, recipientID string) ([]Record, error)
}
