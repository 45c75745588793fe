package waitlist

//go:generate mockgen -destination=mock_repository.go -package=waitlist . Repository

import (
	"context"
	"time"
)

// Entry asks for a BookAvailable notification once the book is returned.
// Entries are never deduplicated: every call adds a row.
type Entry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	BookID    string    `json:"bookId"`
	BookTitle string    `json:"bookTitle,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Repository interface {
	Add(ctx context.Context, userID, bookID string) (Entry, error)
	// DeleteForUser removes every entry of the user for the book and reports how many existed.
	DeleteForUser(ctx context.Context, userID, bookID string) (int64, error)
	ListByBook(ctx context.Context, bookID string) ([]Entry, error)
	ListByUser(ctx context.Context, userID string) ([]Entry, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]Entry, error) {
	return s.repo.ListByUser(ctx, userID)
}
