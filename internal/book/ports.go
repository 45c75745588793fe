package book

//go:generate mockgen -destination=mock_repository.go -package=book . Repository,CoverStore

import (
	"context"
	"io"
	"time"
)

// Repository defines the contract for book data storage. Every method is a
// single statement; callers order the writes.
type Repository interface {
	Create(ctx context.Context, b *Book) error
	GetByID(ctx context.Context, id string) (Book, error)
	List(ctx context.Context, f Filter) ([]Book, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Book, error)
	ListBorrowed(ctx context.Context) ([]Book, error)
	// SetBorrower only applies to an unborrowed book; otherwise ErrAlreadyBorrowed.
	SetBorrower(ctx context.Context, id, borrowerID string, on time.Time) error
	ClearBorrower(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// CoverStore keeps the cover image of a book.
type CoverStore interface {
	Save(bookID string, r io.Reader) error
	Delete(bookID string) error
}
