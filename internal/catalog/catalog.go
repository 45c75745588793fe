// Package catalog serves the book listings a viewer may browse.
package catalog

//go:generate mockgen -destination=mock_ports.go -package=catalog . Sweeper,Viewers

import (
	"context"

	"booklend/internal/book"
	"booklend/internal/eligibility"
)

// Sweeper runs the loan expiry sweep.
type Sweeper interface {
	Sweep(ctx context.Context) error
}

// Viewers resolves the age used for eligibility checks.
type Viewers interface {
	ViewerAge(ctx context.Context, viewerID string) (int, error)
}

type Service struct {
	books   book.Repository
	sweeper Sweeper
	viewers Viewers
}

func NewService(books book.Repository, sweeper Sweeper, viewers Viewers) *Service {
	return &Service{books: books, sweeper: sweeper, viewers: viewers}
}

// All sweeps overdue loans and then lists every book the viewer may see.
// A sweep error aborts the listing; writes done by the sweep are kept.
func (s *Service) All(ctx context.Context, viewerID string) ([]book.Book, error) {
	if err := s.sweeper.Sweep(ctx); err != nil {
		return nil, err
	}
	return s.Browse(ctx, viewerID, eligibility.Query{})
}

// Browse lists the books matching q that the viewer may see, in catalog
// order. The store narrows the rows; the eligibility rules decide.
func (s *Service) Browse(ctx context.Context, viewerID string, q eligibility.Query) ([]book.Book, error) {
	age, err := s.viewers.ViewerAge(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	books, err := s.books.List(ctx, eligibility.StorageFilter(q))
	if err != nil {
		return nil, err
	}
	return eligibility.Apply(books, age, q), nil
}
