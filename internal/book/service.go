package book

import (
	"context"
	"io"
	"strings"

	"go.uber.org/zap"
)

// Service covers the owner-side operations on listings.
type Service struct {
	repo   Repository
	covers CoverStore
	logger *zap.Logger
}

func NewService(repo Repository, covers CoverStore, logger *zap.Logger) *Service {
	return &Service{repo: repo, covers: covers, logger: logger}
}

func (s *Service) Create(ctx context.Context, ownerID string, d Draft) (Book, error) {
	b := &Book{
		OwnerID:       ownerID,
		Title:         strings.TrimSpace(d.Title),
		Author:        strings.TrimSpace(d.Author),
		Condition:     strings.TrimSpace(d.Condition),
		Description:   strings.TrimSpace(d.Description),
		Price:         d.Price,
		AgeRestricted: d.AgeRestricted,
		MaxLoanDays:   d.MaxLoanDays,
		Genres:        NormalizeGenres(d.Genres),
		HandOver:      uniqueHandOver(d.HandOver),
		Location:      strings.TrimSpace(d.Location),
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return Book{}, err
	}
	return *b, nil
}

// Delete removes an owner's unborrowed book together with its cover.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !b.IsOwnedBy(ownerID) {
		return ErrNotOwner
	}
	if b.IsBorrowed() {
		return ErrStillBorrowed
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.covers.Delete(id); err != nil {
		s.logger.Warn("cover cleanup failed", zap.String("book_id", id), zap.Error(err))
	}
	return nil
}

func (s *Service) SaveCover(ctx context.Context, ownerID, id string, img io.Reader) error {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !b.IsOwnedBy(ownerID) {
		return ErrNotOwner
	}
	return s.covers.Save(id, img)
}

func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]Book, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func uniqueHandOver(hs []HandOver) []HandOver {
	out := make([]HandOver, 0, len(hs))
	for _, h := range hs {
		dup := false
		for _, o := range out {
			if o == h {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, h)
		}
	}
	return out
}
