package notification

import (
	"context"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the live notifications addressed to the user, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Record, error) {
	return s.repo.ListForRecipient(ctx, userID)
}

// Dismiss deletes an informational notification owned by the user.
func (s *Service) Dismiss(ctx context.Context, userID, id string) error {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if rec.RecipientID != userID {
		return ErrNotRecipient
	}
	if !rec.Kind.Dismissible() {
		return ErrNotDismissible
	}
	return s.repo.Delete(ctx, id)
}
