package user

import (
	"context"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Profile(ctx context.Context, id string) (Profile, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	return u.Profile(), nil
}

// UpdateMe applies a partial update and returns the fresh record.
func (s *Service) UpdateMe(ctx context.Context, id string, upd Update) (User, error) {
	if err := s.repo.Update(ctx, id, upd); err != nil {
		return User{}, err
	}
	return s.repo.GetByID(ctx, id)
}
