package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrAlreadyExists = errors.New("user already exists")
)

// User is a member of the lending community. AverageScore is nil until the
// user has been reviewed at least once.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	BirthDate    *time.Time `json:"birthDate,omitempty"`
	PostalCode   *string    `json:"postalCode,omitempty"`
	AverageScore *float64   `json:"averageScore"`
	ReviewCount  int        `json:"reviewCount"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// HasPostalCode reports whether postal hand-over is possible for this user.
func (u User) HasPostalCode() bool {
	return u.PostalCode != nil && *u.PostalCode != ""
}

// Profile is the public view of another user.
type Profile struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	HasPostalCode bool     `json:"hasPostalCode"`
	AverageScore  *float64 `json:"averageScore"`
	ReviewCount   int      `json:"reviewCount"`
}

func (u User) Profile() Profile {
	return Profile{
		ID:            u.ID,
		Name:          u.Name,
		HasPostalCode: u.HasPostalCode(),
		AverageScore:  u.AverageScore,
		ReviewCount:   u.ReviewCount,
	}
}

// Update carries a partial profile change; nil fields are left alone.
type Update struct {
	Name       *string
	BirthDate  *time.Time
	PostalCode *string
}

func (u Update) Empty() bool {
	return u.Name == nil && u.BirthDate == nil && u.PostalCode == nil
}
