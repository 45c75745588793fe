package book

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a book is not found.
	ErrNotFound        = errors.New("book not found")
	ErrAlreadyBorrowed = errors.New("book is already borrowed")
	ErrStillBorrowed   = errors.New("book is currently lent out")
	ErrNotOwner        = errors.New("book belongs to another user")
)

// HandOver is a way of getting the book to the borrower.
type HandOver string

const (
	InPerson HandOver = "in_person"
	Postal   HandOver = "postal"
)

func (h HandOver) Valid() bool {
	return h == InPerson || h == Postal
}

// Book is a listed physical book. BorrowerID and BorrowedOn are set and
// cleared together.
type Book struct {
	ID            string     `json:"id"`
	OwnerID       string     `json:"ownerId"`
	OwnerName     string     `json:"ownerName,omitempty"`
	OwnerScore    *float64   `json:"ownerScore"`
	BorrowerID    *string    `json:"borrowerId"`
	Title         string     `json:"title"`
	Author        string     `json:"author"`
	Condition     string     `json:"condition"`
	Description   string     `json:"description"`
	Price         float64    `json:"price"`
	AgeRestricted bool       `json:"ageRestricted"`
	MaxLoanDays   int        `json:"maxLoanDays"`
	BorrowedOn    *time.Time `json:"borrowedOn"`
	Genres        []string   `json:"genres"`
	HandOver      []HandOver `json:"handOver"`
	Location      string     `json:"location"`
	CreatedAt     time.Time  `json:"createdAt"`
}

func (b Book) IsBorrowed() bool {
	return b.BorrowerID != nil
}

func (b Book) IsOwnedBy(userID string) bool {
	return b.OwnerID == userID
}

func (b Book) IsBorrowedBy(userID string) bool {
	return b.BorrowerID != nil && *b.BorrowerID == userID
}

func (b Book) AcceptsPostal() bool {
	for _, h := range b.HandOver {
		if h == Postal {
			return true
		}
	}
	return false
}

// Draft is what an owner submits when listing a book.
type Draft struct {
	Title         string
	Author        string
	Condition     string
	Description   string
	Price         float64
	AgeRestricted bool
	MaxLoanDays   int
	Genres        []string
	HandOver      []HandOver
	Location      string
}

// NormalizeGenre lowercases and trims a genre so that filters compare exactly.
func NormalizeGenre(g string) string {
	return strings.ToLower(strings.TrimSpace(g))
}

// NormalizeGenres normalizes, drops empties and deduplicates, keeping order.
func NormalizeGenres(genres []string) []string {
	out := make([]string, 0, len(genres))
	seen := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		n := NormalizeGenre(g)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Filter narrows a catalog listing at the storage level. Empty fields match everything.
type Filter struct {
	TitleContains  string
	AuthorContains string
	MaxPrice       *float64
	Genres         []string
	HandOver       []HandOver
	Available      *bool
}
