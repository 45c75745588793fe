package eligibility

import (
	"testing"
	"time"

	"booklend/internal/book"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAge(t *testing.T) {
	today := date(2024, time.June, 15)
	tests := []struct {
		name  string
		birth *time.Time
		want  int
	}{
		{"unknown birth date", nil, 0},
		{"birthday today", lo.ToPtr(date(2006, time.June, 15)), 18},
		{"birthday tomorrow", lo.ToPtr(date(2006, time.June, 16)), 17},
		{"earlier month", lo.ToPtr(date(2000, time.January, 31)), 24},
		{"born in the future", lo.ToPtr(date(2030, time.January, 1)), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Age(tt.birth, today))
		})
	}
}

func TestVisible(t *testing.T) {
	restricted := book.Book{AgeRestricted: true}
	assert.False(t, Visible(restricted, 17))
	assert.True(t, Visible(restricted, 18))
	assert.True(t, Visible(book.Book{}, 0))
}

func TestMatches(t *testing.T) {
	b := book.Book{
		Title:    "The Left Hand of Darkness",
		Author:   "Ursula K. Le Guin",
		Price:    2,
		Genres:   []string{"sci-fi", "classic"},
		HandOver: []book.HandOver{book.InPerson, book.Postal},
	}

	tests := []struct {
		name string
		q    Query
		want bool
	}{
		{"empty query is a wildcard", Query{}, true},
		{"name is case insensitive", Query{Name: "left HAND"}, true},
		{"name mismatch", Query{Name: "Dune"}, false},
		{"partial author", Query{Author: "le guin"}, true},
		{"price at limit", Query{MaxPrice: lo.ToPtr(2.0)}, true},
		{"price over limit", Query{MaxPrice: lo.ToPtr(1.5)}, false},
		{"all genres required", Query{Genres: []string{"Classic", "sci-fi"}}, true},
		{"missing genre", Query{Genres: []string{"classic", "poetry"}}, false},
		{"hand over subset", Query{HandOver: []book.HandOver{book.Postal}}, true},
		{"available", Query{Availability: Available}, true},
		{"borrowed", Query{Availability: Borrowed}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(b, tt.q))
		})
	}

	postalOnly := book.Book{HandOver: []book.HandOver{book.Postal}}
	assert.False(t, Matches(postalOnly, Query{HandOver: []book.HandOver{book.InPerson}}))
}

func TestApply_OrderAndAgeGate(t *testing.T) {
	borrower := "someone"
	books := []book.Book{
		{ID: "1", Title: "zeta", OwnerScore: lo.ToPtr(5.0), BorrowerID: &borrower},
		{ID: "2", Title: "beta", OwnerScore: nil},
		{ID: "3", Title: "alpha", OwnerScore: lo.ToPtr(3.0)},
		{ID: "4", Title: "Gamma", OwnerScore: lo.ToPtr(4.5)},
		{ID: "5", Title: "delta", OwnerScore: lo.ToPtr(3.0)},
		{ID: "6", Title: "adult", AgeRestricted: true, OwnerScore: lo.ToPtr(5.0)},
		{ID: "7", Title: "Alpha", OwnerScore: lo.ToPtr(3.0)},
	}

	minor := Apply(books, 16, Query{})
	assert.Equal(t, []string{"4", "3", "7", "5", "2", "1"}, lo.Map(minor, func(b book.Book, _ int) string { return b.ID }))

	adult := Apply(books, 30, Query{})
	assert.Equal(t, "6", adult[0].ID)
	assert.Len(t, adult, 7)
}

func TestStorageFilter(t *testing.T) {
	f := StorageFilter(Query{Name: "x", Genres: []string{" Poetry"}, Availability: Borrowed})
	assert.Equal(t, "x", f.TitleContains)
	assert.Equal(t, []string{"poetry"}, f.Genres)
	if assert.NotNil(t, f.Available) {
		assert.False(t, *f.Available)
	}
}
