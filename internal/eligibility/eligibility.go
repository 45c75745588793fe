// Package eligibility decides which catalog entries a viewer may see and in
// which order. It performs no I/O.
package eligibility

import (
	"sort"
	"strings"
	"time"

	"booklend/internal/book"

	"github.com/samber/lo"
)

// AdultAge is the minimum age for age-restricted books.
const AdultAge = 18

// Availability narrows results by circulation state.
type Availability string

const (
	Any       Availability = ""
	Available Availability = "available"
	Borrowed  Availability = "borrowed"
)

func (a Availability) Valid() bool {
	return a == Any || a == Available || a == Borrowed
}

// Query holds the catalog filter dimensions. Zero values are wildcards.
type Query struct {
	Name         string
	Author       string
	MaxPrice     *float64
	Genres       []string
	HandOver     []book.HandOver
	Availability Availability
}

// Age returns the number of full years between birth and today. A missing
// birth date counts as age zero, so restricted books stay hidden.
func Age(birth *time.Time, today time.Time) int {
	if birth == nil {
		return 0
	}
	y1, m1, d1 := birth.Date()
	y2, m2, d2 := today.Date()
	age := y2 - y1
	if m2 < m1 || (m2 == m1 && d2 < d1) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// Visible reports whether a viewer of the given age may see b.
func Visible(b book.Book, viewerAge int) bool {
	return !b.AgeRestricted || viewerAge >= AdultAge
}

// Matches reports whether b satisfies every non-empty dimension of q.
func Matches(b book.Book, q Query) bool {
	if q.Name != "" && !containsFold(b.Title, q.Name) {
		return false
	}
	if q.Author != "" && !containsFold(b.Author, q.Author) {
		return false
	}
	if q.MaxPrice != nil && b.Price > *q.MaxPrice {
		return false
	}
	if len(q.Genres) > 0 && !lo.Every(b.Genres, book.NormalizeGenres(q.Genres)) {
		return false
	}
	if len(q.HandOver) > 0 && !lo.Every(b.HandOver, q.HandOver) {
		return false
	}
	switch q.Availability {
	case Available:
		return !b.IsBorrowed()
	case Borrowed:
		return b.IsBorrowed()
	}
	return true
}

// Apply filters books for the viewer and returns them in catalog order.
func Apply(books []book.Book, viewerAge int, q Query) []book.Book {
	out := lo.Filter(books, func(b book.Book, _ int) bool {
		return Visible(b, viewerAge) && Matches(b, q)
	})
	Sort(out)
	return out
}

// Sort orders books in place: unborrowed first, then owner score descending
// (unscored owners last), then title ascending, then id.
func Sort(books []book.Book) {
	sort.SliceStable(books, func(i, j int) bool {
		return less(books[i], books[j])
	})
}

func less(a, b book.Book) bool {
	if a.IsBorrowed() != b.IsBorrowed() {
		return !a.IsBorrowed()
	}
	switch {
	case a.OwnerScore != nil && b.OwnerScore == nil:
		return true
	case a.OwnerScore == nil && b.OwnerScore != nil:
		return false
	case a.OwnerScore != nil && *a.OwnerScore != *b.OwnerScore:
		return *a.OwnerScore > *b.OwnerScore
	}
	ta, tb := strings.ToLower(a.Title), strings.ToLower(b.Title)
	if ta != tb {
		return ta < tb
	}
	return a.ID < b.ID
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(substr)))
}

// StorageFilter translates q into the coarse filter pushed down to the store.
// Apply must still run on the result; it is the authoritative check.
func StorageFilter(q Query) book.Filter {
	f := book.Filter{
		TitleContains:  q.Name,
		AuthorContains: q.Author,
		MaxPrice:       q.MaxPrice,
		Genres:         book.NormalizeGenres(q.Genres),
		HandOver:       q.HandOver,
	}
	switch q.Availability {
	case Available:
		f.Available = lo.ToPtr(true)
	case Borrowed:
		f.Available = lo.ToPtr(false)
	}
	return f
}
