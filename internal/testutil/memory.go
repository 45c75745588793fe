package testutil

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"booklend/internal/book"
	"booklend/internal/eligibility"
	"booklend/internal/notification"
	"booklend/internal/review"
	"booklend/internal/user"
	"booklend/internal/waitlist"

	"github.com/google/uuid"
)

// Memory is an in-memory circulation store. Its repositories share state
// and mirror the Postgres foreign keys: deleting a book removes its
// wait-list entries and detaches its notifications.
type Memory struct {
	mu      sync.Mutex
	seq     int
	base    time.Time
	users   map[string]user.User
	books   map[string]book.Book
	notes   []notification.Record
	waits   []waitlist.Entry
	reviews []review.Review
	// CoversDeleted lists the book ids whose cover was removed.
	CoversDeleted []string
	CoversSaved   []string
}

func NewMemory() *Memory {
	return &Memory{
		base:  time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC),
		users: map[string]user.User{},
		books: map[string]book.Book{},
	}
}

// next returns a strictly increasing timestamp so newest-first ordering is stable.
func (m *Memory) next() time.Time {
	m.seq++
	return m.base.Add(time.Duration(m.seq) * time.Second)
}

func (m *Memory) Users() *MemoryUsers                 { return &MemoryUsers{m} }
func (m *Memory) Books() *MemoryBooks                 { return &MemoryBooks{m} }
func (m *Memory) Notifications() *MemoryNotifications { return &MemoryNotifications{m} }
func (m *Memory) WaitList() *MemoryWaitList           { return &MemoryWaitList{m} }
func (m *Memory) Reviews() *MemoryReviews             { return &MemoryReviews{m} }
func (m *Memory) Covers() *MemoryCovers               { return &MemoryCovers{m} }

// AddUser stores u, assigning an id when empty.
func (m *Memory) AddUser(u user.User) user.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = m.next()
	m.users[u.ID] = u
	return u
}

// AddBook stores b, assigning an id when empty.
func (m *Memory) AddBook(b book.Book) book.Book {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Genres == nil {
		b.Genres = []string{}
	}
	b.CreatedAt = m.next()
	m.books[b.ID] = b
	return b
}

// Book returns the stored book and whether it exists.
func (m *Memory) Book(id string) (book.Book, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	return b, ok
}

func (m *Memory) User(id string) user.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id]
}

// AllBooks returns every stored book.
func (m *Memory) AllBooks() []book.Book {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]book.Book, 0, len(m.books))
	for _, b := range m.books {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NotificationsFor returns the records addressed to the user, oldest first.
func (m *Memory) NotificationsFor(userID string) []notification.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []notification.Record
	for _, n := range m.notes {
		if n.RecipientID == userID {
			out = append(out, n)
		}
	}
	return out
}

// AllNotifications returns every stored record, oldest first.
func (m *Memory) AllNotifications() []notification.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notification.Record(nil), m.notes...)
}

// AllWaitList returns every wait-list entry.
func (m *Memory) AllWaitList() []waitlist.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]waitlist.Entry(nil), m.waits...)
}

// AddNotification stores a record directly, bypassing any engine logic.
func (m *Memory) AddNotification(rec notification.Record) notification.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = uuid.NewString()
	rec.CreatedAt = m.next()
	m.notes = append(m.notes, rec)
	return rec
}

// MemoryUsers implements user.Repository.
type MemoryUsers struct{ m *Memory }

var _ user.Repository = (*MemoryUsers)(nil)

func (r *MemoryUsers) Create(_ context.Context, u *user.User) error {
	*u = r.m.AddUser(*u)
	return nil
}

func (r *MemoryUsers) GetByID(_ context.Context, id string) (user.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	for _, rv := range r.m.reviews {
		if rv.SubjectID == id {
			u.ReviewCount++
		}
	}
	return u, nil
}

func (r *MemoryUsers) Update(_ context.Context, id string, upd user.Update) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return user.ErrNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.BirthDate != nil {
		bd := *upd.BirthDate
		u.BirthDate = &bd
	}
	if upd.PostalCode != nil {
		if *upd.PostalCode == "" {
			u.PostalCode = nil
		} else {
			pc := *upd.PostalCode
			u.PostalCode = &pc
		}
	}
	r.m.users[id] = u
	return nil
}

func (r *MemoryUsers) SetAverageScore(_ context.Context, id string, avg *float64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.AverageScore = avg
	r.m.users[id] = u
	return nil
}

// MemoryBooks implements book.Repository.
type MemoryBooks struct{ m *Memory }

var _ book.Repository = (*MemoryBooks)(nil)

func (r *MemoryBooks) withOwner(b book.Book) book.Book {
	if owner, ok := r.m.users[b.OwnerID]; ok {
		b.OwnerName = owner.Name
		b.OwnerScore = owner.AverageScore
	}
	return b
}

func (r *MemoryBooks) Create(_ context.Context, b *book.Book) error {
	*b = r.m.AddBook(*b)
	return nil
}

func (r *MemoryBooks) GetByID(_ context.Context, id string) (book.Book, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	b, ok := r.m.books[id]
	if !ok {
		return book.Book{}, book.ErrNotFound
	}
	return r.withOwner(b), nil
}

// List applies the coarse filter through the eligibility matcher, which
// shares its semantics.
func (r *MemoryBooks) List(_ context.Context, f book.Filter) ([]book.Book, error) {
	q := eligibility.Query{
		Name:     f.TitleContains,
		Author:   f.AuthorContains,
		MaxPrice: f.MaxPrice,
		Genres:   f.Genres,
		HandOver: f.HandOver,
	}
	if f.Available != nil {
		q.Availability = eligibility.Borrowed
		if *f.Available {
			q.Availability = eligibility.Available
		}
	}
	return r.filter(func(b book.Book) bool { return eligibility.Matches(b, q) }), nil
}

func (r *MemoryBooks) ListByOwner(_ context.Context, ownerID string) ([]book.Book, error) {
	return r.filter(func(b book.Book) bool { return b.OwnerID == ownerID }), nil
}

func (r *MemoryBooks) ListBorrowed(_ context.Context) ([]book.Book, error) {
	return r.filter(func(b book.Book) bool { return b.IsBorrowed() }), nil
}

func (r *MemoryBooks) filter(keep func(book.Book) bool) []book.Book {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []book.Book{}
	for _, b := range r.m.books {
		if keep(b) {
			out = append(out, r.withOwner(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *MemoryBooks) SetBorrower(_ context.Context, id, borrowerID string, on time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	b, ok := r.m.books[id]
	if !ok || b.IsBorrowed() {
		return book.ErrAlreadyBorrowed
	}
	borrower := borrowerID
	b.BorrowerID = &borrower
	b.BorrowedOn = &on
	r.m.books[id] = b
	return nil
}

func (r *MemoryBooks) ClearBorrower(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	b, ok := r.m.books[id]
	if !ok {
		return book.ErrNotFound
	}
	b.BorrowerID = nil
	b.BorrowedOn = nil
	r.m.books[id] = b
	return nil
}

func (r *MemoryBooks) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.books[id]; !ok {
		return book.ErrNotFound
	}
	delete(r.m.books, id)

	waits := r.m.waits[:0]
	for _, w := range r.m.waits {
		if w.BookID != id {
			waits = append(waits, w)
		}
	}
	r.m.waits = waits

	for i := range r.m.notes {
		if r.m.notes[i].RefersTo(id) {
			r.m.notes[i].BookID = nil
		}
	}
	return nil
}

// MemoryNotifications implements notification.Repository.
type MemoryNotifications struct{ m *Memory }

var _ notification.Repository = (*MemoryNotifications)(nil)

func (r *MemoryNotifications) Create(_ context.Context, rec *notification.Record) error {
	*rec = r.m.AddNotification(*rec)
	return nil
}

func (r *MemoryNotifications) Get(_ context.Context, id string) (notification.Record, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, n := range r.m.notes {
		if n.ID == id {
			return n, nil
		}
	}
	return notification.Record{}, notification.ErrNotFound
}

func (r *MemoryNotifications) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for i, n := range r.m.notes {
		if n.ID == id {
			r.m.notes = append(r.m.notes[:i], r.m.notes[i+1:]...)
			return nil
		}
	}
	return notification.ErrNotFound
}

func (r *MemoryNotifications) DeleteMatching(_ context.Context, match notification.Match) (int64, error) {
	if match.Empty() {
		return 0, notification.ErrEmptyMatch
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var removed int64
	kept := r.m.notes[:0]
	for _, n := range r.m.notes {
		if match.Matches(n) {
			removed++
			continue
		}
		kept = append(kept, n)
	}
	r.m.notes = kept
	return removed, nil
}

func (r *MemoryNotifications) ListMatching(_ context.Context, match notification.Match) ([]notification.Record, error) {
	if match.Empty() {
		return nil, notification.ErrEmptyMatch
	}
	return r.newestFirst(match.Matches), nil
}

func (r *MemoryNotifications) ListForRecipient(_ context.Context, recipientID string) ([]notification.Record, error) {
	return r.newestFirst(func(n notification.Record) bool { return n.RecipientID == recipientID }), nil
}

func (r *MemoryNotifications) newestFirst(keep func(notification.Record) bool) []notification.Record {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []notification.Record{}
	for i := len(r.m.notes) - 1; i >= 0; i-- {
		if keep(r.m.notes[i]) {
			out = append(out, r.m.notes[i])
		}
	}
	return out
}

// MemoryWaitList implements waitlist.Repository.
type MemoryWaitList struct{ m *Memory }

var _ waitlist.Repository = (*MemoryWaitList)(nil)

func (r *MemoryWaitList) Add(_ context.Context, userID, bookID string) (waitlist.Entry, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	e := waitlist.Entry{ID: uuid.NewString(), UserID: userID, BookID: bookID, CreatedAt: r.m.next()}
	r.m.waits = append(r.m.waits, e)
	return e, nil
}

func (r *MemoryWaitList) DeleteForUser(_ context.Context, userID, bookID string) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var removed int64
	kept := r.m.waits[:0]
	for _, w := range r.m.waits {
		if w.UserID == userID && w.BookID == bookID {
			removed++
			continue
		}
		kept = append(kept, w)
	}
	r.m.waits = kept
	return removed, nil
}

func (r *MemoryWaitList) ListByBook(_ context.Context, bookID string) ([]waitlist.Entry, error) {
	return r.filter(func(w waitlist.Entry) bool { return w.BookID == bookID }), nil
}

func (r *MemoryWaitList) ListByUser(_ context.Context, userID string) ([]waitlist.Entry, error) {
	return r.filter(func(w waitlist.Entry) bool { return w.UserID == userID }), nil
}

func (r *MemoryWaitList) filter(keep func(waitlist.Entry) bool) []waitlist.Entry {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []waitlist.Entry{}
	for _, w := range r.m.waits {
		if keep(w) {
			if b, ok := r.m.books[w.BookID]; ok {
				w.BookTitle = b.Title
			}
			out = append(out, w)
		}
	}
	return out
}

// MemoryReviews implements review.Repository.
type MemoryReviews struct{ m *Memory }

var _ review.Repository = (*MemoryReviews)(nil)

func (r *MemoryReviews) Insert(_ context.Context, rv *review.Review) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	rv.ID = uuid.NewString()
	rv.CreatedAt = r.m.next()
	r.m.reviews = append(r.m.reviews, *rv)
	return nil
}

func (r *MemoryReviews) Totals(_ context.Context, subjectID string) (float64, int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var (
		sum   float64
		count int
	)
	for _, rv := range r.m.reviews {
		if rv.SubjectID == subjectID {
			sum += rv.Score
			count++
		}
	}
	return sum, count, nil
}

func (r *MemoryReviews) ListBySubject(_ context.Context, subjectID string) ([]review.Review, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []review.Review{}
	for i := len(r.m.reviews) - 1; i >= 0; i-- {
		if r.m.reviews[i].SubjectID == subjectID {
			out = append(out, r.m.reviews[i])
		}
	}
	return out, nil
}

// MemoryCovers records cover uploads and deletions.
type MemoryCovers struct{ m *Memory }

func (c *MemoryCovers) Delete(bookID string) error {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	c.m.CoversDeleted = append(c.m.CoversDeleted, bookID)
	return nil
}

// Save records a cover upload and discards the image.
func (c *MemoryCovers) Save(bookID string, _ io.Reader) error {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	c.m.CoversSaved = append(c.m.CoversSaved, bookID)
	return nil
}
