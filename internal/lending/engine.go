// Package lending runs the circulation lifecycle of a book: borrow requests,
// answers, returns, expiry and the notifications exchanged on the way.
//
// Writes are independent statements executed in a fixed order; there are no
// transactions. Every operation checks its preconditions before the first
// write, and a failed push delivery never undoes a write.
package lending

import (
	"context"
	"errors"
	"time"

	"booklend/internal/book"
	"booklend/internal/notification"
	"booklend/internal/user"
	"booklend/internal/waitlist"

	"go.uber.org/zap"
)

// DeletionGraceDays is how long past its loan length an unanswered loan may
// run before the sweep deletes the book.
const DeletionGraceDays = 14

type Deps struct {
	Books         book.Repository
	Notifications notification.Repository
	WaitList      waitlist.Repository
	Users         Users
	Ledger        Ledger
	Dispatcher    Dispatcher
	Covers        Covers
	Clock         Clock
	Logger        *zap.Logger
}

type Engine struct {
	books      book.Repository
	notes      notification.Repository
	waits      waitlist.Repository
	users      Users
	ledger     Ledger
	dispatcher Dispatcher
	covers     Covers
	clock      Clock
	logger     *zap.Logger
}

func NewEngine(d Deps) *Engine {
	e := &Engine{
		books:      d.Books,
		notes:      d.Notifications,
		waits:      d.WaitList,
		users:      d.Users,
		ledger:     d.Ledger,
		dispatcher: d.Dispatcher,
		covers:     d.Covers,
		clock:      d.Clock,
		logger:     d.Logger,
	}
	if e.clock == nil {
		e.clock = systemClock{}
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e
}

// today is the current calendar date at UTC midnight, matching how DATE
// columns are read back.
func (e *Engine) today() time.Time {
	return dateOf(e.clock.Now())
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// elapsedDays counts calendar days from the borrow date to today.
func elapsedDays(borrowedOn, today time.Time) int {
	return int(dateOf(today).Sub(dateOf(borrowedOn)).Hours() / 24)
}

func (e *Engine) getBook(ctx context.Context, id string) (book.Book, error) {
	b, err := e.books.GetByID(ctx, id)
	if errors.Is(err, book.ErrNotFound) {
		return book.Book{}, ErrBookNotFound
	}
	return b, err
}

func (e *Engine) getUser(ctx context.Context, id string) (user.User, error) {
	u, err := e.users.GetByID(ctx, id)
	if errors.Is(err, user.ErrNotFound) {
		return user.User{}, ErrUserNotFound
	}
	return u, err
}

func (e *Engine) getNotification(ctx context.Context, id string) (notification.Record, error) {
	rec, err := e.notes.Get(ctx, id)
	if errors.Is(err, notification.ErrNotFound) {
		return notification.Record{}, ErrNotificationNotFound
	}
	return rec, err
}

// consume deletes the notification being answered. A missing row means a
// concurrent call already answered it.
func (e *Engine) consume(ctx context.Context, id string) error {
	err := e.notes.Delete(ctx, id)
	if errors.Is(err, notification.ErrNotFound) {
		return ErrNotificationNotFound
	}
	return err
}

// outbox stores and dispatches the notifications of one operation and
// remembers which deliveries failed.
type outbox struct {
	e      *Engine
	failed []notification.Record
}

func (e *Engine) newOutbox() *outbox {
	return &outbox{e: e}
}

func (o *outbox) send(ctx context.Context, kind notification.Kind, recipientID, actorID string, b *book.Book, title string) error {
	rec := notification.Record{
		Kind:        kind,
		RecipientID: recipientID,
		ActorID:     actorID,
		BookTitle:   title,
	}
	if b != nil {
		id := b.ID
		rec.BookID = &id
		rec.BookTitle = b.Title
	}
	if err := o.e.notes.Create(ctx, &rec); err != nil {
		return err
	}
	if actor, err := o.e.users.GetByID(ctx, actorID); err == nil {
		rec.ActorName = actor.Name
	}
	if !o.e.dispatcher.Dispatch(ctx, rec) {
		o.e.logger.Warn("notification not delivered",
			zap.String("notification_id", rec.ID),
			zap.String("kind", string(rec.Kind)),
			zap.String("recipient_id", rec.RecipientID),
		)
		o.failed = append(o.failed, rec)
	}
	return nil
}

// err reports undelivered notifications, if any.
func (o *outbox) err() error {
	if len(o.failed) == 0 {
		return nil
	}
	return &DispatchError{Failed: o.failed}
}
