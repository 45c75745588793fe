package lending

import (
	"context"
	"testing"
	"time"

	"booklend/internal/book"
	"booklend/internal/notification"
	"booklend/internal/review"
	"booklend/internal/testutil"
	"booklend/internal/user"

	"github.com/golang/mock/gomock"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	t          *testing.T
	ctx        context.Context
	mem        *testutil.Memory
	clock      *testutil.FixedClock
	dispatcher *MockDispatcher
	engine     *Engine

	owner, alice, bob user.User
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mem := testutil.NewMemory()
	clock := &testutil.FixedClock{T: time.Date(2024, time.March, 10, 15, 0, 0, 0, time.UTC)}
	dispatcher := NewMockDispatcher(ctrl)
	users := mem.Users()

	f := &fixture{
		t:          t,
		ctx:        context.Background(),
		mem:        mem,
		clock:      clock,
		dispatcher: dispatcher,
		engine: NewEngine(Deps{
			Books:         mem.Books(),
			Notifications: mem.Notifications(),
			WaitList:      mem.WaitList(),
			Users:         users,
			Ledger:        review.NewLedger(mem.Reviews(), users),
			Dispatcher:    dispatcher,
			Covers:        mem.Covers(),
			Clock:         clock,
			Logger:        zap.NewNop(),
		}),
	}
	adult := time.Date(1990, time.May, 1, 0, 0, 0, 0, time.UTC)
	f.owner = mem.AddUser(user.User{Name: "Olga", BirthDate: &adult})
	f.alice = mem.AddUser(user.User{Name: "Alice", BirthDate: &adult, PostalCode: lo.ToPtr("1010")})
	f.bob = mem.AddUser(user.User{Name: "Bob", BirthDate: &adult})
	return f
}

// deliverAll makes every dispatch succeed.
func (f *fixture) deliverAll() {
	f.dispatcher.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Return(true).AnyTimes()
}

func (f *fixture) freeBook() book.Book {
	return f.mem.AddBook(book.Book{
		OwnerID:     f.owner.ID,
		Title:       "Dune",
		Author:      "Frank Herbert",
		MaxLoanDays: 14,
		HandOver:    []book.HandOver{book.InPerson},
	})
}

func (f *fixture) lentBook(borrowerID string, maxLoanDays, daysAgo int) book.Book {
	on := dateOf(f.clock.Now()).AddDate(0, 0, -daysAgo)
	return f.mem.AddBook(book.Book{
		OwnerID:     f.owner.ID,
		BorrowerID:  &borrowerID,
		BorrowedOn:  &on,
		Title:       "Solaris",
		MaxLoanDays: maxLoanDays,
		HandOver:    []book.HandOver{book.InPerson},
	})
}

func (f *fixture) kindsFor(userID string) []notification.Kind {
	return lo.Map(f.mem.NotificationsFor(userID), func(n notification.Record, _ int) notification.Kind { return n.Kind })
}

func (f *fixture) only(userID string, kind notification.Kind) notification.Record {
	recs := lo.Filter(f.mem.NotificationsFor(userID), func(n notification.Record, _ int) bool { return n.Kind == kind })
	require.Len(f.t, recs, 1, "expected exactly one %s for user", kind)
	return recs[0]
}

// assertBorrowInvariant checks that borrower and borrow date are set together
// and the owner never borrows their own book.
func (f *fixture) assertBorrowInvariant() {
	for _, b := range f.mem.AllBooks() {
		assert.Equal(f.t, b.BorrowerID == nil, b.BorrowedOn == nil, "book %s", b.ID)
		if b.BorrowerID != nil {
			assert.NotEqual(f.t, b.OwnerID, *b.BorrowerID)
		}
	}
}

func TestRequestBorrow(t *testing.T) {
	t.Run("notifies owner and drops the requester's wait-list entry", func(t *testing.T) {
		f := newFixture(t)
		f.deliverAll()
		b := f.freeBook()
		_, _ = f.mem.WaitList().Add(f.ctx, f.bob.ID, b.ID)

		require.NoError(t, f.engine.RequestBorrow(f.ctx, f.bob.ID, b.ID))

		rec := f.only(f.owner.ID, notification.BorrowRequested)
		assert.Equal(t, f.bob.ID, rec.ActorID)
		assert.True(t, rec.RefersTo(b.ID))
		assert.Equal(t, "Dune", rec.BookTitle)
		assert.Empty(t, f.mem.AllWaitList())
		stored, _ := f.mem.Book(b.ID)
		assert.Nil(t, stored.BorrowerID)
	})

	t.Run("postal hand-over needs a postal code", func(t *testing.T) {
		f := newFixture(t)
		b := f.mem.AddBook(book.Book{OwnerID: f.owner.ID, Title: "Post", MaxLoanDays: 7,
			HandOver: []book.HandOver{book.InPerson, book.Postal}})

		err := f.engine.RequestBorrow(f.ctx, f.bob.ID, b.ID)
		assert.ErrorIs(t, err, ErrMissingPostalCode)
		assert.Equal(t, 403, StatusFor(err))
		assert.Empty(t, f.mem.AllNotifications())
	})

	t.Run("postal hand-over with postal code", func(t *testing.T) {
		f := newFixture(t)
		f.deliverAll()
		b := f.mem.AddBook(book.Book{OwnerID: f.owner.ID, Title: "Post", MaxLoanDays: 7,
			HandOver: []book.HandOver{book.Postal}})

		assert.NoError(t, f.engine.RequestBorrow(f.ctx, f.alice.ID, b.ID))
	})

	t.Run("rejections before any write", func(t *testing.T) {
		f := newFixture(t)
		f.deliverAll()
		free := f.freeBook()
		lent := f.lentBook(f.alice.ID, 14, 1)

		assert.ErrorIs(t, f.engine.RequestBorrow(f.ctx, f.owner.ID, free.ID), ErrOwnBook)
		assert.ErrorIs(t, f.engine.RequestBorrow(f.ctx, f.bob.ID, lent.ID), ErrAlreadyBorrowed)
		assert.ErrorIs(t, f.engine.RequestBorrow(f.ctx, f.bob.ID, "missing"), ErrBookNotFound)
		assert.Empty(t, f.mem.AllNotifications())

		require.NoError(t, f.engine.RequestBorrow(f.ctx, f.bob.ID, free.ID))
		assert.ErrorIs(t, f.engine.RequestBorrow(f.ctx, f.bob.ID, free.ID), ErrAlreadyRequested)
		assert.Len(t, f.mem.AllNotifications(), 1)
	})

	t.Run("failed delivery keeps the record and the wait-list entry", func(t *testing.T) {
		f := newFixture(t)
		f.dispatcher.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Return(false)
		b := f.freeBook()
		_, _ = f.mem.WaitList().Add(f.ctx, f.bob.ID, b.ID)

		err := f.engine.RequestBorrow(f.ctx, f.bob.ID, b.ID)
		var dispatchErr *DispatchError
		require.ErrorAs(t, err, &dispatchErr)
		assert.Equal(t, notification.BorrowRequested, dispatchErr.Failed[0].Kind)
		assert.Equal(t, KindDispatchFailure, KindOf(err))
		assert.Len(t, f.mem.NotificationsFor(f.owner.ID), 1)
		assert.Len(t, f.mem.AllWaitList(), 1)
	})
}

func TestAnswerBorrowRequest_Accept(t *testing.T) {
	f := newFixture(t)
	f.deliverAll()
	b := f.freeBook()
	carol := f.mem.AddUser(user.User{Name: "Carol"})

	require.NoError(t, f.engine.RequestBorrow(f.ctx, f.alice.ID, b.ID))
	require.NoError(t, f.engine.RequestBorrow(f.ctx, f.bob.ID, b.ID))
	// a stale availability alert for someone else
	f.mem.AddNotification(notification.Record{Kind: notification.BookAvailable, RecipientID: carol.ID,
		ActorID: f.owner.ID, BookID: &b.ID, BookTitle: b.Title})

	requests := f.mem.NotificationsFor(f.owner.ID)
	require.Len(t, requests, 2)
	aliceReq := lo.Filter(requests, func(n notification.Record, _ int) bool { return n.ActorID == f.alice.ID })[0]

	require.NoError(t, f.engine.AnswerBorrowRequest(f.ctx, f.owner.ID, b.ID, aliceReq.ID, true))

	stored, _ := f.mem.Book(b.ID)
	require.NotNil(t, stored.BorrowerID)
	assert.Equal(t, f.alice.ID, *stored.BorrowerID)
	assert.Equal(t, dateOf(f.clock.Now()), *stored.BorrowedOn)

	assert.Equal(t, []notification.Kind{notification.ContactOwner}, f.kindsFor(f.owner.ID))
	assert.Equal(t, []notification.Kind{notification.ContactBorrower}, f.kindsFor(f.alice.ID))
	assert.Empty(t, f.kindsFor(f.bob.ID), "losing requester is not told")
	assert.Empty(t, f.kindsFor(carol.ID))
	assert.Equal(t, f.alice.ID, f.only(f.owner.ID, notification.ContactOwner).ActorID)
	f.assertBorrowInvariant()

	t.Run("second answer on the same notification", func(t *testing.T) {
		err := f.engine.AnswerBorrowRequest(f.ctx, f.owner.ID, b.ID, aliceReq.ID, true)
		assert.ErrorIs(t, err, ErrNotificationNotFound)
		stored, _ := f.mem.Book(b.ID)
		assert.Equal(t, f.alice.ID, *stored.BorrowerID)
	})
}

func TestAnswerBorrowRequest_Decline(t *testing.T) {
	f := newFixture(t)
	f.deliverAll()
	b := f.freeBook()
	require.NoError(t, f.engine.RequestBorrow(f.ctx, f.bob.ID, b.ID))
	req := f.only(f.owner.ID, notification.BorrowRequested)

	t.Run("only the addressee may answer", func(t *testing.T) {
		err := f.engine.AnswerBorrowRequest(f.ctx, f.alice.ID, b.ID, req.ID, true)
		assert.ErrorIs(t, err, ErrNotRecipient)
	})

	t.Run("notification for another book", func(t *testing.T) {
		other := f.freeBook()
		err := f.engine.AnswerBorrowRequest(f.ctx, f.owner.ID, other.ID, req.ID, true)
		assert.ErrorIs(t, err, ErrWrongNotification)
	})

	require.NoError(t, f.engine.AnswerBorrowRequest(f.ctx, f.owner.ID, b.ID, req.ID, false))

	declined := f.only(f.bob.ID, notification.OwnerDeclined)
	assert.Equal(t, f.owner.ID, declined.ActorID)
	assert.Empty(t, f.kindsFor(f.owner.ID))
	stored, _ := f.mem.Book(b.ID)
	assert.Nil(t, stored.BorrowerID)
}

func TestAnswerBorrowRequest_BookMeanwhileBorrowed(t *testing.T) {
	f := newFixture(t)
	f.deliverAll()
	b := f.lentBook(f.alice.ID, 14, 2)
	stale := f.mem.AddNotification(notification.Record{Kind: notification.BorrowRequested,
		RecipientID: f.owner.ID, ActorID: f.bob.ID, BookID: &b.ID, BookTitle: b.Title})

	err := f.engine.AnswerBorrowRequest(f.ctx, f.owner.ID, b.ID, stale.ID, true)
	assert.ErrorIs(t, err, ErrAlreadyBorrowed)
	assert.Equal(t, 409, StatusFor(err))
	assert.Len(t, f.mem.AllNotifications(), 1, "nothing written")
}

func TestRequestAvailabilityNotice_KeepsDuplicates(t *testing.T) {
	f := newFixture(t)
	b := f.lentBook(f.alice.ID, 14, 1)

	require.NoError(t, f.engine.RequestAvailabilityNotice(f.ctx, f.bob.ID, b.ID))
	require.NoError(t, f.engine.RequestAvailabilityNotice(f.ctx, f.bob.ID, b.ID))
	assert.Len(t, f.mem.AllWaitList(), 2)

	assert.ErrorIs(t, f.engine.RequestAvailabilityNotice(f.ctx, f.bob.ID, "missing"), ErrBookNotFound)
}

func TestCancelRequest(t *testing.T) {
	t.Run("wait-list entry and stray alert", func(t *testing.T) {
		f := newFixture(t)
		b := f.freeBook()
		_, _ = f.mem.WaitList().Add(f.ctx, f.bob.ID, b.ID)
		f.mem.AddNotification(notification.Record{Kind: notification.BookAvailable, RecipientID: f.bob.ID,
			ActorID: f.owner.ID, BookID: &b.ID})

		require.NoError(t, f.engine.CancelRequest(f.ctx, f.bob.ID, b.ID))
		assert.Empty(t, f.mem.AllWaitList())
		assert.Empty(t, f.mem.AllNotifications())
	})

	t.Run("pending borrow request, twice", func(t *testing.T) {
		f := newFixture(t)
		f.deliverAll()
		b := f.freeBook()
		require.NoError(t, f.engine.RequestBorrow(f.ctx, f.bob.ID, b.ID))

		require.NoError(t, f.engine.CancelRequest(f.ctx, f.bob.ID, b.ID))
		assert.Empty(t, f.mem.AllNotifications())

		err := f.engine.CancelRequest(f.ctx, f.bob.ID, b.ID)
		assert.ErrorIs(t, err, ErrNothingToCancel)
		assert.Equal(t, KindNotFound, KindOf(err))
	})
}

func TestReturnVoluntarily(t *testing.T) {
	t.Run("returned frees the book and alerts the wait-list", func(t *testing.T) {
		f := newFixture(t)
		f.deliverAll()
		b := f.lentBook(f.alice.ID, 14, 3)
		carol := f.mem.AddUser(user.User{Name: "Carol"})
		f.mem.AddNotification(notification.Record{Kind: notification.ContactOwner, RecipientID: f.owner.ID, ActorID: f.alice.ID, BookID: &b.ID})
		f.mem.AddNotification(notification.Record{Kind: notification.ContactBorrower, RecipientID: f.alice.ID, ActorID: f.owner.ID, BookID: &b.ID})
		_, _ = f.mem.WaitList().Add(f.ctx, f.bob.ID, b.ID)
		_, _ = f.mem.WaitList().Add(f.ctx, f.bob.ID, b.ID)
		_, _ = f.mem.WaitList().Add(f.ctx, carol.ID, b.ID)

		require.NoError(t, f.engine.ReturnVoluntarily(f.ctx, f.owner.ID, b.ID, true))

		stored, _ := f.mem.Book(b.ID)
		assert.Nil(t, stored.BorrowerID)
		assert.Nil(t, stored.BorrowedOn)
		assert.Equal(t, []notification.Kind{notification.EvaluateBorrower}, f.kindsFor(f.owner.ID))
		assert.Equal(t, []notification.Kind{notification.EvaluateOwner}, f.kindsFor(f.alice.ID))
		assert.Equal(t, f.alice.ID, f.only(f.owner.ID, notification.EvaluateBorrower).ActorID)
		assert.Equal(t, []notification.Kind{notification.BookAvailable, notification.BookAvailable}, f.kindsFor(f.bob.ID))
		assert.Equal(t, []notification.Kind{notification.BookAvailable}, f.kindsFor(carol.ID))
		assert.Len(t, f.mem.AllWaitList(), 3, "entries survive the return")
		f.assertBorrowInvariant()
	})

	t.Run("not returned keeps the loan", func(t *testing.T) {
		f := newFixture(t)
		f.deliverAll()
		b := f.lentBook(f.alice.ID, 14, 3)
		_, _ = f.mem.WaitList().Add(f.ctx, f.bob.ID, b.ID)

		require.NoError(t, f.engine.ReturnVoluntarily(f.ctx, f.owner.ID, b.ID, false))

		stored, _ := f.mem.Book(b.ID)
		assert.Equal(t, f.alice.ID, *stored.BorrowerID)
		assert.Equal(t, []notification.Kind{notification.EvaluateBorrower}, f.kindsFor(f.owner.ID))
		assert.Empty(t, f.kindsFor(f.alice.ID))
		assert.Empty(t, f.kindsFor(f.bob.ID))
	})

	t.Run("preconditions", func(t *testing.T) {
		f := newFixture(t)
		free := f.freeBook()
		lent := f.lentBook(f.alice.ID, 5, 6)

		assert.ErrorIs(t, f.engine.ReturnVoluntarily(f.ctx, f.owner.ID, free.ID, true), ErrNotBorrowed)
		assert.ErrorIs(t, f.engine.ReturnVoluntarily(f.ctx, f.bob.ID, lent.ID, true), ErrNotOwner)

		f.mem.AddNotification(notification.Record{Kind: notification.LoanExpired, RecipientID: f.owner.ID,
			ActorID: f.alice.ID, BookID: &lent.ID})
		assert.ErrorIs(t, f.engine.ReturnVoluntarily(f.ctx, f.owner.ID, lent.ID, true), ErrLoanExpired)
	})

	t.Run("partial delivery failure is reported, writes stay", func(t *testing.T) {
		f := newFixture(t)
		b := f.lentBook(f.alice.ID, 14, 3)
		f.dispatcher.EXPECT().Dispatch(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, rec notification.Record) bool {
				return rec.Kind != notification.EvaluateOwner
			}).Times(2)

		err := f.engine.ReturnVoluntarily(f.ctx, f.owner.ID, b.ID, true)
		var dispatchErr *DispatchError
		require.ErrorAs(t, err, &dispatchErr)
		require.Len(t, dispatchErr.Failed, 1)
		assert.Equal(t, notification.EvaluateOwner, dispatchErr.Failed[0].Kind)

		stored, _ := f.mem.Book(b.ID)
		assert.Nil(t, stored.BorrowerID)
		assert.Len(t, f.mem.AllNotifications(), 2)
	})
}

func TestSweep(t *testing.T) {
	t.Run("boundaries", func(t *testing.T) {
		f := newFixture(t)
		f.deliverAll()
		fresh := f.lentBook(f.alice.ID, 5, 4)
		due := f.lentBook(f.alice.ID, 5, 5)
		almostGone := f.lentBook(f.bob.ID, 5, 18)
		gone := f.lentBook(f.bob.ID, 5, 19)
		longGone := f.lentBook(f.bob.ID, 5, 20)

		require.NoError(t, f.engine.Sweep(f.ctx))

		expired := lo.Filter(f.mem.NotificationsFor(f.owner.ID), func(n notification.Record, _ int) bool {
			return n.Kind == notification.LoanExpired
		})
		flagged := lo.Map(expired, func(n notification.Record, _ int) string { return *n.BookID })
		assert.ElementsMatch(t, []string{due.ID, almostGone.ID}, flagged)

		_, ok := f.mem.Book(fresh.ID)
		assert.True(t, ok)
		for _, id := range []string{gone.ID, longGone.ID} {
			_, ok := f.mem.Book(id)
			assert.False(t, ok, "book %s should be deleted", id)
		}
		assert.ElementsMatch(t, []string{gone.ID, longGone.ID}, f.mem.CoversDeleted)
		assert.Len(t, f.mem.AllNotifications(), 2, "deletion notifies nobody")
		f.assertBorrowInvariant()

		// flagged loans are neither flagged again nor deleted
		f.clock.Advance(1)
		require.NoError(t, f.engine.Sweep(f.ctx))
		assert.Len(t, f.mem.AllNotifications(), 3, "only the fresh loan gets flagged now")
		for _, id := range []string{due.ID, almostGone.ID, fresh.ID} {
			_, ok := f.mem.Book(id)
			assert.True(t, ok)
		}
	})

	t.Run("failed delivery is reported after the sweep", func(t *testing.T) {
		f := newFixture(t)
		f.dispatcher.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Return(false).Times(2)
		f.lentBook(f.alice.ID, 5, 5)
		f.lentBook(f.bob.ID, 3, 10)

		err := f.engine.Sweep(f.ctx)
		var dispatchErr *DispatchError
		require.ErrorAs(t, err, &dispatchErr)
		assert.Len(t, dispatchErr.Failed, 2)
		assert.Len(t, f.mem.NotificationsFor(f.owner.ID), 2, "records kept")
	})

	t.Run("nothing borrowed", func(t *testing.T) {
		f := newFixture(t)
		f.freeBook()
		assert.NoError(t, f.engine.Sweep(f.ctx))
	})
}

func TestResolveExpiredLoan(t *testing.T) {
	setup := func(t *testing.T) (*fixture, book.Book, notification.Record) {
		f := newFixture(t)
		f.deliverAll()
		b := f.lentBook(f.alice.ID, 5, 7)
		_, _ = f.mem.WaitList().Add(f.ctx, f.bob.ID, b.ID)
		f.mem.AddNotification(notification.Record{Kind: notification.ContactOwner, RecipientID: f.owner.ID, ActorID: f.alice.ID, BookID: &b.ID})
		require.NoError(t, f.engine.Sweep(f.ctx))
		return f, b, f.only(f.owner.ID, notification.LoanExpired)
	}

	t.Run("returned", func(t *testing.T) {
		f, b, expired := setup(t)

		require.NoError(t, f.engine.ResolveExpiredLoan(f.ctx, f.owner.ID, b.ID, expired.ID, true))

		stored, ok := f.mem.Book(b.ID)
		require.True(t, ok)
		assert.Nil(t, stored.BorrowerID)
		assert.Equal(t, []notification.Kind{notification.EvaluateBorrower}, f.kindsFor(f.owner.ID))
		assert.Equal(t, []notification.Kind{notification.EvaluateOwner}, f.kindsFor(f.alice.ID))
		assert.Equal(t, []notification.Kind{notification.BookAvailable}, f.kindsFor(f.bob.ID))

		err := f.engine.ResolveExpiredLoan(f.ctx, f.owner.ID, b.ID, expired.ID, true)
		assert.ErrorIs(t, err, ErrNotificationNotFound)
	})

	t.Run("never returned deletes the book", func(t *testing.T) {
		f, b, expired := setup(t)

		require.NoError(t, f.engine.ResolveExpiredLoan(f.ctx, f.owner.ID, b.ID, expired.ID, false))

		_, ok := f.mem.Book(b.ID)
		assert.False(t, ok)
		assert.Equal(t, []string{b.ID}, f.mem.CoversDeleted)
		eval := f.only(f.owner.ID, notification.EvaluateBorrower)
		assert.Nil(t, eval.BookID)
		assert.Equal(t, "Solaris", eval.BookTitle)
		assert.Equal(t, f.alice.ID, eval.ActorID)
		assert.Len(t, f.mem.NotificationsFor(f.owner.ID), 1)
		assert.Empty(t, f.kindsFor(f.bob.ID), "no wait-list fan-out")
		assert.Empty(t, f.mem.AllWaitList())
	})

	t.Run("wrong notification kind", func(t *testing.T) {
		f, b, _ := setup(t)
		other := f.mem.AddNotification(notification.Record{Kind: notification.EvaluateOwner, RecipientID: f.owner.ID, BookID: &b.ID})
		assert.ErrorIs(t, f.engine.ResolveExpiredLoan(f.ctx, f.owner.ID, b.ID, other.ID, true), ErrWrongNotification)
	})

	t.Run("duplicate expiry flags are cleared together", func(t *testing.T) {
		f, b, expired := setup(t)
		f.mem.AddNotification(notification.Record{Kind: notification.LoanExpired, RecipientID: f.owner.ID, ActorID: f.alice.ID, BookID: &b.ID})

		require.NoError(t, f.engine.ResolveExpiredLoan(f.ctx, f.owner.ID, b.ID, expired.ID, true))
		assert.NotContains(t, f.kindsFor(f.owner.ID), notification.LoanExpired)

		require.NoError(t, f.mem.Books().SetBorrower(f.ctx, b.ID, f.bob.ID, dateOf(f.clock.Now())))
		require.NoError(t, f.engine.ReturnVoluntarily(f.ctx, f.owner.ID, b.ID, false))

		f.clock.Advance(5 + DeletionGraceDays)
		require.NoError(t, f.engine.Sweep(f.ctx))
		_, ok := f.mem.Book(b.ID)
		assert.False(t, ok, "abandoned second loan is removed")
	})

	t.Run("evaluates the current borrower", func(t *testing.T) {
		f, b, _ := setup(t)
		stale := f.mem.AddNotification(notification.Record{Kind: notification.LoanExpired, RecipientID: f.owner.ID, ActorID: f.bob.ID, BookID: &b.ID})

		require.NoError(t, f.engine.ResolveExpiredLoan(f.ctx, f.owner.ID, b.ID, stale.ID, false))

		eval := f.only(f.owner.ID, notification.EvaluateBorrower)
		assert.Equal(t, f.alice.ID, eval.ActorID)
		assert.Len(t, f.mem.NotificationsFor(f.owner.ID), 1)
	})
}

func TestSubmitReview(t *testing.T) {
	f := newFixture(t)
	f.deliverAll()
	b := f.lentBook(f.alice.ID, 14, 3)
	require.NoError(t, f.engine.ReturnVoluntarily(f.ctx, f.owner.ID, b.ID, true))

	ownerPrompt := f.only(f.owner.ID, notification.EvaluateBorrower)
	alicePrompt := f.only(f.alice.ID, notification.EvaluateOwner)

	t.Run("validation", func(t *testing.T) {
		_, err := f.engine.SubmitReview(f.ctx, Review{AuthorID: f.owner.ID, SubjectID: f.alice.ID, NotificationID: ownerPrompt.ID, Score: 6})
		assert.ErrorIs(t, err, ErrInvalidScore)
		_, err = f.engine.SubmitReview(f.ctx, Review{AuthorID: f.owner.ID, SubjectID: f.bob.ID, NotificationID: ownerPrompt.ID, Score: 3})
		assert.ErrorIs(t, err, ErrWrongNotification)
		_, err = f.engine.SubmitReview(f.ctx, Review{AuthorID: f.bob.ID, SubjectID: f.alice.ID, NotificationID: ownerPrompt.ID, Score: 3})
		assert.ErrorIs(t, err, ErrNotRecipient)
	})

	avg, err := f.engine.SubmitReview(f.ctx, Review{AuthorID: f.owner.ID, SubjectID: f.alice.ID, NotificationID: ownerPrompt.ID, Score: 4})
	require.NoError(t, err)
	assert.InDelta(t, 4.0, *avg, 1e-9)
	assert.Empty(t, f.kindsFor(f.owner.ID), "prompt consumed")

	_, err = f.engine.SubmitReview(f.ctx, Review{AuthorID: f.owner.ID, SubjectID: f.alice.ID, NotificationID: ownerPrompt.ID, Score: 4})
	assert.ErrorIs(t, err, ErrNotificationNotFound)

	// a second loan gives a second review of alice
	b2 := f.lentBook(f.alice.ID, 14, 1)
	require.NoError(t, f.engine.ReturnVoluntarily(f.ctx, f.owner.ID, b2.ID, true))
	second := f.only(f.owner.ID, notification.EvaluateBorrower)
	avg, err = f.engine.SubmitReview(f.ctx, Review{AuthorID: f.owner.ID, SubjectID: f.alice.ID, NotificationID: second.ID, Score: 1.5})
	require.NoError(t, err)
	assert.InDelta(t, (4.0+1.5)/2, *avg, 1e-9)
	assert.InDelta(t, (4.0+1.5)/2, *f.mem.User(f.alice.ID).AverageScore, 1e-9)

	ownerBefore := f.mem.User(f.owner.ID).AverageScore
	assert.Nil(t, ownerBefore, "no reviews means no average")
	_, err = f.engine.SubmitReview(f.ctx, Review{AuthorID: f.alice.ID, SubjectID: f.owner.ID, NotificationID: alicePrompt.ID, Score: 5})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, *f.mem.User(f.owner.ID).AverageScore, 1e-9)
}

func TestSubmitReview_SubjectGone(t *testing.T) {
	f := newFixture(t)
	prompt := f.mem.AddNotification(notification.Record{Kind: notification.EvaluateOwner,
		RecipientID: f.alice.ID, ActorID: "ghost"})

	_, err := f.engine.SubmitReview(f.ctx, Review{AuthorID: f.alice.ID, SubjectID: "ghost", NotificationID: prompt.ID, Score: 2})
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Len(t, f.mem.AllNotifications(), 1)
}

func TestDetail(t *testing.T) {
	f := newFixture(t)
	f.deliverAll()
	b := f.freeBook()
	require.NoError(t, f.engine.RequestBorrow(f.ctx, f.bob.ID, b.ID))
	require.NoError(t, f.engine.RequestAvailabilityNotice(f.ctx, f.alice.ID, b.ID))

	mine, err := f.engine.Detail(f.ctx, f.owner.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, mine.MyBook)
	assert.False(t, mine.Requesting)

	bobs, err := f.engine.Detail(f.ctx, f.bob.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, bobs.MyBook)
	assert.True(t, bobs.Requesting)
	assert.False(t, bobs.RequestingNotification)

	alices, err := f.engine.Detail(f.ctx, f.alice.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, alices.RequestingNotification)

	t.Run("due date of a running loan", func(t *testing.T) {
		lent := f.lentBook(f.alice.ID, 10, 3)
		d, err := f.engine.Detail(f.ctx, f.alice.ID, lent.ID)
		require.NoError(t, err)
		assert.True(t, d.Borrowing)
		require.NotNil(t, d.DueOn)
		assert.Equal(t, dateOf(f.clock.Now()).AddDate(0, 0, 7), *d.DueOn)
	})

	t.Run("restricted book hidden from minors", func(t *testing.T) {
		teen := f.mem.AddUser(user.User{Name: "Teen", BirthDate: lo.ToPtr(f.clock.Now().AddDate(-15, 0, 0))})
		noBirthDate := f.mem.AddUser(user.User{Name: "Anon"})
		restricted := f.mem.AddBook(book.Book{OwnerID: f.owner.ID, Title: "Adult", AgeRestricted: true, MaxLoanDays: 7})

		_, err := f.engine.Detail(f.ctx, teen.ID, restricted.ID)
		assert.ErrorIs(t, err, ErrBookNotFound)
		_, err = f.engine.Detail(f.ctx, noBirthDate.ID, restricted.ID)
		assert.ErrorIs(t, err, ErrBookNotFound)
		_, err = f.engine.Detail(f.ctx, f.bob.ID, restricted.ID)
		assert.NoError(t, err)
	})
}

func TestElapsedDays(t *testing.T) {
	borrowed := time.Date(2024, time.February, 28, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 2, elapsedDays(borrowed, time.Date(2024, time.March, 1, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, 0, elapsedDays(borrowed, borrowed.Add(5*time.Hour)))

	tokyo := time.FixedZone("JST", 9*60*60)
	assert.Equal(t, time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC), dateOf(time.Date(2024, time.March, 11, 2, 0, 0, 0, tokyo)))
	assert.Equal(t, 1, elapsedDays(borrowed, time.Date(2024, time.March, 1, 8, 0, 0, 0, tokyo)))
}
