package main

import (
	"context"
	"net/http"
	"time"

	"booklend/internal/book"
	"booklend/internal/catalog"
	"booklend/internal/httpx"
	"booklend/internal/lending"
	"booklend/internal/notification"
	"booklend/internal/review"
	"booklend/internal/user"
	"booklend/internal/waitlist"

	"go.uber.org/zap"
)

// Pinger reports database readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type stores struct {
	users         user.Repository
	books         book.Repository
	notifications notification.Repository
	waitList      waitlist.Repository
	reviews       review.Repository
}

type routerDeps struct {
	stores     stores
	covers     book.CoverStore
	dispatcher lending.Dispatcher
	clock      lending.Clock
	db         Pinger
	jwtSecret  string
	logger     *zap.Logger
}

// newRouter wires services and handlers onto a mux. Everything except the
// probes requires a bearer token.
func newRouter(d routerDeps) http.Handler {
	ledger := review.NewLedger(d.stores.reviews, d.stores.users)
	engine := lending.NewEngine(lending.Deps{
		Books:         d.stores.books,
		Notifications: d.stores.notifications,
		WaitList:      d.stores.waitList,
		Users:         d.stores.users,
		Ledger:        ledger,
		Dispatcher:    d.dispatcher,
		Covers:        d.covers,
		Clock:         d.clock,
		Logger:        d.logger.Named("lending"),
	})

	lendingHandler := lending.NewHTTPHandler(engine, d.logger)
	catalogHandler := catalog.NewHTTPHandler(catalog.NewService(d.stores.books, engine, engine), d.logger)
	bookHandler := book.NewHTTPHandler(book.NewService(d.stores.books, d.covers, d.logger.Named("book")))
	userHandler := user.NewHTTPHandler(user.NewService(d.stores.users))
	notificationHandler := notification.NewHTTPHandler(notification.NewService(d.stores.notifications))
	waitListHandler := waitlist.NewHTTPHandler(waitlist.NewService(d.stores.waitList))
	reviewHandler := review.NewHTTPHandler(ledger)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := d.db.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	auth := httpx.AuthMiddleware(d.jwtSecret)
	protect := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, auth(h))
	}

	protect("GET /books", catalogHandler.All)
	protect("GET /books/filter", catalogHandler.Filter)
	protect("GET /books/{query}", catalogHandler.Search)

	protect("POST /book", bookHandler.Create)
	protect("GET /book/{id}", lendingHandler.Detail)
	protect("DELETE /book/{id}", bookHandler.Delete)
	protect("PUT /book/{id}/cover", bookHandler.UploadCover)
	protect("POST /book/{id}/borrow", lendingHandler.Borrow)
	protect("POST /book/{id}/notifyMe", lendingHandler.NotifyMe)
	protect("DELETE /book/{id}/deleteRequest", lendingHandler.DeleteRequest)
	protect("POST /book/{id}/returnSoon", lendingHandler.ReturnSoon)
	protect("POST /book/{id}/returnLate", lendingHandler.ReturnLate)
	protect("POST /book/{id}/answer", lendingHandler.Answer)

	protect("GET /user/me", userHandler.GetMe)
	protect("PATCH /user/me", userHandler.UpdateMe)
	protect("GET /user/books", bookHandler.ListMine)
	protect("GET /user/waitlist", waitListHandler.ListMine)
	protect("GET /user/notifications", notificationHandler.List)
	protect("DELETE /user/notifications/{id}", notificationHandler.Dismiss)
	protect("GET /user/{id}", userHandler.GetProfile)
	protect("GET /user/{id}/reviews", reviewHandler.ListForUser)
	protect("POST /user/{id}/review", lendingHandler.Review)

	return mux
}
