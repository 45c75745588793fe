package main

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"time"

	"booklend/internal/book"
	"booklend/internal/config"
	"booklend/internal/platform/covers"
	"booklend/internal/platform/crypto"
	"booklend/internal/user"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const tokenTTL = 30 * 24 * time.Hour

var demoUsers = []user.User{
	{Name: "Olga Owner", Email: "olga@example.com", BirthDate: lo.ToPtr(time.Date(1984, time.March, 3, 0, 0, 0, 0, time.UTC)), PostalCode: lo.ToPtr("1010")},
	{Name: "Ben Borrower", Email: "ben@example.com", BirthDate: lo.ToPtr(time.Date(1996, time.July, 21, 0, 0, 0, 0, time.UTC))},
	{Name: "Tina Teen", Email: "tina@example.com", BirthDate: lo.ToPtr(time.Now().AddDate(-15, 0, 0))},
}

var titles = []struct {
	title, author string
	genres        []string
}{
	{"Dune", "Frank Herbert", []string{"Science Fiction"}},
	{"Emma", "Jane Austen", []string{"Classic", "Romance"}},
	{"The Name of the Rose", "Umberto Eco", []string{"Mystery", "History"}},
	{"Solaris", "Stanislaw Lem", []string{"Science Fiction", "Philosophy"}},
	{"Middlemarch", "George Eliot", []string{"Classic"}},
	{"The Left Hand of Darkness", "Ursula K. Le Guin", []string{"Science Fiction"}},
	{"Lolita", "Vladimir Nabokov", []string{"Classic"}},
	{"A Brief History of Time", "Stephen Hawking", []string{"Science"}},
}

func main() {
	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	coverStore, err := covers.NewFileStore(cfg.CoversDir)
	if err != nil {
		logger.Fatal("covers directory", zap.Error(err))
	}
	users := user.NewPostgresRepo(pool, cfg.DB.Timeout)
	books := book.NewService(book.NewPostgresRepo(pool, cfg.DB.Timeout), coverStore, logger)

	var created []user.User
	for _, u := range demoUsers {
		if err := users.Create(ctx, &u); err != nil {
			if errors.Is(err, user.ErrAlreadyExists) {
				logger.Info("demo user exists, database already seeded", zap.String("email", u.Email))
				return
			}
			logger.Fatal("create user", zap.String("email", u.Email), zap.Error(err))
		}
		created = append(created, u)
	}

	owners := created[:2]
	for i, t := range titles {
		owner := owners[i%len(owners)]
		handOver := []book.HandOver{book.InPerson}
		if i%3 == 0 {
			handOver = append(handOver, book.Postal)
		}
		b, err := books.Create(ctx, owner.ID, book.Draft{
			Title:         t.title,
			Author:        t.author,
			Condition:     "good",
			Price:         float64(rand.Intn(12)) + 0.5,
			AgeRestricted: t.title == "Lolita",
			MaxLoanDays:   7 + rand.Intn(4)*7,
			Genres:        t.genres,
			HandOver:      handOver,
			Location:      "Vienna",
		})
		if err != nil {
			logger.Fatal("create book", zap.String("title", t.title), zap.Error(err))
		}
		logger.Info("book created", zap.String("id", b.ID), zap.String("title", b.Title), zap.String("owner", owner.Name))
	}

	for _, u := range created {
		token, err := crypto.GenerateToken(cfg.JWTSecret, u.ID, tokenTTL)
		if err != nil {
			logger.Fatal("mint token", zap.Error(err))
		}
		logger.Info("demo user", zap.String("name", u.Name), zap.String("id", u.ID), zap.String("token", token))
	}
}
