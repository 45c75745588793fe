package waitlist

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

var _ Repository = (*PostgresRepo)(nil)

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepo) Add(ctx context.Context, userID, bookID string) (Entry, error) {
	const query = `
		INSERT INTO wait_list (user_id, book_id, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, user_id, book_id, created_at
	`
	var e Entry
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, query, userID, bookID).Scan(&e.ID, &e.UserID, &e.BookID, &e.CreatedAt)
	return e, err
}

func (r *PostgresRepo) DeleteForUser(ctx context.Context, userID, bookID string) (int64, error) {
	const query = `DELETE FROM wait_list WHERE user_id = $1 AND book_id = $2`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, query, userID, bookID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresRepo) ListByBook(ctx context.Context, bookID string) ([]Entry, error) {
	const query = `
		SELECT w.id, w.user_id, w.book_id, b.title, w.created_at
		FROM wait_list w
		JOIN books b ON b.id = w.book_id
		WHERE w.book_id = $1
		ORDER BY w.created_at ASC, w.id ASC
	`
	return r.list(ctx, query, bookID)
}

func (r *PostgresRepo) ListByUser(ctx context.Context, userID string) ([]Entry, error) {
	const query = `
		SELECT w.id, w.user_id, w.book_id, b.title, w.created_at
		FROM wait_list w
		JOIN books b ON b.id = w.book_id
		WHERE w.user_id = $1
		ORDER BY w.created_at DESC, w.id DESC
	`
	return r.list(ctx, query, userID)
}

func (r *PostgresRepo) list(ctx context.Context, query string, arg string) ([]Entry, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, arg)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var e Entry
		err := row.Scan(&e.ID, &e.UserID, &e.BookID, &e.BookTitle, &e.CreatedAt)
		return e, err
	})
}
