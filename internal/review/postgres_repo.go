package review

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

func (repo *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, repo.timeout)
}

func (repo *PostgresRepo) Insert(ctx context.Context, r *Review) error {
	const query = `
		INSERT INTO reviews (author_id, subject_id, score, content, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`
	timeoutCtx, cancel := repo.withTimeout(ctx)
	defer cancel()
	return repo.db.QueryRow(timeoutCtx, query, r.AuthorID, r.SubjectID, r.Score, r.Content).
		Scan(&r.ID, &r.CreatedAt)
}

func (repo *PostgresRepo) Totals(ctx context.Context, subjectID string) (float64, int, error) {
	const query = `
		SELECT COALESCE(SUM(score), 0)::FLOAT, COUNT(*)
		FROM reviews
		WHERE subject_id = $1
	`
	var (
		sum   float64
		count int
	)
	timeoutCtx, cancel := repo.withTimeout(ctx)
	defer cancel()
	if err := repo.db.QueryRow(timeoutCtx, query, subjectID).Scan(&sum, &count); err != nil {
		return 0, 0, err
	}
	return sum, count, nil
}

func (repo *PostgresRepo) ListBySubject(ctx context.Context, subjectID string) ([]Review, error) {
	const query = `
		SELECT r.id, r.author_id, COALESCE(u.name, ''), r.subject_id, r.score, r.content, r.created_at
		FROM reviews r
		LEFT JOIN users u ON u.id = r.author_id
		WHERE r.subject_id = $1
		ORDER BY r.created_at DESC, r.id DESC
	`
	timeoutCtx, cancel := repo.withTimeout(ctx)
	defer cancel()
	rows, err := repo.db.Query(timeoutCtx, query, subjectID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Review, error) {
		var r Review
		err := row.Scan(&r.ID, &r.AuthorID, &r.AuthorName, &r.SubjectID, &r.Score, &r.Content, &r.CreatedAt)
		return r, err
	})
}
