package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

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

func (r *PostgresRepo) Create(ctx context.Context, u *User) error {
	const query = `
	INSERT INTO users (name, email, birth_date, postal_code)
	VALUES ($1, $2, $3, $4)
	RETURNING id, created_at, updated_at
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, query, u.Name, strings.ToLower(u.Email), u.BirthDate, u.PostalCode).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrAlreadyExists
	}
	return err
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (User, error) {
	const query = `
	SELECT u.id, u.name, u.email, u.birth_date, u.postal_code, u.average_score,
	       (SELECT COUNT(*) FROM reviews rv WHERE rv.subject_id = u.id),
	       u.created_at, u.updated_at
	FROM users u WHERE u.id = $1 LIMIT 1
	`
	var u User
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, query, id).Scan(
		&u.ID, &u.Name, &u.Email, &u.BirthDate, &u.PostalCode, &u.AverageScore,
		&u.ReviewCount, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepo) Update(ctx context.Context, id string, upd Update) error {
	if upd.Empty() {
		return nil
	}
	query, args, err := updateQuery(id, upd)
	if err != nil {
		return err
	}
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func updateQuery(id string, upd Update) (string, []interface{}, error) {
	rec := goqu.Record{"updated_at": goqu.L("NOW()")}
	if upd.Name != nil {
		rec["name"] = *upd.Name
	}
	if upd.BirthDate != nil {
		rec["birth_date"] = *upd.BirthDate
	}
	if upd.PostalCode != nil {
		// an empty string removes the postal code
		if *upd.PostalCode == "" {
			rec["postal_code"] = nil
		} else {
			rec["postal_code"] = *upd.PostalCode
		}
	}
	return goqu.Dialect("postgres").Update("users").
		Prepared(true).
		Set(rec).
		Where(goqu.Ex{"id": id}).
		ToSQL()
}

func (r *PostgresRepo) SetAverageScore(ctx context.Context, id string, avg *float64) error {
	const query = `UPDATE users SET average_score = $1, updated_at = NOW() WHERE id = $2`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, query, avg, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
