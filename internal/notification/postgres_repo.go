package notification

import (
	"context"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	tableNotifications = "notifications"
	colKind            = "kind"
	colRecipientID     = "recipient_id"
	colActorID         = "actor_id"
	colBookID          = "book_id"
)

var dialect = goqu.Dialect("postgres")

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

func (r *PostgresRepo) Create(ctx context.Context, rec *Record) error {
	const query = `
		INSERT INTO notifications (kind, recipient_id, actor_id, book_id, book_title, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.db.QueryRow(timeoutCtx, query,
		string(rec.Kind), rec.RecipientID, rec.ActorID, rec.BookID, rec.BookTitle,
	).Scan(&rec.ID, &rec.CreatedAt)
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Record, error) {
	const query = `
		SELECT n.id, n.kind, n.recipient_id, n.actor_id, COALESCE(u.name, ''), n.book_id, n.book_title, n.created_at
		FROM notifications n
		LEFT JOIN users u ON u.id = n.actor_id
		WHERE n.id = $1
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rec, err := scanRecord(r.db.QueryRow(timeoutCtx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

// Delete removes a single record. A missing row yields ErrNotFound, which
// callers use to detect a concurrent resolution of the same notification.
func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM notifications WHERE id = $1`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) DeleteMatching(ctx context.Context, m Match) (int64, error) {
	if m.Empty() {
		return 0, ErrEmptyMatch
	}
	query, args, err := dialect.Delete(tableNotifications).
		Prepared(true).
		Where(matchExpression(m, "")).
		ToSQL()
	if err != nil {
		return 0, err
	}
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresRepo) ListMatching(ctx context.Context, m Match) ([]Record, error) {
	if m.Empty() {
		return nil, ErrEmptyMatch
	}
	return r.list(ctx, matchExpression(m, "n"))
}

func (r *PostgresRepo) ListForRecipient(ctx context.Context, recipientID string) ([]Record, error) {
	return r.list(ctx, goqu.Ex{"n." + colRecipientID: recipientID})
}

func (r *PostgresRepo) list(ctx context.Context, where exp.Expression) ([]Record, error) {
	query, args, err := dialect.From(goqu.T(tableNotifications).As("n")).
		Prepared(true).
		LeftJoin(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("n.actor_id")))).
		Select(
			goqu.I("n.id"), goqu.I("n.kind"), goqu.I("n.recipient_id"), goqu.I("n.actor_id"),
			goqu.COALESCE(goqu.I("u.name"), ""), goqu.I("n.book_id"), goqu.I("n.book_title"),
			goqu.I("n.created_at"),
		).
		Where(where).
		Order(goqu.I("n.created_at").Desc(), goqu.I("n.id").Desc()).
		ToSQL()
	if err != nil {
		return nil, err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		rec  Record
		kind string
	)
	err := row.Scan(&rec.ID, &kind, &rec.RecipientID, &rec.ActorID, &rec.ActorName,
		&rec.BookID, &rec.BookTitle, &rec.CreatedAt)
	rec.Kind = Kind(kind)
	return rec, err
}

// matchExpression renders m as a goqu condition; prefix qualifies the columns.
func matchExpression(m Match, prefix string) exp.Expression {
	col := func(name string) string {
		if prefix == "" {
			return name
		}
		return prefix + "." + name
	}

	ex := goqu.Ex{}
	if m.BookID != "" {
		ex[col(colBookID)] = m.BookID
	}
	if len(m.Kinds) > 0 {
		kinds := make([]string, len(m.Kinds))
		for i, k := range m.Kinds {
			kinds[i] = string(k)
		}
		ex[col(colKind)] = kinds
	}
	if len(m.RecipientIn) > 0 {
		ex[col(colRecipientID)] = m.RecipientIn
	} else if m.RecipientID != "" {
		ex[col(colRecipientID)] = m.RecipientID
	}
	if m.ActorID != "" {
		ex[col(colActorID)] = m.ActorID
	}
	return ex
}
