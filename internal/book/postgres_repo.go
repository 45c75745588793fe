package book

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// arraySep joins array parameters for string_to_array; goqu would otherwise
// expand a Go slice into a value list.
const arraySep = "\x1f"

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

func (r *PostgresRepo) Create(ctx context.Context, b *Book) error {
	const query = `
		INSERT INTO books (owner_id, title, author, condition, description, price, age_restricted,
		                   max_loan_days, genres, hand_over, location, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		RETURNING id, created_at
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.db.QueryRow(timeoutCtx, query,
		b.OwnerID, b.Title, b.Author, b.Condition, b.Description, b.Price, b.AgeRestricted,
		b.MaxLoanDays, b.Genres, handOverStrings(b.HandOver), b.Location,
	).Scan(&b.ID, &b.CreatedAt)
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Book, error) {
	books, err := r.selectBooks(ctx, selectBase().Where(goqu.I("b.id").Eq(id)).Limit(1))
	if err != nil {
		return Book{}, err
	}
	if len(books) == 0 {
		return Book{}, ErrNotFound
	}
	return books[0], nil
}

// List returns the books matching f. Ordering is left to the caller.
func (r *PostgresRepo) List(ctx context.Context, f Filter) ([]Book, error) {
	return r.selectBooks(ctx, selectBase().Where(filterExpressions(f)...))
}

func (r *PostgresRepo) ListByOwner(ctx context.Context, ownerID string) ([]Book, error) {
	return r.selectBooks(ctx, selectBase().
		Where(goqu.I("b.owner_id").Eq(ownerID)).
		Order(goqu.I("b.created_at").Desc()))
}

func (r *PostgresRepo) ListBorrowed(ctx context.Context) ([]Book, error) {
	return r.selectBooks(ctx, selectBase().
		Where(goqu.I("b.borrower_id").IsNotNull()).
		Order(goqu.I("b.borrowed_on").Asc(), goqu.I("b.id").Asc()))
}

func (r *PostgresRepo) SetBorrower(ctx context.Context, id, borrowerID string, on time.Time) error {
	const query = `
		UPDATE books SET borrower_id = $1, borrowed_on = $2
		WHERE id = $3 AND borrower_id IS NULL
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, query, borrowerID, on, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyBorrowed
	}
	return nil
}

func (r *PostgresRepo) ClearBorrower(ctx context.Context, id string) error {
	const query = `UPDATE books SET borrower_id = NULL, borrowed_on = NULL WHERE id = $1`
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

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM books WHERE id = $1`
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

func selectBase() *goqu.SelectDataset {
	return dialect.From(goqu.T("books").As("b")).
		Prepared(true).
		LeftJoin(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("b.owner_id")))).
		Select(
			goqu.I("b.id"), goqu.I("b.owner_id"), goqu.COALESCE(goqu.I("u.name"), ""),
			goqu.I("u.average_score"), goqu.I("b.borrower_id"), goqu.I("b.title"),
			goqu.I("b.author"), goqu.I("b.condition"), goqu.I("b.description"),
			goqu.L("b.price::FLOAT"), goqu.I("b.age_restricted"), goqu.I("b.max_loan_days"),
			goqu.I("b.borrowed_on"), goqu.I("b.genres"), goqu.I("b.hand_over"),
			goqu.I("b.location"), goqu.I("b.created_at"),
		)
}

func filterExpressions(f Filter) []exp.Expression {
	var where []exp.Expression
	if s := strings.TrimSpace(f.TitleContains); s != "" {
		where = append(where, goqu.I("b.title").ILike(likePattern(s)))
	}
	if s := strings.TrimSpace(f.AuthorContains); s != "" {
		where = append(where, goqu.I("b.author").ILike(likePattern(s)))
	}
	if f.MaxPrice != nil {
		where = append(where, goqu.I("b.price").Lte(*f.MaxPrice))
	}
	if len(f.Genres) > 0 {
		where = append(where, goqu.L("b.genres @> string_to_array(?, ?)", strings.Join(f.Genres, arraySep), arraySep))
	}
	if len(f.HandOver) > 0 {
		where = append(where, goqu.L("b.hand_over @> string_to_array(?, ?)", strings.Join(handOverStrings(f.HandOver), arraySep), arraySep))
	}
	if f.Available != nil {
		if *f.Available {
			where = append(where, goqu.I("b.borrower_id").IsNull())
		} else {
			where = append(where, goqu.I("b.borrower_id").IsNotNull())
		}
	}
	return where
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func (r *PostgresRepo) selectBooks(ctx context.Context, ds *goqu.SelectDataset) ([]Book, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, err
	}
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanBook)
}

func scanBook(row pgx.CollectableRow) (Book, error) {
	var (
		b        Book
		handOver []string
	)
	err := row.Scan(
		&b.ID, &b.OwnerID, &b.OwnerName, &b.OwnerScore, &b.BorrowerID, &b.Title,
		&b.Author, &b.Condition, &b.Description, &b.Price, &b.AgeRestricted, &b.MaxLoanDays,
		&b.BorrowedOn, &b.Genres, &handOver, &b.Location, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	b.HandOver = make([]HandOver, len(handOver))
	for i, h := range handOver {
		b.HandOver[i] = HandOver(h)
	}
	if b.Genres == nil {
		b.Genres = []string{}
	}
	return b, nil
}

func handOverStrings(hs []HandOver) []string {
	out := make([]string, len(hs))
	for i, h := range hs {
		out[i] = string(h)
	}
	return out
}
