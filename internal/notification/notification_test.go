package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch_Matches(t *testing.T) {
	bookID := "book-1"
	rec := Record{Kind: ContactOwner, RecipientID: "owner", ActorID: "borrower", BookID: &bookID}

	tests := []struct {
		name  string
		match Match
		want  bool
	}{
		{"book and kind", Match{BookID: "book-1", Kinds: []Kind{ContactOwner, ContactBorrower}}, true},
		{"other book", Match{BookID: "book-2"}, false},
		{"kind mismatch", Match{Kinds: []Kind{BorrowRequested}}, false},
		{"recipient in", Match{RecipientIn: []string{"borrower", "owner"}}, true},
		{"recipient in wins over recipient", Match{RecipientID: "nobody", RecipientIn: []string{"owner"}}, true},
		{"actor mismatch", Match{ActorID: "owner"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.match.Matches(rec))
		})
	}

	orphan := Record{Kind: EvaluateBorrower, RecipientID: "owner"}
	assert.False(t, Match{BookID: "book-1"}.Matches(orphan))
}

func TestKind(t *testing.T) {
	for _, k := range Kinds() {
		assert.True(t, k.Valid(), k)
	}
	assert.False(t, Kind("Unknown").Valid())

	assert.True(t, BorrowRequested.Actionable())
	assert.False(t, BookAvailable.Actionable())
	assert.False(t, LoanExpired.Dismissible())
	assert.True(t, EvaluateOwner.Dismissible())
	assert.True(t, EvaluateBorrower.IsEvaluation())
}

func TestMatchExpression_SQL(t *testing.T) {
	m := Match{BookID: "b1", Kinds: []Kind{BorrowRequested, BookAvailable}}

	query, args, err := dialect.Delete(tableNotifications).Prepared(true).Where(matchExpression(m, "")).ToSQL()
	require.NoError(t, err)
	assert.Contains(t, query, `DELETE FROM "notifications"`)
	assert.Contains(t, query, `"book_id" = $1`)
	assert.Contains(t, query, `"kind" IN ($2, $3)`)
	assert.Equal(t, []interface{}{"b1", "BorrowRequested", "BookAvailable"}, args)
}

func TestPostgresRepo_EmptyMatchRejected(t *testing.T) {
	repo := &PostgresRepo{}
	_, err := repo.DeleteMatching(t.Context(), Match{})
	assert.ErrorIs(t, err, ErrEmptyMatch)
}
