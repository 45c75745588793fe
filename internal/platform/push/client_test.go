package push

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"booklend/internal/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testRecord() notification.Record {
	bookID := "book-1"
	return notification.Record{
		ID:          "n-1",
		Kind:        notification.BorrowRequested,
		RecipientID: "owner-1",
		ActorID:     "user-1",
		BookID:      &bookID,
		BookTitle:   "Dune",
	}
}

func TestClient_Dispatch(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		var got payload
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &got))
			w.WriteHeader(http.StatusAccepted)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, 100, time.Second, zap.NewNop())
		assert.True(t, c.Dispatch(context.Background(), testRecord()))
		assert.Equal(t, "owner-1", got.RecipientID)
		assert.Equal(t, notification.BorrowRequested, got.Kind)
		assert.Equal(t, "New borrow request", got.Title)
		assert.Contains(t, got.Body, `"Dune"`)
	})

	t.Run("gateway error is a single failed attempt", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, 100, time.Second, zap.NewNop())
		assert.False(t, c.Dispatch(context.Background(), testRecord()))
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("unreachable gateway", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		c := NewClient(url, 100, time.Second, zap.NewNop())
		assert.False(t, c.Dispatch(context.Background(), testRecord()))
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		c := NewClient("http://127.0.0.1:1", 100, time.Second, zap.NewNop())
		assert.False(t, c.Dispatch(ctx, testRecord()))
	})
}

func TestLogDispatcher(t *testing.T) {
	d := NewLogDispatcher(zap.NewNop())
	assert.True(t, d.Dispatch(context.Background(), testRecord()))
}

func TestCompose(t *testing.T) {
	rec := testRecord()
	rec.ActorName = "Ana"
	assert.Equal(t, "Ana would like to borrow \"Dune\".", Compose(rec).Body)

	rec.Kind = notification.BookAvailable
	assert.Equal(t, "\"Dune\" is available again.", Compose(rec).Body)

	rec.BookTitle = ""
	assert.Equal(t, "A book is available again.", Compose(rec).Body)

	for _, k := range notification.Kinds() {
		rec.Kind = k
		assert.NotEqual(t, "You have a new notification.", Compose(rec).Body, k)
	}
}
