package push

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"booklend/internal/notification"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client posts notifications to an HTTP push gateway. Every record gets a
// single delivery attempt; retrying is left to the user.
type Client struct {
	httpClient *http.Client
	endpoint   string
	limiter    *rate.Limiter
	logger     *zap.Logger
}

func NewClient(endpoint string, rps float64, timeout time.Duration, logger *zap.Logger) *Client {
	if rps <= 0 {
		rps = 10
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

type payload struct {
	NotificationID string            `json:"notificationId"`
	RecipientID    string            `json:"recipientId"`
	Kind           notification.Kind `json:"kind"`
	BookID         *string           `json:"bookId,omitempty"`
	Message
}

// Dispatch reports whether the gateway accepted the alert.
func (c *Client) Dispatch(ctx context.Context, rec notification.Record) bool {
	if err := c.send(ctx, rec); err != nil {
		c.logger.Warn("push delivery failed",
			zap.String("notification_id", rec.ID),
			zap.String("kind", string(rec.Kind)),
			zap.String("recipient_id", rec.RecipientID),
			zap.Error(err),
		)
		return false
	}
	return true
}

func (c *Client) send(ctx context.Context, rec notification.Record) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(payload{
		NotificationID: rec.ID,
		RecipientID:    rec.RecipientID,
		Kind:           rec.Kind,
		BookID:         rec.BookID,
		Message:        Compose(rec),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}

// LogDispatcher writes alerts to the log instead of delivering them. It is
// used when no gateway is configured and always succeeds.
type LogDispatcher struct {
	logger *zap.Logger
}

func NewLogDispatcher(logger *zap.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Dispatch(_ context.Context, rec notification.Record) bool {
	msg := Compose(rec)
	d.logger.Info("push",
		zap.String("notification_id", rec.ID),
		zap.String("kind", string(rec.Kind)),
		zap.String("recipient_id", rec.RecipientID),
		zap.String("title", msg.Title),
		zap.String("body", msg.Body),
	)
	return true
}
