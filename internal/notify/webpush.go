package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/dotcommander/nowpanel/internal/store"
)

// WebPushConfig holds the VAPID identity used to sign pushes.
type WebPushConfig struct {
	PublicKey  string
	PrivateKey string
	Subscriber string
	TTL        int
	// HTTPClient overrides the client used for delivery, for tests.
	HTTPClient webpush.HTTPClient
}

type pushPayload struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	TaskID string `json:"task_id"`
	Tag    string `json:"tag"`
}

// WebPush sends to every subscription stored in the block store database.
// Subscriptions answered with 410 Gone are removed.
type WebPush struct {
	db     *sql.DB
	cfg    WebPushConfig
	logger *slog.Logger
}

// NewWebPush requires both VAPID keys.
func NewWebPush(db *sql.DB, cfg WebPushConfig, logger *slog.Logger) (*WebPush, error) {
	if cfg.PublicKey == "" || cfg.PrivateKey == "" {
		return nil, fmt.Errorf("web push needs both VAPID keys")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 86400
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WebPush{db: db, cfg: cfg, logger: logger}, nil
}

// Notify delivers n to every subscriber. Per-subscription failures are
// logged; only a failure to list subscriptions is returned.
func (w *WebPush) Notify(ctx context.Context, n Notification) error {
	subs, err := store.ListPushSubscriptions(ctx, w.db)
	if err != nil {
		return fmt.Errorf("failed to list push subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return nil
	}

	data, err := json.Marshal(pushPayload{Title: n.Title, Body: n.Body, TaskID: n.TaskID, Tag: "resurfaced-" + n.TaskID})
	if err != nil {
		return fmt.Errorf("failed to marshal push payload: %w", err)
	}

	for _, sub := range subs {
		w.send(ctx, sub, data)
	}
	return nil
}

func (w *WebPush) send(ctx context.Context, sub store.PushSubscription, data []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}

	resp, err := webpush.SendNotificationWithContext(ctx, data, wpSub, &webpush.Options{
		HTTPClient:      w.cfg.HTTPClient,
		Subscriber:      w.cfg.Subscriber,
		TTL:             w.cfg.TTL,
		VAPIDPublicKey:  w.cfg.PublicKey,
		VAPIDPrivateKey: w.cfg.PrivateKey,
	})
	if err != nil {
		w.logger.Error("push notification: failed to send", "endpoint", sub.Endpoint, "error", err)
		return
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusGone {
		w.logger.Info("push notification: subscription expired, removing", "endpoint", sub.Endpoint)
		if _, err := store.DeletePushSubscription(ctx, w.db, sub.Endpoint); err != nil {
			w.logger.Error("push notification: failed to delete expired subscription", "endpoint", sub.Endpoint, "error", err)
		}
		return
	}
	if resp.StatusCode >= 400 {
		w.logger.Warn("push notification: unexpected status", "endpoint", sub.Endpoint, "status", resp.StatusCode)
	}
}
