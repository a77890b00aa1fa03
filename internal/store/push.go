package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PushSubscription is a browser push endpoint registered for resurface alerts.
type PushSubscription struct {
	ID        int64     `json:"id"`
	Endpoint  string    `json:"endpoint"`
	P256dh    string    `json:"p256dh"`
	Auth      string    `json:"auth"`
	CreatedAt time.Time `json:"created_at"`
}

// SavePushSubscription inserts or refreshes the keys of an endpoint.
func SavePushSubscription(ctx context.Context, db *sql.DB, endpoint, p256dh, auth string) error {
	return RetryWithBackoff(func() error {
		_, err := db.ExecContext(ctx, `
			INSERT INTO push_subscriptions (endpoint, p256dh, auth) VALUES (?, ?, ?)
			ON CONFLICT(endpoint) DO UPDATE SET p256dh = excluded.p256dh, auth = excluded.auth
		`, endpoint, p256dh, auth)
		if err != nil {
			return fmt.Errorf("failed to save push subscription: %w", err)
		}
		return nil
	})
}

// ListPushSubscriptions returns all subscriptions, oldest first.
func ListPushSubscriptions(ctx context.Context, db *sql.DB) ([]PushSubscription, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, endpoint, p256dh, auth, created_at FROM push_subscriptions ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list push subscriptions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []PushSubscription
	for rows.Next() {
		var s PushSubscription
		if err := rows.Scan(&s.ID, &s.Endpoint, &s.P256dh, &s.Auth, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan push subscription: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeletePushSubscription removes an endpoint. It reports whether a row existed.
func DeletePushSubscription(ctx context.Context, db *sql.DB, endpoint string) (bool, error) {
	var removed bool
	err := RetryWithBackoff(func() error {
		res, err := db.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint)
		if err != nil {
			return fmt.Errorf("failed to delete push subscription: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		removed = n > 0
		return nil
	})
	return removed, err
}
