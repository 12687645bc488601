package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"scout-engine/internal/domain"
)

// Subscriptions is the store collaborator the alert processor depends
// on. Retry with backoff on transient sqlite errors is this type's
// internal policy; callers see three plain operations.
type Subscriptions struct {
	db       *sql.DB
	attempts int
	backoff  time.Duration
}

func NewSubscriptions(db *sql.DB) *Subscriptions {
	return &Subscriptions{db: db, attempts: 3, backoff: 250 * time.Millisecond}
}

func (s *Subscriptions) withRetry(ctx context.Context, op func() error) error {
	var err error
	for i := 0; i < s.attempts; i++ {
		if err = op(); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.backoff * time.Duration(i+1)):
		}
	}
	return err
}

// Create registers a subscription with its watermark set to now, so
// only listings posted after signup ever notify.
func (s *Subscriptions) Create(ctx context.Context, email string, criteria []domain.Criterion) (domain.Subscription, error) {
	critB, err := json.Marshal(criteria)
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("marshal criteria: %w", err)
	}

	now := time.Now().UTC()
	sub := domain.Subscription{
		Email:        email,
		Criteria:     criteria,
		LastNotified: now,
		CreatedAt:    now,
	}

	err = s.withRetry(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `
INSERT INTO subscriptions(email, criteria, last_notified, created_at)
VALUES(?,?,?,?);`,
			email, string(critB), now.Format(time.RFC3339), now.Format(time.RFC3339))
		if err != nil {
			return err
		}
		sub.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("insert subscription: %w", err)
	}
	return sub, nil
}

func (s *Subscriptions) List(ctx context.Context) ([]domain.Subscription, error) {
	var out []domain.Subscription

	err := s.withRetry(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, `
SELECT id, email, criteria, last_notified, created_at
FROM subscriptions
ORDER BY id;`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			var sub domain.Subscription
			var critJSON, lastNotified, createdAt string
			if err := rows.Scan(&sub.ID, &sub.Email, &critJSON, &lastNotified, &createdAt); err != nil {
				return err
			}
			if err := json.Unmarshal([]byte(critJSON), &sub.Criteria); err != nil {
				return fmt.Errorf("criteria for id=%d: %w", sub.ID, err)
			}
			sub.LastNotified, _ = time.Parse(time.RFC3339, lastNotified)
			sub.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
			out = append(out, sub)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return out, nil
}

// UpdateWatermark advances last_notified to now. The guard keeps it
// monotonic: a stale cycle can never move a watermark backward.
func (s *Subscriptions) UpdateWatermark(ctx context.Context, id int64, now time.Time) error {
	stamp := now.UTC().Format(time.RFC3339)
	err := s.withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
UPDATE subscriptions
SET last_notified = ?
WHERE id = ? AND last_notified < ?;`,
			stamp, id, stamp)
		return err
	})
	if err != nil {
		return fmt.Errorf("update watermark id=%d: %w", id, err)
	}
	return nil
}
