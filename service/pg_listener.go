package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"

	"mars3lo-orders/db"
	"mars3lo-orders/models"
)

const (
	listenBackoffMin = time.Second
	listenBackoffMax = 30 * time.Second
)

// PostgresListener forwards NOTIFY payloads from the change triggers to a ChangeFeed
type PostgresListener struct {
	connStr string
	feed    *ChangeFeed
}

// NewPostgresListener creates a listener on the change channel
func NewPostgresListener(connStr string, feed *ChangeFeed) *PostgresListener {
	return &PostgresListener{connStr: connStr, feed: feed}
}

// Run listens until ctx is done, reconnecting with a capped backoff after failures
func (l *PostgresListener) Run(ctx context.Context) {
	backoff := listenBackoffMin
	for {
		started := time.Now()
		err := l.listen(ctx)
		if ctx.Err() != nil {
			log.Printf("✓ Listener: stopped")
			return
		}

		if time.Since(started) > listenBackoffMax {
			backoff = listenBackoffMin
		}
		log.Printf("⚠️  Listener: %v, reconnecting in %s", err, backoff)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, listenBackoffMax)
	}
}

func (l *PostgresListener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.connStr)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+db.ChangeChannel); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", db.ChangeChannel, err)
	}
	log.Printf("✓ Listener: listening on channel %s", db.ChangeChannel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("failed to wait for notification: %w", err)
		}

		change, err := DecodeChange(notification.Payload)
		if err != nil {
			log.Printf("⚠️  Listener: %v", err)
			continue
		}
		l.feed.Publish(change)
	}
}

// DecodeChange parses a trigger payload
func DecodeChange(payload string) (models.Change, error) {
	var change models.Change
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		return models.Change{}, fmt.Errorf("failed to decode change payload: %w", err)
	}
	if change.Table == "" || change.Op == "" {
		return models.Change{}, fmt.Errorf("incomplete change payload: %q", payload)
	}
	return change, nil
}
