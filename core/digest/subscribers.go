package digest

import (
	"context"
	"fmt"
	"time"

	"github.com/Rishi-choudhary/PARA-AI/core/database"
)

var subscriberMigrations = []database.Migration{
	{
		Version: 1,
		Name:    "create subscribers",
		SQL: `CREATE TABLE subscribers (
			conversation_id TEXT PRIMARY KEY,
			created_at      INTEGER NOT NULL
		)`,
	},
}

// Subscribers is the persistent set of conversations that receive the
// daily digest.
type Subscribers struct {
	db  *database.DB
	now  func() time.Time
}

// OpenSubscribers brings the subscriber table in db up to date and returns
// the registry.
func OpenSubscribers(ctx context.Context, db *database.DB) (*Subscribers, error) {
	if _, err := database.NewMigrator(db, "digest", subscriberMigrations...).Up(ctx); err != nil {
		return nil, err
	}
	return &Subscribers{db: db, now: time.Now}, nil
}

// Subscribe adds conversationID. Subscribing twice is a no-op.
func (s *Subscribers) Subscribe(ctx context.Context, conversationID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO subscribers (conversation_id, created_at) VALUES (?, ?)`,
		conversationID, s.now().Unix())
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", conversationID, err)
	}
	return nil
}

// Unsubscribe removes conversationID.
func (s *Subscribers) Unsubscribe(ctx context.Context, conversationID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM subscribers WHERE conversation_id = ?`, conversationID); err != nil {
		return fmt.Errorf("unsubscribe %s: %w", conversationID, err)
	}
	return nil
}

// List returns every subscriber, oldest first.
func (s *Subscribers) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT conversation_id FROM subscribers ORDER BY created_at, conversation_id`)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
