package access

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SQLStore keeps the allow-list in the allowed_users table.
// Queries are written with '?' and rebound for the connected driver.
type SQLStore struct {
	db *sqlx.DB

	containsQuery string
	addQuery      string
}

// NewSQLStore wraps an open database whose schema was migrated.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{
		db:            db,
		containsQuery: db.Rebind(`SELECT COUNT(*) FROM allowed_users WHERE user_id = ?`),
		addQuery:      db.Rebind(`INSERT INTO allowed_users (user_id) VALUES (?) ON CONFLICT (user_id) DO NOTHING`),
	}
}

// Contains reports whether userID has a row.
func (s *SQLStore) Contains(ctx context.Context, userID int64) (bool, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, s.containsQuery, userID); err != nil {
		return false, fmt.Errorf("allowlist: select user %d: %w", userID, err)
	}
	return n > 0, nil
}

// Add inserts userID, ignoring an existing row.
func (s *SQLStore) Add(ctx context.Context, userID int64) (bool, error) {
	if userID <= 0 {
		return false, fmt.Errorf("allowlist: invalid user id %d", userID)
	}
	res, err := s.db.ExecContext(ctx, s.addQuery, userID)
	if err != nil {
		return false, fmt.Errorf("allowlist: insert user %d: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("allowlist: rows affected: %w", err)
	}
	return n > 0, nil
}
