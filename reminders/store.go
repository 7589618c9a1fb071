package reminders

// SQLite backed reminder store. Every method is a single self-contained
// statement, so interleaved calls from the command path and the scheduler can
// never observe a partial write.

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Timestamps are kept as local time strings; the format sorts and compares
// lexicographically, so due-time queries can compare directly in SQL.
const timeLayout = "2006-01-02 15:04:05"

// Store owns reminder persistence and is the only writer of the sent flag.
type Store struct {
	db *sql.DB
}

// NewStore prepares the reminders table and returns a store over db.
func NewStore(db *sql.DB) (*Store, error) {
	query := `
		CREATE TABLE IF NOT EXISTS "reminders" (
			"id" INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL,
			"owner_id" VARCHAR NOT NULL,
			"target_id" VARCHAR NOT NULL,
			"text" VARCHAR NOT NULL,
			"due_at" VARCHAR NOT NULL,
			"created_at" VARCHAR NOT NULL,
			"sent" INTEGER DEFAULT 0
		);`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("can't create reminders table: %w", err)
	}
	return &Store{db: db}, nil
}

// Create inserts a new pending reminder and returns its id.
func (store *Store) Create(
	ctx context.Context, ownerID, targetID, text string, dueAt, createdAt time.Time,
) (int64, error) {
	if !dueAt.After(createdAt) {
		return 0, ErrInvalidReminder
	}
	result, err := store.db.ExecContext(ctx,
		`INSERT INTO reminders (owner_id, target_id, text, due_at, created_at, sent)
		 VALUES (?, ?, ?, ?, ?, 0)`,
		ownerID, targetID, text, dueAt.Local().Format(timeLayout), createdAt.Local().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("can't insert reminder: %w", err)
	}
	return result.LastInsertId()
}

// ListPending returns the owner's unsent reminders, soonest first.
func (store *Store) ListPending(ctx context.Context, ownerID string) ([]Reminder, error) {
	return store.query(ctx,
		`SELECT id, owner_id, target_id, text, due_at, created_at, sent
		 FROM reminders WHERE owner_id = ? AND sent = 0 ORDER BY due_at ASC`, ownerID)
}

// Due returns all unsent reminders due as of asOf, soonest first.
func (store *Store) Due(ctx context.Context, asOf time.Time) ([]Reminder, error) {
	return store.query(ctx,
		`SELECT id, owner_id, target_id, text, due_at, created_at, sent
		 FROM reminders WHERE sent = 0 AND due_at <= ? ORDER BY due_at ASC`,
		asOf.Local().Format(timeLayout))
}

// Delete removes a reminder, but only for the owner that created it.
func (store *Store) Delete(ctx context.Context, id int64, requestingOwnerID string) error {
	var ownerID string
	err := store.db.QueryRowContext(ctx,
		`SELECT owner_id FROM reminders WHERE id = ?`, id).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("can't look up reminder %d: %w", id, err)
	}
	if ownerID != requestingOwnerID {
		return ErrNotOwner
	}
	if _, err := store.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id); err != nil {
		return fmt.Errorf("can't delete reminder %d: %w", id, err)
	}
	return nil
}

// MarkSent flips the sent flag. Idempotent; the flag never reverts.
func (store *Store) MarkSent(ctx context.Context, id int64) error {
	if _, err := store.db.ExecContext(ctx,
		`UPDATE reminders SET sent = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("can't mark reminder %d as sent: %w", id, err)
	}
	return nil
}

func (store *Store) query(ctx context.Context, query string, args ...interface{}) ([]Reminder, error) {
	rows, err := store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("can't query reminders: %w", err)
	}
	defer rows.Close()

	var reminders []Reminder
	for rows.Next() {
		var r Reminder
		var dueStr, createdStr string
		if err := rows.Scan(&r.ID, &r.OwnerID, &r.TargetID, &r.Text, &dueStr, &createdStr, &r.Sent); err != nil {
			return nil, fmt.Errorf("can't scan reminder: %w", err)
		}
		if r.DueAt, err = time.ParseInLocation(timeLayout, dueStr, time.Local); err != nil {
			return nil, fmt.Errorf("bad due time %q: %w", dueStr, err)
		}
		if r.CreatedAt, err = time.ParseInLocation(timeLayout, createdStr, time.Local); err != nil {
			return nil, fmt.Errorf("bad creation time %q: %w", createdStr, err)
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}
