// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/billchat/internal/models"
	"github.com/mmynk/billchat/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateSession persists a new session to the database.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *models.Session) error {
	// Generate fields if not set
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.CreatedAt == 0 {
		session.CreatedAt = time.Now().Unix()
	}
	if session.Title == "" {
		session.Title = fmt.Sprintf("Bill - %s", time.Unix(session.CreatedAt, 0).Format("Jan 2, 2006"))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO sessions (id, title, passphrase_hash, tax, tip, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		session.ID, session.Title, session.PassphraseHash, session.Bill.Tax, session.Bill.Tip, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	if err := insertItems(ctx, tx, session.ID, session.Bill.Items); err != nil {
		return err
	}

	for _, msg := range session.Messages {
		if err := insertMessage(ctx, tx, session.ID, msg); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetSession retrieves a session by ID, including its bill and chat log.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	session := &models.Session{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, title, passphrase_hash, tax, tip, created_at FROM sessions WHERE id = ?",
		sessionID,
	).Scan(&session.ID, &session.Title, &session.PassphraseHash, &session.Bill.Tax, &session.Bill.Tip, &session.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	// Get items in receipt order
	itemRows, err := s.db.QueryContext(ctx,
		"SELECT id, name, price FROM items WHERE session_id = ? ORDER BY position",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item models.Item
		if err := itemRows.Scan(&item.ID, &item.Name, &item.Price); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}

		// Get assignments for this item, in assignment order
		assignRows, err := s.db.QueryContext(ctx,
			"SELECT participant FROM item_assignments WHERE item_id = ? ORDER BY position",
			item.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to get item assignments: %w", err)
		}

		for assignRows.Next() {
			var participant string
			if err := assignRows.Scan(&participant); err != nil {
				assignRows.Close()
				return nil, fmt.Errorf("failed to scan assignment: %w", err)
			}
			item.AssignedTo = append(item.AssignedTo, participant)
		}
		assignRows.Close()
		if err := assignRows.Err(); err != nil {
			return nil, fmt.Errorf("failed to iterate assignments: %w", err)
		}

		session.Bill.Items = append(session.Bill.Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}

	// Get chat log, oldest first
	msgRows, err := s.db.QueryContext(ctx,
		"SELECT role, text, created_at FROM messages WHERE session_id = ? ORDER BY id",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	defer msgRows.Close()

	for msgRows.Next() {
		var msg models.Message
		if err := msgRows.Scan(&msg.Role, &msg.Text, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		session.Messages = append(session.Messages, msg)
	}
	if err := msgRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return session, nil
}

// ReplaceBill replaces the session's bill wholesale: prior items and their
// assignments are deleted, not merged.
func (s *SQLiteStore) ReplaceBill(ctx context.Context, sessionID string, bill models.Bill) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE sessions SET tax = ?, tip = ? WHERE id = ?",
		bill.Tax, bill.Tip, sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session totals: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, sessionID)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM items WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete items: %w", err)
	}

	if err := insertItems(ctx, tx, sessionID, bill.Items); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// UpdateItems rewrites the assignment sets of the session's items.
func (s *SQLiteStore) UpdateItems(ctx context.Context, sessionID string, items []models.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, item := range items {
		if _, err := tx.ExecContext(ctx, "DELETE FROM item_assignments WHERE item_id = ?", item.ID); err != nil {
			return fmt.Errorf("failed to delete item assignments: %w", err)
		}
		if err := insertAssignments(ctx, tx, item); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// AppendMessage adds one message to the session's chat log.
func (s *SQLiteStore) AppendMessage(ctx context.Context, sessionID string, msg models.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertMessage(ctx, tx, sessionID, msg); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func insertItems(ctx context.Context, tx *sql.Tx, sessionID string, items []models.Item) error {
	for i := range items {
		item := &items[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}

		_, err := tx.ExecContext(ctx,
			"INSERT INTO items (id, session_id, name, price, position) VALUES (?, ?, ?, ?, ?)",
			item.ID, sessionID, item.Name, item.Price, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}

		if err := insertAssignments(ctx, tx, *item); err != nil {
			return err
		}
	}
	return nil
}

func insertAssignments(ctx context.Context, tx *sql.Tx, item models.Item) error {
	for i, participant := range item.AssignedTo {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO item_assignments (item_id, participant, position) VALUES (?, ?, ?)",
			item.ID, participant, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item assignment: %w", err)
		}
	}
	return nil
}

func insertMessage(ctx context.Context, tx *sql.Tx, sessionID string, msg models.Message) error {
	createdAt := msg.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().Unix()
	}
	_, err := tx.ExecContext(ctx,
		"INSERT INTO messages (session_id, role, text, created_at) VALUES (?, ?, ?, ?)",
		sessionID, msg.Role, msg.Text, createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}
