// Package storage provides abstractions for session persistence.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/billchat/internal/models"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("session not found")

// Store defines the interface for session storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the orchestrator.
type Store interface {
	// CreateSession persists a new session. The session.ID, Title, and
	// CreatedAt fields are populated by the store when unset.
	CreateSession(ctx context.Context, session *models.Session) error

	// GetSession retrieves a session with its bill and chat log.
	// Returns ErrNotFound if the session does not exist.
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)

	// ReplaceBill replaces the session's bill wholesale. Prior items and
	// assignments are discarded.
	ReplaceBill(ctx context.Context, sessionID string, bill models.Bill) error

	// UpdateItems rewrites the assignment sets of the session's items.
	// Item identity, names, and prices are unchanged.
	UpdateItems(ctx context.Context, sessionID string, items []models.Item) error

	// AppendMessage adds one message to the session's chat log.
	AppendMessage(ctx context.Context, sessionID string, msg models.Message) error

	// Close releases any resources held by the store.
	Close() error
}
