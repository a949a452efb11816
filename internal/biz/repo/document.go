package repo

import (
	"context"

	"github.com/idempomlieko/expressive/internal/biz/domain"
)

// DocumentRepo is the per-chat rule document store interface
// Responsible for document persistence (SQLite)
type DocumentRepo interface {
	// Load returns the document for a chat. A missing or corrupt document
	// yields a fresh default document, never an error; the returned document
	// always has its info and expression fields present. The error return
	// covers storage-level failures only (e.g. the database is gone).
	Load(ctx context.Context, chatID string) (*domain.ChatDocument, error)

	// Save overwrites the chat's persisted document as a whole.
	// No partial updates, no transactions.
	Save(ctx context.Context, chatID string, doc *domain.ChatDocument) error

	// Close releases the underlying storage
	Close() error
}
