package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/idempomlieko/expressive/internal/biz/domain"
	"github.com/idempomlieko/expressive/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// documentRepo implements the per-chat document store
type documentRepo struct {
	db          *sql.DB
	logDefaults domain.LogDefaults
}

// NewDocumentRepo creates a new document repository
func NewDocumentRepo(dbPath string, logDefaults domain.LogDefaults) (repo.DocumentRepo, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			chat_id TEXT PRIMARY KEY,
			body TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &documentRepo{db: db, logDefaults: logDefaults}, nil
}

// Load returns the chat's document. Missing rows and corrupt bodies both
// yield a fresh default document; defaults for historically-missing fields
// are merged in before returning.
func (r *documentRepo) Load(ctx context.Context, chatID string) (*domain.ChatDocument, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT body FROM documents WHERE chat_id = ?
	`, chatID)

	var body string
	err := row.Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewChatDocument().WithDefaults(r.logDefaults), nil
	}
	if err != nil {
		return nil, fmt.Errorf("query document: %w", err)
	}

	var doc domain.ChatDocument
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		logrus.Warnf("document for chat %s is corrupt, starting fresh: %v", chatID, err)
		return domain.NewChatDocument().WithDefaults(r.logDefaults), nil
	}
	return doc.WithDefaults(r.logDefaults), nil
}

// Save overwrites the chat's document with a single upsert statement
func (r *documentRepo) Save(ctx context.Context, chatID string, doc *domain.ChatDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO documents (chat_id, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`, chatID, string(body), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

// Close closes the database
func (r *documentRepo) Close() error {
	return r.db.Close()
}
