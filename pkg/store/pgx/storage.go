// Package pgx implements store.Storage on PostgreSQL.
package pgx

import (
	"context"
	"errors"

	"github.com/guwenlab/insight/pkg/common"
	"github.com/guwenlab/insight/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// DBStorage implements the store.Storage interface on PostgreSQL. It accepts
// anything that satisfies pgxIConn, so it works with a single connection as
// well as a pool.
type DBStorage struct {
	conn pgxIConn
}

// NewDBStorageWithConnection creates a new DBStorage using an existing
// database connection or pool.
func NewDBStorageWithConnection(conn pgxIConn) *DBStorage {
	return &DBStorage{conn: conn}
}

// CreateDocument inserts a new document with the transient unknown category.
func (s *DBStorage) CreateDocument(
	ctx context.Context,
	title, content string,
) (common.Document, error) {
	doc := common.Document{
		Title:    title,
		Content:  content,
		Category: common.GenreUnknown,
	}

	err := s.conn.QueryRow(ctx, `
		INSERT INTO documents (title, content, category)
		VALUES ($1, $2, $3)
		RETURNING id
	`, title, content, string(common.GenreUnknown)).Scan(&doc.ID)
	if err != nil {
		return common.Document{}, err
	}

	return doc, nil
}

// GetDocument fetches a document by ID.
func (s *DBStorage) GetDocument(ctx context.Context, id int64) (common.Document, error) {
	var (
		doc      common.Document
		category string
	)

	err := s.conn.QueryRow(ctx, `
		SELECT id, title, content, category
		FROM documents
		WHERE id = $1
	`, id).Scan(&doc.ID, &doc.Title, &doc.Content, &category)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return common.Document{}, store.ErrNotFound
	}
	if err != nil {
		return common.Document{}, err
	}

	doc.Category = common.Genre(category)
	return doc, nil
}

// ListDocuments returns every stored document, newest first.
func (s *DBStorage) ListDocuments(ctx context.Context) ([]common.Document, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, title, content, category
		FROM documents
		ORDER BY id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []common.Document
	for rows.Next() {
		var (
			doc      common.Document
			category string
		)
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Content, &category); err != nil {
			return nil, err
		}
		doc.Category = common.Genre(category)
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

// UpdateDocumentCategory writes the resolved classification back.
func (s *DBStorage) UpdateDocumentCategory(
	ctx context.Context,
	id int64,
	category common.Genre,
) error {
	tag, err := s.conn.Exec(ctx, `
		UPDATE documents SET category = $2 WHERE id = $1
	`, id, string(category))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
