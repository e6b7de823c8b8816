// Package store persists documents and everything extracted from them.
package store

import (
	"context"
	"errors"

	"github.com/guwenlab/insight/pkg/common"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("store: not found")

// Storage defines the persistence interface for documents, extraction results
// and sentence sections.
//
// Replace* methods are whole-run swaps: one extraction run owns the full
// entity/relation set of a document, so stale rows from earlier runs are
// deleted in the same transaction that inserts the new ones.
type Storage interface {
	CreateDocument(ctx context.Context, title, content string) (common.Document, error)
	GetDocument(ctx context.Context, id int64) (common.Document, error)
	ListDocuments(ctx context.Context) ([]common.Document, error)
	UpdateDocumentCategory(ctx context.Context, id int64, category common.Genre) error

	ReplaceEntities(ctx context.Context, documentID int64, entities []common.Entity) error
	GetEntities(ctx context.Context, documentID int64) ([]common.Entity, error)

	ReplaceRelations(ctx context.Context, documentID int64, relations []common.Relation) error
	GetRelations(ctx context.Context, documentID int64) ([]common.Relation, error)

	ReplaceSections(ctx context.Context, documentID int64, sections []common.Section) error
	GetSections(ctx context.Context, documentID int64) ([]common.Section, error)
}
