package pgx

import (
	"context"

	"github.com/guwenlab/insight/pkg/common"
	"github.com/guwenlab/insight/pkg/logger"
	"github.com/guwenlab/insight/pkg/store"
)

const entityChunk = 250

// ReplaceEntities swaps a document's entity set for the given one. The delete
// and all inserts share one transaction, so readers never observe a mix of
// two extraction runs.
func (s *DBStorage) ReplaceEntities(
	ctx context.Context,
	documentID int64,
	entities []common.Entity,
) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM entities WHERE document_id = $1
	`, documentID); err != nil {
		return err
	}

	err = store.ChunkRange(len(entities), entityChunk, func(start, end int) error {
		for _, ent := range entities[start:end] {
			if _, err := tx.Exec(ctx, `
				INSERT INTO entities
					(public_id, document_id, label, category, start_pos, end_pos, confidence)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, ent.ID, documentID, ent.Label, string(ent.Category),
				ent.Start, ent.End, ent.Confidence); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Debug("replaced entities", "document_id", documentID, "count", len(entities))
	return tx.Commit(ctx)
}

// GetEntities returns a document's entities in insertion order.
func (s *DBStorage) GetEntities(
	ctx context.Context,
	documentID int64,
) ([]common.Entity, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT public_id, label, category, start_pos, end_pos, confidence
		FROM entities
		WHERE document_id = $1
		ORDER BY id
	`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []common.Entity
	for rows.Next() {
		var (
			ent      common.Entity
			category string
		)
		if err := rows.Scan(&ent.ID, &ent.Label, &category,
			&ent.Start, &ent.End, &ent.Confidence); err != nil {
			return nil, err
		}
		ent.DocumentID = documentID
		ent.Category = common.EntityCategory(category)
		entities = append(entities, ent)
	}

	return entities, rows.Err()
}
