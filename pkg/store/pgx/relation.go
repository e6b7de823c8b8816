package pgx

import (
	"context"

	"github.com/guwenlab/insight/pkg/common"
	"github.com/guwenlab/insight/pkg/logger"
)

// ReplaceRelations swaps a document's relation set. Endpoints are stored by
// entity public ID; relations whose endpoints are missing from the entities
// table would violate the FK, so callers resolve them before persisting.
func (s *DBStorage) ReplaceRelations(
	ctx context.Context,
	documentID int64,
	relations []common.Relation,
) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM relations WHERE document_id = $1
	`, documentID); err != nil {
		return err
	}

	for _, rel := range relations {
		if rel.Source == nil || rel.Target == nil {
			continue
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO relations
				(public_id, document_id, source_id, target_id, type, confidence, evidence)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, rel.ID, documentID, rel.Source.ID, rel.Target.ID,
			string(rel.Type), rel.Confidence, rel.Evidence); err != nil {
			return err
		}
	}

	logger.Debug("replaced relations", "document_id", documentID, "count", len(relations))
	return tx.Commit(ctx)
}

// GetRelations returns a document's relations with both endpoints resolved.
func (s *DBStorage) GetRelations(
	ctx context.Context,
	documentID int64,
) ([]common.Relation, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT
			r.public_id, r.type, r.confidence, r.evidence,
			se.public_id, se.label, se.category, se.start_pos, se.end_pos, se.confidence,
			te.public_id, te.label, te.category, te.start_pos, te.end_pos, te.confidence
		FROM relations r
		JOIN entities se ON se.public_id = r.source_id AND se.document_id = r.document_id
		JOIN entities te ON te.public_id = r.target_id AND te.document_id = r.document_id
		WHERE r.document_id = $1
		ORDER BY r.id
	`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var relations []common.Relation
	for rows.Next() {
		var (
			rel            common.Relation
			relType        string
			source, target common.Entity
			srcCat, dstCat string
		)
		if err := rows.Scan(
			&rel.ID, &relType, &rel.Confidence, &rel.Evidence,
			&source.ID, &source.Label, &srcCat, &source.Start, &source.End, &source.Confidence,
			&target.ID, &target.Label, &dstCat, &target.Start, &target.End, &target.Confidence,
		); err != nil {
			return nil, err
		}

		source.DocumentID = documentID
		source.Category = common.EntityCategory(srcCat)
		target.DocumentID = documentID
		target.Category = common.EntityCategory(dstCat)

		rel.DocumentID = documentID
		rel.Type = common.RelationType(relType)
		rel.Source = &source
		rel.Target = &target
		relations = append(relations, rel)
	}

	return relations, rows.Err()
}
