package pgx

import (
	"context"

	"github.com/guwenlab/insight/pkg/common"
)

// ReplaceSections swaps a document's sentence sections in one transaction.
func (s *DBStorage) ReplaceSections(
	ctx context.Context,
	documentID int64,
	sections []common.Section,
) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM sections WHERE document_id = $1
	`, documentID); err != nil {
		return err
	}

	for _, sec := range sections {
		if _, err := tx.Exec(ctx, `
			INSERT INTO sections (document_id, seq, original, punctuated, summary)
			VALUES ($1, $2, $3, $4, $5)
		`, documentID, sec.Seq, sec.Original, sec.Punctuated, sec.Summary); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// GetSections returns a document's sections in sequence order.
func (s *DBStorage) GetSections(
	ctx context.Context,
	documentID int64,
) ([]common.Section, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, seq, original, punctuated, summary
		FROM sections
		WHERE document_id = $1
		ORDER BY seq
	`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []common.Section
	for rows.Next() {
		var sec common.Section
		if err := rows.Scan(&sec.ID, &sec.Seq, &sec.Original,
			&sec.Punctuated, &sec.Summary); err != nil {
			return nil, err
		}
		sec.DocumentID = documentID
		sections = append(sections, sec)
	}

	return sections, rows.Err()
}
