package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"veritag/internal/tag/models"
	id "veritag/pkg/domain"
	"veritag/pkg/platform/sentinel"
)

// PostgresTagStore persists tags in PostgreSQL.
type PostgresTagStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed tag store.
func NewPostgres(db *sql.DB) *PostgresTagStore {
	return &PostgresTagStore{db: db}
}

func (s *PostgresTagStore) FindByCode(ctx context.Context, code string) (*models.Tag, error) {
	const query = `
		SELECT id, code, product_ids, is_stamped, hash_tx, chain_status, publish_status, metadata, created_at
		FROM tags
		WHERE lower(code) = lower($1)`

	var (
		tag         models.Tag
		tagID       uuid.UUID
		hashTx      sql.NullString
		chainStatus sql.NullInt32
		metadata    []byte
	)
	err := s.db.QueryRowContext(ctx, query, code).Scan(
		&tagID,
		&tag.Code,
		(*pq.StringArray)(&tag.ProductIDs),
		&tag.IsStamped,
		&hashTx,
		&chainStatus,
		&tag.PublishStatus,
		&metadata,
		&tag.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("tag %q: %w", code, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find tag by code: %w", err)
	}

	tag.ID = id.TagID(tagID)
	if hashTx.Valid {
		tag.HashTx = &hashTx.String
	}
	if chainStatus.Valid {
		status := models.ChainStatus(chainStatus.Int32)
		tag.ChainStatus = &status
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &tag.Metadata); err != nil {
			return nil, fmt.Errorf("decode tag metadata: %w", err)
		}
	}
	return &tag, nil
}

func (s *PostgresTagStore) UpdateChainStatus(ctx context.Context, tagID id.TagID, status models.ChainStatus) error {
	const query = `UPDATE tags SET chain_status = $2 WHERE id = $1`

	res, err := s.db.ExecContext(ctx, query, uuid.UUID(tagID), int(status))
	if err != nil {
		return fmt.Errorf("update chain status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update chain status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("tag %s: %w", tagID, sentinel.ErrNotFound)
	}
	return nil
}
