package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"veritag/internal/scan/models"
	id "veritag/pkg/domain"
	"veritag/pkg/platform/sentinel"
	"veritag/pkg/platform/tx"
)

// PostgresScanStore persists scan events in PostgreSQL.
//
// Append locks the tag row (SELECT ... FOR UPDATE) before computing the next
// scan number and inserting, all in one transaction. Concurrent appends for
// the same tag serialize on the row lock; appends for different tags don't
// contend.
type PostgresScanStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed scan store.
func NewPostgres(db *sql.DB) *PostgresScanStore {
	return &PostgresScanStore{db: db}
}

func (s *PostgresScanStore) Append(ctx context.Context, event *models.ScanEvent) (*models.ScanEvent, error) {
	if event == nil {
		return nil, fmt.Errorf("scan event is required")
	}

	var scanNumber int
	err := tx.Run(ctx, s.db, func(dbTx *sql.Tx) error {
		// Serialize concurrent appends per tag on the tag row lock.
		var lockedID uuid.UUID
		err := dbTx.QueryRowContext(ctx,
			`SELECT id FROM tags WHERE id = $1 FOR UPDATE`,
			uuid.UUID(event.TagID),
		).Scan(&lockedID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("tag %s: %w", event.TagID, sentinel.ErrNotFound)
			}
			return fmt.Errorf("lock tag row: %w", err)
		}

		err = dbTx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(scan_number), 0) + 1 FROM scan_events WHERE tag_id = $1`,
			uuid.UUID(event.TagID),
		).Scan(&scanNumber)
		if err != nil {
			return fmt.Errorf("next scan number: %w", err)
		}

		const insert = `
			INSERT INTO scan_events (
				id, tag_id, fingerprint_id, ip_address, user_agent,
				browser, os, is_bot,
				latitude, longitude, location_name,
				is_claimed, is_first_hand, source_info,
				scan_number, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

		_, err = dbTx.ExecContext(ctx, insert,
			uuid.UUID(event.ID),
			uuid.UUID(event.TagID),
			event.FingerprintID,
			event.IPAddress,
			event.UserAgent,
			event.Browser,
			event.OS,
			event.IsBot,
			nullFloat(event.Latitude),
			nullFloat(event.Longitude),
			nullString(event.LocationName),
			event.IsClaimed,
			nullBool(event.IsFirstHand),
			nullString(event.SourceInfo),
			scanNumber,
			event.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert scan event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	stored := *event
	stored.ScanNumber = scanNumber
	return &stored, nil
}

func (s *PostgresScanStore) ListByTag(ctx context.Context, tagID id.TagID) ([]*models.ScanEvent, error) {
	const query = `
		SELECT id, tag_id, fingerprint_id, ip_address, user_agent,
		       browser, os, is_bot,
		       latitude, longitude, location_name,
		       is_claimed, is_first_hand, source_info,
		       scan_number, created_at
		FROM scan_events
		WHERE tag_id = $1
		ORDER BY scan_number DESC`

	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(tagID))
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	defer rows.Close()

	var events []*models.ScanEvent
	for rows.Next() {
		event, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	return events, nil
}

func (s *PostgresScanStore) RecordAnswer(ctx context.Context, scanID id.ScanID, answer models.Answer) error {
	const query = `
		UPDATE scan_events
		SET is_first_hand = $2, source_info = $3, is_claimed = $4
		WHERE id = $1`

	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(scanID),
		nullBool(answer.IsFirstHand),
		nullString(answer.SourceInfo),
		answer.IsClaimed,
	)
	if err != nil {
		return fmt.Errorf("record answer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record answer: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("scan %s: %w", scanID, sentinel.ErrNotFound)
	}
	return nil
}

func scanRow(rows *sql.Rows) (*models.ScanEvent, error) {
	var (
		event        models.ScanEvent
		scanID       uuid.UUID
		tagID        uuid.UUID
		latitude     sql.NullFloat64
		longitude    sql.NullFloat64
		locationName sql.NullString
		isFirstHand  sql.NullBool
		sourceInfo   sql.NullString
	)
	err := rows.Scan(
		&scanID, &tagID, &event.FingerprintID, &event.IPAddress, &event.UserAgent,
		&event.Browser, &event.OS, &event.IsBot,
		&latitude, &longitude, &locationName,
		&event.IsClaimed, &isFirstHand, &sourceInfo,
		&event.ScanNumber, &event.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan event row: %w", err)
	}
	event.ID = id.ScanID(scanID)
	event.TagID = id.TagID(tagID)
	if latitude.Valid {
		event.Latitude = &latitude.Float64
	}
	if longitude.Valid {
		event.Longitude = &longitude.Float64
	}
	if locationName.Valid {
		event.LocationName = &locationName.String
	}
	if isFirstHand.Valid {
		event.IsFirstHand = &isFirstHand.Bool
	}
	if sourceInfo.Valid {
		event.SourceInfo = &sourceInfo.String
	}
	return &event, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullBool(v *bool) sql.NullBool {
	if v == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *v, Valid: true}
}
