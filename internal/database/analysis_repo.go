package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ritheshsuvarna/natya/internal/models"
)

// AnalysisRepository stores analysis records in the analyses table. It satisfies
// store.Persistent.
type AnalysisRepository struct {
	db *DB
}

func NewAnalysisRepository(db *DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

func (r *AnalysisRepository) Name() string {
	return r.db.dbType
}

func (r *AnalysisRepository) Insert(ctx context.Context, record *models.AnalysisRecord) error {
	data, err := json.Marshal(record.AnalysisData)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis data: %w", err)
	}

	query := r.db.rebind(`
		INSERT INTO analyses (id, video_filename, analysis_data, generated_story, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)

	_, err = r.db.conn.ExecContext(ctx, query,
		record.ID,
		record.VideoFilename,
		string(data),
		nullString(record.GeneratedStory),
		string(record.Status),
		record.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}
	return nil
}

func (r *AnalysisRepository) FindByID(ctx context.Context, id string) (*models.AnalysisRecord, error) {
	query := r.db.rebind(`
		SELECT id, video_filename, analysis_data, generated_story, status, created_at
		FROM analyses
		WHERE id = ?`)

	record, err := scanRecord(r.db.conn.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return record, nil
}

func (r *AnalysisRepository) SetStory(ctx context.Context, id, story string) error {
	query := r.db.rebind(`
		UPDATE analyses
		SET generated_story = ?, status = ?
		WHERE id = ?`)

	result, err := r.db.conn.ExecContext(ctx, query, story, string(models.StatusCompleted), id)
	if err != nil {
		return fmt.Errorf("failed to update story: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("analysis %s not found", id)
	}
	return nil
}

func (r *AnalysisRepository) List(ctx context.Context, limit int) ([]*models.AnalysisRecord, error) {
	query := r.db.rebind(`
		SELECT id, video_filename, analysis_data, generated_story, status, created_at
		FROM analyses
		ORDER BY created_at DESC
		LIMIT ?`)

	rows, err := r.db.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var records []*models.AnalysisRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analyses: %w", err)
	}

	return records, nil
}

func (r *AnalysisRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM analyses").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return n, nil
}

func (r *AnalysisRepository) Close(context.Context) error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.AnalysisRecord, error) {
	var (
		record    models.AnalysisRecord
		data      string
		story     sql.NullString
		status    string
		createdAt time.Time
	)

	if err := row.Scan(&record.ID, &record.VideoFilename, &data, &story, &status, &createdAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(data), &record.AnalysisData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis data for %s: %w", record.ID, err)
	}
	if story.Valid {
		record.GeneratedStory = &story.String
	}
	record.Status = models.Status(status)
	record.Timestamp = createdAt.UTC()

	return &record, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
