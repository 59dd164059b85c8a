package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"netdrift/internal/domain"
)

// Get retrieves a diff record by id, (nil, nil) when absent
func (s *DiffStore) Get(ctx context.Context, id string) (*domain.IntentDiff, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, intent_id, diff, intent, patch, created_at
		FROM intent_diffs WHERE id = ?
	`, id)

	diff, err := scanDiff(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return diff, err
}

// GetMulti retrieves a page of diff records. An empty intentID returns
// records for all intents.
func (s *DiffStore) GetMulti(ctx context.Context, skip, limit int, intentID string) ([]domain.IntentDiff, error) {
	query := `
		SELECT id, intent_id, diff, intent, patch, created_at
		FROM intent_diffs
	`
	args := []any{}
	if intentID != "" {
		query += ` WHERE intent_id = ?`
		args = append(args, intentID)
	}
	query += ` ORDER BY created_at LIMIT ? OFFSET ?`
	args = append(args, limit, skip)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query intent diffs: %w", err)
	}
	defer rows.Close()

	diffs := []domain.IntentDiff{}
	for rows.Next() {
		diff, err := scanDiff(rows)
		if err != nil {
			return nil, err
		}
		diffs = append(diffs, *diff)
	}
	return diffs, rows.Err()
}

// Create appends a diff record and returns the refreshed stored record
func (s *DiffStore) Create(ctx context.Context, diff *domain.IntentDiff) (*domain.IntentDiff, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO intent_diffs (id, intent_id, diff, intent, patch, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, diff.ID, diff.IntentID, diff.Diff, diff.Intent, diff.Patch, diff.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert intent diff: %w", err)
	}

	return s.Get(ctx, diff.ID)
}

// Delete removes a diff record
func (s *DiffStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM intent_diffs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete intent diff: %w", err)
	}
	return nil
}

func scanDiff(row rowScanner) (*domain.IntentDiff, error) {
	var diff domain.IntentDiff
	err := row.Scan(&diff.ID, &diff.IntentID, &diff.Diff, &diff.Intent, &diff.Patch, &diff.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan intent diff: %w", err)
	}
	return &diff, nil
}
