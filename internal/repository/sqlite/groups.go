package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"netdrift/internal/domain"
)

// groupMembers is the JSON shape of the materialized member lists stored
// alongside the indexed group columns
type groupMembers struct {
	Intents []domain.Intent      `json:"intents"`
	Groups  []domain.IntentGroup `json:"groups"`
}

// Get retrieves a group by id, (nil, nil) when absent
func (s *GroupStore) Get(ctx context.Context, id string) (*domain.IntentGroup, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, label, description, hostname, members, created_at, updated_at
		FROM intent_groups WHERE id = ?
	`, id)
	return scanGroup(row)
}

// GetByLabel retrieves a group by its unique label, (nil, nil) when absent
func (s *GroupStore) GetByLabel(ctx context.Context, label string) (*domain.IntentGroup, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, label, description, hostname, members, created_at, updated_at
		FROM intent_groups WHERE label = ?
	`, label)
	return scanGroup(row)
}

// GetMulti retrieves a page of groups
func (s *GroupStore) GetMulti(ctx context.Context, skip, limit int) ([]domain.IntentGroup, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, description, hostname, members, created_at, updated_at
		FROM intent_groups ORDER BY created_at LIMIT ? OFFSET ?
	`, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to query intent groups: %w", err)
	}
	defer rows.Close()

	groups := []domain.IntentGroup{}
	for rows.Next() {
		group, err := scanGroupRows(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, *group)
	}
	return groups, rows.Err()
}

// Create inserts a group with its materialized member lists and returns
// the refreshed record. The unique label constraint backs the label
// pre-check against races.
func (s *GroupStore) Create(ctx context.Context, group *domain.IntentGroup) (*domain.IntentGroup, error) {
	members, err := json.Marshal(groupMembers{Intents: group.Intents, Groups: group.Groups})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal group members: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO intent_groups (id, label, description, hostname, members, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, group.ID, group.Label, stringToNull(group.Description), stringToNull(group.Hostname),
		members, group.CreatedAt, group.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrGroupAlreadyExists()
		}
		return nil, fmt.Errorf("failed to insert intent group: %w", err)
	}

	return s.Get(ctx, group.ID)
}

// Delete removes a group
func (s *GroupStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM intent_groups WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete intent group: %w", err)
	}
	return nil
}

func scanGroup(row *sql.Row) (*domain.IntentGroup, error) {
	group, err := scanGroupRows(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return group, err
}

func scanGroupRows(row rowScanner) (*domain.IntentGroup, error) {
	var (
		group                 domain.IntentGroup
		description, hostname sql.NullString
		members               []byte
	)

	err := row.Scan(&group.ID, &group.Label, &description, &hostname, &members,
		&group.CreatedAt, &group.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan intent group: %w", err)
	}

	group.Description = nullToString(description)
	group.Hostname = nullToString(hostname)

	var m groupMembers
	if err := json.Unmarshal(members, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal group members: %w", err)
	}
	group.Intents = m.Intents
	group.Groups = m.Groups
	if group.Intents == nil {
		group.Intents = []domain.Intent{}
	}
	if group.Groups == nil {
		group.Groups = []domain.IntentGroup{}
	}

	return &group, nil
}
