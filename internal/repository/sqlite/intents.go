package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"netdrift/internal/domain"
)

const intentColumns = `id, hostname, description, type, config, config_hash, filter, filter_hash,
	netdrift_managed, last_discovery_id, last_discovery_status, last_discovery_message,
	created_at, updated_at`

// Get retrieves a single intent by id, (nil, nil) when absent
func (s *IntentStore) Get(ctx context.Context, id string) (*domain.Intent, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+intentColumns+` FROM intents WHERE id = ?
	`, id)
	return scanIntent(row)
}

// GetByFilter retrieves the first intent matching the query, (nil, nil)
// when nothing matches
func (s *IntentStore) GetByFilter(ctx context.Context, query domain.IntentQuery) (*domain.Intent, error) {
	where, args := buildIntentQuery(query)
	row := s.db.QueryRowContext(ctx, `
		SELECT `+intentColumns+` FROM intents `+where+` LIMIT 1
	`, args...)
	return scanIntent(row)
}

// GetMulti retrieves a page of intents matching the query
func (s *IntentStore) GetMulti(ctx context.Context, skip, limit int, query domain.IntentQuery) ([]domain.Intent, error) {
	where, args := buildIntentQuery(query)
	args = append(args, limit, skip)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+intentColumns+` FROM intents `+where+`
		ORDER BY created_at LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query intents: %w", err)
	}
	defer rows.Close()

	intents := []domain.Intent{}
	for rows.Next() {
		intent, err := scanIntentRows(rows)
		if err != nil {
			return nil, err
		}
		intents = append(intents, *intent)
	}
	return intents, rows.Err()
}

// Create inserts a new intent and returns the refreshed stored record.
// Unique index violations are translated into the matching AlreadyExists
// condition so that the dedup invariants hold even when two creates race
// past the service pre-checks.
func (s *IntentStore) Create(ctx context.Context, intent *domain.Intent) (*domain.Intent, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO intents (`+intentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		intent.ID, stringToNull(intent.Hostname), stringToNull(intent.Description), intent.Type,
		stringToNull(intent.Config), stringToNull(intent.ConfigHash),
		stringToNull(intent.Filter), stringToNull(intent.FilterHash),
		intent.NetdriftManaged, stringToNull(intent.LastDiscoveryID),
		intent.LastDiscoveryStatus, stringToNull(intent.LastDiscoveryMessage),
		intent.CreatedAt, intent.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, uniqueViolationError(intent, err)
		}
		return nil, fmt.Errorf("failed to insert intent: %w", err)
	}

	return s.Get(ctx, intent.ID)
}

// Update applies a sparse patch and returns the refreshed record. Write
// failures on the update path are logged and absorbed so that a
// best-effort refreshed record is still returned; only create failures
// hard-fail.
func (s *IntentStore) Update(ctx context.Context, id string, patch domain.IntentUpdate) (*domain.Intent, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}

	appendSet := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if patch.Hostname != nil {
		appendSet("hostname", stringToNull(*patch.Hostname))
	}
	if patch.Description != nil {
		appendSet("description", stringToNull(*patch.Description))
	}
	if patch.Type != nil {
		appendSet("type", *patch.Type)
	}
	if patch.Config != nil {
		appendSet("config", stringToNull(*patch.Config))
	}
	if patch.ConfigHash != nil {
		appendSet("config_hash", stringToNull(*patch.ConfigHash))
	}
	if patch.Filter != nil {
		appendSet("filter", stringToNull(*patch.Filter))
	}
	if patch.FilterHash != nil {
		appendSet("filter_hash", stringToNull(*patch.FilterHash))
	}
	if patch.NetdriftManaged != nil {
		appendSet("netdrift_managed", *patch.NetdriftManaged)
	}
	if patch.LastDiscoveryID != nil {
		appendSet("last_discovery_id", stringToNull(*patch.LastDiscoveryID))
	}
	if patch.LastDiscoveryStatus != nil {
		appendSet("last_discovery_status", *patch.LastDiscoveryStatus)
	}
	if patch.LastDiscoveryMessage != nil {
		appendSet("last_discovery_message", stringToNull(*patch.LastDiscoveryMessage))
	}

	args = append(args, id)
	_, err := s.db.ExecContext(ctx, `
		UPDATE intents SET `+strings.Join(sets, ", ")+` WHERE id = ?
	`, args...)
	if err != nil {
		log.Printf("Failed to update intent %s, returning best-effort record: %v", id, err)
	}

	return s.Get(ctx, id)
}

// Delete removes an intent
func (s *IntentStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM intents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete intent: %w", err)
	}
	return nil
}

func buildIntentQuery(query domain.IntentQuery) (string, []any) {
	var clauses []string
	var args []any

	if query.HostnameSet {
		// IS treats NULL as equal to NULL: hostname is a nullable join
		// key, so a common (hostname-less) query only matches common
		// intents.
		clauses = append(clauses, "hostname IS ?")
		args = append(args, stringToNull(query.Hostname))
	}
	if query.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, query.Type)
	}
	if query.ConfigHash != "" {
		clauses = append(clauses, "config_hash = ?")
		args = append(args, query.ConfigHash)
	}
	if query.FilterHash != "" {
		clauses = append(clauses, "filter_hash = ?")
		args = append(args, query.FilterHash)
	}
	if query.LastDiscoveryStatus != "" {
		clauses = append(clauses, "last_discovery_status = ?")
		args = append(args, query.LastDiscoveryStatus)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func uniqueViolationError(intent *domain.Intent, err error) error {
	if intent.Type == domain.IntentTypeFull {
		return domain.ErrFullIntentAlreadyExists()
	}
	if strings.Contains(err.Error(), "filter_hash") {
		return domain.ErrPartialFilterAlreadyExists()
	}
	return domain.ErrPartialIntentAlreadyExists()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIntent(row *sql.Row) (*domain.Intent, error) {
	intent, err := scanIntentRows(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return intent, err
}

func scanIntentRows(row rowScanner) (*domain.Intent, error) {
	var (
		intent                                     domain.Intent
		hostname, description, config, configHash  sql.NullString
		filter, filterHash, discoveryID, discovery sql.NullString
	)

	err := row.Scan(
		&intent.ID, &hostname, &description, &intent.Type,
		&config, &configHash, &filter, &filterHash,
		&intent.NetdriftManaged, &discoveryID, &intent.LastDiscoveryStatus, &discovery,
		&intent.CreatedAt, &intent.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan intent: %w", err)
	}

	intent.Hostname = nullToString(hostname)
	intent.Description = nullToString(description)
	intent.Config = nullToString(config)
	intent.ConfigHash = nullToString(configHash)
	intent.Filter = nullToString(filter)
	intent.FilterHash = nullToString(filterHash)
	intent.LastDiscoveryID = nullToString(discoveryID)
	intent.LastDiscoveryMessage = nullToString(discovery)

	return &intent, nil
}
