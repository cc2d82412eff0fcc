package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// EntityStore tracks named references (people or projects) with usage
// counters. Unknown names are recorded as pending until the user resolves
// them.
type EntityStore struct {
	db    *DB
	table string
}

// NewPeopleStore creates the people tracker
func NewPeopleStore(db *DB) *EntityStore {
	return &EntityStore{db: db, table: "people"}
}

// NewProjectStore creates the project tracker
func NewProjectStore(db *DB) *EntityStore {
	return &EntityStore{db: db, table: "projects"}
}

// GetByName returns the entity with the given name (case-insensitive), or nil
func (s *EntityStore) GetByName(name string) (*Entity, error) {
	row := s.db.queryRow(fmt.Sprintf(`
		SELECT id, name, usage_count, pending, last_context, created_at, updated_at
		FROM %s WHERE name = ? COLLATE NOCASE
	`, s.table), strings.TrimSpace(name))

	entity, err := scanEntity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// ListKnown returns all non-pending entities ordered by usage
func (s *EntityStore) ListKnown() ([]Entity, error) {
	rows, err := s.db.query(fmt.Sprintf(`
		SELECT id, name, usage_count, pending, last_context, created_at, updated_at
		FROM %s WHERE pending = 0
		ORDER BY usage_count DESC, name
	`, s.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entities := []Entity{}
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, rows.Err()
}

// ListPending returns entities awaiting user disambiguation
func (s *EntityStore) ListPending() ([]Entity, error) {
	rows, err := s.db.query(fmt.Sprintf(`
		SELECT id, name, usage_count, pending, last_context, created_at, updated_at
		FROM %s WHERE pending = 1
		ORDER BY updated_at DESC
	`, s.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entities := []Entity{}
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, rows.Err()
}

// Create inserts a new known entity
func (s *EntityStore) Create(name string) (*Entity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("entity name is required")
	}

	now := NowUTC()
	entity := Entity{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.exec(fmt.Sprintf(`
		INSERT INTO %s (id, name, usage_count, pending, created_at, updated_at)
		VALUES (?, ?, 0, 0, ?, ?)
	`, s.table), entity.ID, entity.Name, entity.CreatedAt, entity.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create entity: %w", err)
	}

	return &entity, nil
}

// IncrementUsage bumps the usage counter for a known entity
func (s *EntityStore) IncrementUsage(name string) error {
	result, err := s.db.exec(fmt.Sprintf(`
		UPDATE %s SET usage_count = usage_count + 1, updated_at = ?
		WHERE name = ? COLLATE NOCASE
	`, s.table), NowUTC(), strings.TrimSpace(name))
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("entity not found: %s", name)
	}
	return nil
}

// MarkPending records an unknown name for later disambiguation. Repeated
// mentions update the stored context instead of creating duplicates.
func (s *EntityStore) MarkPending(name string, context string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("entity name is required")
	}

	existing, err := s.GetByName(name)
	if err != nil {
		return err
	}

	now := NowUTC()
	if existing != nil {
		_, err = s.db.exec(fmt.Sprintf(`
			UPDATE %s SET last_context = ?, updated_at = ? WHERE id = ?
		`, s.table), context, now, existing.ID)
		return err
	}

	_, err = s.db.exec(fmt.Sprintf(`
		INSERT INTO %s (id, name, usage_count, pending, last_context, created_at, updated_at)
		VALUES (?, ?, 0, 1, ?, ?, ?)
	`, s.table), uuid.New().String(), name, context, now, now)
	return err
}

// Resolve marks a pending entity as known
func (s *EntityStore) Resolve(id string) error {
	result, err := s.db.exec(fmt.Sprintf(`
		UPDATE %s SET pending = 0, updated_at = ? WHERE id = ?
	`, s.table), NowUTC(), id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("entity not found: %s", id)
	}
	return nil
}

func scanEntity(row interface{ Scan(...any) error }) (Entity, error) {
	var e Entity
	var pending int
	var lastContext sql.NullString

	err := row.Scan(&e.ID, &e.Name, &e.UsageCount, &pending, &lastContext, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return e, err
	}

	e.Pending = pending != 0
	e.LastContext = stringPtr(lastContext)
	return e, nil
}
