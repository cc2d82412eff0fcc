package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// TaskStore persists tasks in sqlite
type TaskStore struct {
	db *DB
}

// NewTaskStore creates a task store backed by the given database
func NewTaskStore(db *DB) *TaskStore {
	return &TaskStore{db: db}
}

// CreateTask inserts a new task and returns it with its generated ID
func (s *TaskStore) CreateTask(task Task) (*Task, error) {
	if strings.TrimSpace(task.Title) == "" {
		return nil, fmt.Errorf("task title is required")
	}

	task.ID = uuid.New().String()
	if task.Status == "" {
		task.Status = "open"
	}
	now := NowUTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	_, err := s.db.exec(`
		INSERT INTO tasks (id, title, due_date, due_time, estimated_minutes, energy, project, priority, notes, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, task.ID, task.Title, NullString(task.DueDate), NullString(task.DueTime),
		NullInt(task.EstimatedMinutes), NullString(task.Energy), NullString(task.Project),
		NullString(task.Priority), NullString(task.Notes), task.Status, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}

	return &task, nil
}

// UpdateTask applies non-nil updates to an existing task
func (s *TaskStore) UpdateTask(id string, updates TaskUpdates) error {
	var sets []string
	var args []any

	if updates.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *updates.Title)
	}
	if updates.DueDate != nil {
		sets = append(sets, "due_date = ?")
		args = append(args, *updates.DueDate)
	}
	if updates.DueTime != nil {
		sets = append(sets, "due_time = ?")
		args = append(args, *updates.DueTime)
	}
	if updates.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, *updates.Priority)
	}
	if updates.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *updates.Notes)
	}
	if updates.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *updates.Status)
	}

	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, NowUTC(), id)

	result, err := s.db.exec("UPDATE tasks SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("task not found: %s", id)
	}
	return nil
}

// TaskUpdates holds optional task field updates
type TaskUpdates struct {
	Title    *string
	DueDate  *string
	DueTime  *string
	Priority *string
	Notes    *string
	Status   *string
}

// GetTasks returns tasks matching the filter, newest first.
// Always returns a non-nil slice.
func (s *TaskStore) GetTasks(filter TaskFilter) ([]Task, error) {
	query := `
		SELECT id, title, due_date, due_time, estimated_minutes, energy, project, priority, notes, status, created_at, updated_at
		FROM tasks
	`
	var conditions []string
	var args []any

	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Project != "" {
		conditions = append(conditions, "project = ? COLLATE NOCASE")
		args = append(args, filter.Project)
	}
	if filter.DueDate != "" {
		conditions = append(conditions, "due_date = ?")
		args = append(args, filter.DueDate)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tasks, nil
}

// GetTask returns one task by id, or nil if not found
func (s *TaskStore) GetTask(id string) (*Task, error) {
	row := s.db.queryRow(`
		SELECT id, title, due_date, due_time, estimated_minutes, energy, project, priority, notes, status, created_at, updated_at
		FROM tasks WHERE id = ?
	`, id)

	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func scanTask(row interface{ Scan(...any) error }) (Task, error) {
	var t Task
	var dueDate, dueTime, energy, project, priority, notes sql.NullString
	var estimated sql.NullInt64

	err := row.Scan(
		&t.ID, &t.Title, &dueDate, &dueTime, &estimated,
		&energy, &project, &priority, &notes, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return t, err
	}

	t.DueDate = stringPtr(dueDate)
	t.DueTime = stringPtr(dueTime)
	t.EstimatedMinutes = intPtr(estimated)
	t.Energy = stringPtr(energy)
	t.Project = stringPtr(project)
	t.Priority = stringPtr(priority)
	t.Notes = stringPtr(notes)
	return t, nil
}
