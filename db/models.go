package db

import (
	"database/sql"
	"time"
)

// Task is a persisted task record
type Task struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	DueDate          *string `json:"dueDate,omitempty"`
	DueTime          *string `json:"dueTime,omitempty"`
	EstimatedMinutes *int    `json:"estimatedMinutes,omitempty"`
	Energy           *string `json:"energy,omitempty"`
	Project          *string `json:"project,omitempty"`
	Priority         *string `json:"priority,omitempty"`
	Notes            *string `json:"notes,omitempty"`
	Status           string  `json:"status"` // open, done, cancelled
	CreatedAt        string  `json:"createdAt"`
	UpdatedAt        string  `json:"updatedAt"`
}

// TaskFilter narrows GetTasks results
type TaskFilter struct {
	Status  string
	Project string
	DueDate string
}

// Entity is a tracked person or project reference
type Entity struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	UsageCount  int     `json:"usageCount"`
	Pending     bool    `json:"pending"`
	LastContext *string `json:"lastContext,omitempty"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

// NowUTC returns the current time in RFC3339 format
func NowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// NullString converts *string to sql.NullString
func NullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// NullInt converts *int to sql.NullInt64
func NullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func intPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	i := int(ni.Int64)
	return &i
}
