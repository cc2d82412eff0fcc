package main

import (
	"context"

	"github.com/attent-app/attent/assistant"
	"github.com/attent-app/attent/db"
	"github.com/attent-app/attent/search"
)

// taskStoreAdapter exposes the sqlite task store through the assistant's
// contract
type taskStoreAdapter struct {
	store *db.TaskStore
}

func (a *taskStoreAdapter) CreateTask(ctx context.Context, draft assistant.TaskDraft) (*assistant.CreatedTask, error) {
	task := db.Task{
		Title:            draft.Title,
		DueDate:          optStr(draft.DueDate),
		DueTime:          optStr(draft.DueTime),
		EstimatedMinutes: optInt(draft.EstimatedMinutes),
		Energy:           optStr(draft.Energy),
		Project:          optStr(draft.Project),
		Priority:         optStr(draft.Priority),
		Notes:            optStr(draft.Notes),
	}

	created, err := a.store.CreateTask(task)
	if err != nil {
		return nil, err
	}
	return &assistant.CreatedTask{ID: created.ID, Title: created.Title}, nil
}

func (a *taskStoreAdapter) UpdateTask(ctx context.Context, id string, draft assistant.TaskDraft) error {
	updates := db.TaskUpdates{
		Title:    optStr(draft.Title),
		DueDate:  optStr(draft.DueDate),
		DueTime:  optStr(draft.DueTime),
		Priority: optStr(draft.Priority),
		Notes:    optStr(draft.Notes),
	}
	return a.store.UpdateTask(id, updates)
}

func (a *taskStoreAdapter) GetTasks(ctx context.Context, filter assistant.TaskFilter) ([]assistant.CreatedTask, error) {
	tasks, err := a.store.GetTasks(db.TaskFilter{Status: filter.Status, Project: filter.Project})
	if err != nil {
		return nil, err
	}

	out := make([]assistant.CreatedTask, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, assistant.CreatedTask{ID: t.ID, Title: t.Title})
	}
	return out, nil
}

// entityAdapter exposes a people or projects store as an entity tracker
type entityAdapter struct {
	store *db.EntityStore
}

func (a *entityAdapter) IncrementUsage(name string) error {
	return a.store.IncrementUsage(name)
}

func (a *entityAdapter) MarkPending(name string, context string) error {
	return a.store.MarkPending(name, context)
}

func (a *entityAdapter) ListKnown() ([]string, error) {
	entities, err := a.store.ListKnown()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entities))
	for _, e := range entities {
		names = append(names, e.Name)
	}
	return names, nil
}

// searchAdapter exposes the Meilisearch client as the assistant's
// knowledge lookup
type searchAdapter struct {
	client *search.Client
}

func (a *searchAdapter) Query(ctx context.Context, text string) (*assistant.SearchResult, error) {
	result, err := a.client.Query(ctx, text)
	if err != nil {
		return nil, err
	}
	return &assistant.SearchResult{
		Found:     result.Found,
		Results:   len(result.Results),
		Formatted: result.Formatted,
	}, nil
}

func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optInt(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}
