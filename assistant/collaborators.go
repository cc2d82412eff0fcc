package assistant

import "context"

// TextService is a language-model backend capable of intent extraction and
// response generation. Multiple implementations are tried in order via
// FallbackChain.
type TextService interface {
	Extract(ctx context.Context, message string, extraction ExtractionContext) (*ExtractedIntent, error)
	Respond(ctx context.Context, intent *ExtractedIntent, result *ActionResult, originalMessage string) (string, error)
}

// CreatedTask is the task store's view of a persisted task
type CreatedTask struct {
	ID    string
	Title string
}

// TaskFilter narrows GetTasks results
type TaskFilter struct {
	Status  string
	Project string
}

// TaskStore persists tasks
type TaskStore interface {
	CreateTask(ctx context.Context, draft TaskDraft) (*CreatedTask, error)
	UpdateTask(ctx context.Context, id string, draft TaskDraft) error
	// GetTasks must return an empty slice, never nil, when nothing matches
	GetTasks(ctx context.Context, filter TaskFilter) ([]CreatedTask, error)
}

// NoteStore mirrors tasks into the notes vault and saves knowledge notes
type NoteStore interface {
	AppendTask(ctx context.Context, draft TaskDraft, taskID string) error
	CreateKnowledgeNote(ctx context.Context, knowledge KnowledgePayload) (string, error)
}

// SearchResult is the outcome of a knowledge query
type SearchResult struct {
	Found     bool
	Results   int
	Formatted string
}

// KnowledgeSearch answers free-text questions against saved knowledge
type KnowledgeSearch interface {
	Query(ctx context.Context, text string) (*SearchResult, error)
}

// EntityTracker records people or project mentions. Tracking failures must
// never abort message processing; callers log and continue.
type EntityTracker interface {
	IncrementUsage(name string) error
	MarkPending(name string, context string) error
	ListKnown() ([]string, error)
}

// ReplyChannel delivers replies for one conversation. SendStatusMessage
// returns a message identifier that EditStatusMessage can later rewrite in
// place.
type ReplyChannel interface {
	SendMessage(ctx context.Context, text string) error
	SendStatusMessage(ctx context.Context, text string) (string, error)
	EditStatusMessage(ctx context.Context, messageID string, text string) error
}
