package assistant

import (
	"context"
	"fmt"

	"github.com/attent-app/attent/log"
)

var dispatchLogger = log.GetLogger("Dispatcher")

// Action markers reported back through ActionResult
const (
	ActionNone           = "none"
	ActionTasksCreated   = "tasks_created"
	ActionKnowledgeSaved = "knowledge_saved"
	ActionQuestion       = "question_answered"
)

// Dispatcher turns a resolved intent into side effects against the external
// collaborators. Per-item failures are isolated; the result carries both
// created and failed lists so partial success can be reported.
type Dispatcher struct {
	tasks    TaskStore
	notes    NoteStore
	search   KnowledgeSearch
	people   EntityTracker
	projects EntityTracker
}

// NewDispatcher wires the dispatcher to its collaborators
func NewDispatcher(tasks TaskStore, notes NoteStore, search KnowledgeSearch, people, projects EntityTracker) *Dispatcher {
	return &Dispatcher{
		tasks:    tasks,
		notes:    notes,
		search:   search,
		people:   people,
		projects: projects,
	}
}

// Dispatch executes the side effects implied by the intent. Entity tracking
// runs fire-and-forget relative to the main reply path.
func (d *Dispatcher) Dispatch(ctx context.Context, intent *ExtractedIntent) *ActionResult {
	go d.trackEntities(intent)

	switch intent.Kind {
	case IntentTask:
		return d.createTasks(ctx, intent.Tasks)

	case IntentKnowledge:
		return d.saveKnowledge(ctx, *intent.Knowledge)

	case IntentQuestion:
		return d.answerQuestion(ctx, intent.Question)

	default:
		// greeting, chitchat, story (candidates await confirmation):
		// no side effect, but the response stage still needs a marker
		return &ActionResult{ActionTaken: ActionNone}
	}
}

// CreateSelected creates exactly the selected candidates from a confirmed
// story, converting them to task drafts first. Indices are 1-based and
// assumed already validated.
func (d *Dispatcher) CreateSelected(ctx context.Context, pending *StoryPending, indices []int) *ActionResult {
	drafts := make([]TaskDraft, 0, len(indices))
	for _, idx := range indices {
		candidate := pending.PotentialTasks[idx-1]
		drafts = append(drafts, TaskDraft{
			Title:    candidate.Title,
			DueDate:  candidate.DueDate,
			DueTime:  candidate.DueTime,
			Priority: candidate.Priority,
			Notes:    candidate.Context,
		})
	}

	go d.trackMentions(d.people, pending.PeopleMentioned, pending.Summary)

	return d.createTasks(ctx, drafts)
}

func (d *Dispatcher) createTasks(ctx context.Context, drafts []TaskDraft) *ActionResult {
	result := &ActionResult{ActionTaken: ActionTasksCreated}

	for _, draft := range drafts {
		created, err := d.tasks.CreateTask(ctx, draft)
		if err != nil {
			dispatchLogger.Error().Err(err).Str("title", draft.Title).Msg("task creation failed")
			result.FailedEntities = append(result.FailedEntities, FailedEntity{
				Kind:  "task",
				Title: draft.Title,
				Err:   err.Error(),
			})
			continue
		}

		result.CreatedEntities = append(result.CreatedEntities, CreatedEntity{
			Kind:  "task",
			ID:    created.ID,
			Title: created.Title,
		})

		// Mirror into the notes vault; a mirror failure does not undo the
		// task, it only loses the journal line
		if err := d.notes.AppendTask(ctx, draft, created.ID); err != nil {
			dispatchLogger.Warn().Err(err).Str("task", created.ID).Msg("failed to mirror task into notes")
		}
	}

	return result
}

func (d *Dispatcher) saveKnowledge(ctx context.Context, knowledge KnowledgePayload) *ActionResult {
	result := &ActionResult{ActionTaken: ActionKnowledgeSaved}

	path, err := d.notes.CreateKnowledgeNote(ctx, knowledge)
	if err != nil {
		dispatchLogger.Error().Err(err).Str("title", knowledge.Title).Msg("knowledge note creation failed")
		result.FailedEntities = append(result.FailedEntities, FailedEntity{
			Kind:  "note",
			Title: knowledge.Title,
			Err:   err.Error(),
		})
		return result
	}

	result.CreatedEntities = append(result.CreatedEntities, CreatedEntity{
		Kind:  "note",
		Title: knowledge.Title,
		Path:  path,
	})
	return result
}

func (d *Dispatcher) answerQuestion(ctx context.Context, question string) *ActionResult {
	result := &ActionResult{ActionTaken: ActionQuestion}

	if d.search == nil {
		return result
	}

	found, err := d.search.Query(ctx, question)
	if err != nil {
		dispatchLogger.Error().Err(err).Str("question", question).Msg("knowledge search failed")
		result.FailedEntities = append(result.FailedEntities, FailedEntity{
			Kind:  "search",
			Title: question,
			Err:   err.Error(),
		})
		return result
	}

	result.SearchFound = found.Found
	result.SearchFormatted = found.Formatted
	return result
}

// trackEntities credits known mentions and records unknown ones as pending.
// Errors are logged, never propagated: tracking must not fail the action.
func (d *Dispatcher) trackEntities(intent *ExtractedIntent) {
	context := mentionContext(intent)
	d.trackMentions(d.people, intent.PeopleMentioned, context)
	d.trackMentions(d.projects, intent.ProjectsMentioned, context)
}

func (d *Dispatcher) trackMentions(tracker EntityTracker, mentions []Mention, context string) {
	if tracker == nil {
		return
	}
	for _, mention := range mentions {
		var err error
		if mention.IsKnown {
			err = tracker.IncrementUsage(mention.Name)
		} else {
			err = tracker.MarkPending(mention.Name, context)
		}
		if err != nil {
			dispatchLogger.Warn().Err(err).Str("name", mention.Name).Msg("entity tracking failed")
		}
	}
}

func mentionContext(intent *ExtractedIntent) string {
	switch intent.Kind {
	case IntentStory:
		if intent.Story != nil {
			return intent.Story.Summary
		}
	case IntentKnowledge:
		if intent.Knowledge != nil {
			return intent.Knowledge.Title
		}
	case IntentQuestion:
		return intent.Question
	case IntentTask:
		if len(intent.Tasks) > 0 {
			return fmt.Sprintf("task: %s", intent.Tasks[0].Title)
		}
	}
	return string(intent.Kind)
}
