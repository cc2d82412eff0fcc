// Package assistant implements the message-processing pipeline: intent
// extraction, the per-user confirmation state machine, action dispatch, and
// response synthesis.
package assistant

import (
	"fmt"
	"strings"
)

// IntentKind classifies one inbound message. Closed set; exactly one per
// message.
type IntentKind string

const (
	IntentGreeting  IntentKind = "greeting"
	IntentChitchat  IntentKind = "chitchat"
	IntentStory     IntentKind = "story"
	IntentTask      IntentKind = "task"
	IntentKnowledge IntentKind = "knowledge"
	IntentQuestion  IntentKind = "question"
)

// ValidKind reports whether k is one of the closed intent kinds
func ValidKind(k IntentKind) bool {
	switch k {
	case IntentGreeting, IntentChitchat, IntentStory, IntentTask, IntentKnowledge, IntentQuestion:
		return true
	}
	return false
}

// Mention is a person or project referenced in a message
type Mention struct {
	Name    string `json:"name"`
	IsKnown bool   `json:"isKnown"`
	ID      string `json:"id,omitempty"`
}

// PotentialTask is a task candidate extracted from a story, awaiting user
// selection before anything is created
type PotentialTask struct {
	Title    string `json:"title"`
	DueDate  string `json:"dueDate,omitempty"`
	DueTime  string `json:"dueTime,omitempty"`
	Priority string `json:"priority,omitempty"`
	Order    int    `json:"order,omitempty"`
	Context  string `json:"context,omitempty"`
}

// TaskDraft is a fully specified task ready to be created
type TaskDraft struct {
	Title            string `json:"title"`
	DueDate          string `json:"dueDate,omitempty"`
	DueTime          string `json:"dueTime,omitempty"`
	EstimatedMinutes int    `json:"estimatedMinutes,omitempty"`
	Energy           string `json:"energy,omitempty"`
	Project          string `json:"project,omitempty"`
	Priority         string `json:"priority,omitempty"`
	Notes            string `json:"notes,omitempty"`
}

// StoryPayload carries the candidate tasks distilled from a free-form story
type StoryPayload struct {
	Summary        string          `json:"summary"`
	PotentialTasks []PotentialTask `json:"potentialTasks"`
}

// KnowledgePayload carries a piece of knowledge to save
type KnowledgePayload struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// ExtractedIntent is the structured result of classifying one message.
// Exactly one kind-specific payload is populated, matching Kind.
type ExtractedIntent struct {
	Kind               IntentKind `json:"kind"`
	Confidence         float64    `json:"confidence"`
	NeedsConfirmation  bool       `json:"needsConfirmation,omitempty"`
	ConfirmationReason string     `json:"confirmationReason,omitempty"`

	Story     *StoryPayload     `json:"story,omitempty"`
	Tasks     []TaskDraft       `json:"tasks,omitempty"`
	Knowledge *KnowledgePayload `json:"knowledge,omitempty"`
	Question  string            `json:"question,omitempty"`

	// Always attempted, independent of Kind
	PeopleMentioned   []Mention `json:"peopleMentioned,omitempty"`
	ProjectsMentioned []Mention `json:"projectsMentioned,omitempty"`
}

// Validate checks the intent invariants: a known kind, confidence within
// [0,1], the kind-specific payload present, and no payload for a foreign kind
func (e *ExtractedIntent) Validate() error {
	if !ValidKind(e.Kind) {
		return fmt.Errorf("unknown intent kind: %q", e.Kind)
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return fmt.Errorf("confidence %v outside [0,1]", e.Confidence)
	}
	if e.NeedsConfirmation && strings.TrimSpace(e.ConfirmationReason) == "" {
		return fmt.Errorf("needsConfirmation set without a reason")
	}

	switch e.Kind {
	case IntentStory:
		if e.Story == nil {
			return fmt.Errorf("story intent without story payload")
		}
	case IntentTask:
		if len(e.Tasks) == 0 {
			return fmt.Errorf("task intent without tasks")
		}
		for i, t := range e.Tasks {
			if strings.TrimSpace(t.Title) == "" {
				return fmt.Errorf("task %d has no title", i+1)
			}
		}
	case IntentKnowledge:
		if e.Knowledge == nil {
			return fmt.Errorf("knowledge intent without knowledge payload")
		}
		if strings.TrimSpace(e.Knowledge.Content) == "" {
			return fmt.Errorf("knowledge intent without content")
		}
	case IntentQuestion:
		if strings.TrimSpace(e.Question) == "" {
			return fmt.Errorf("question intent without query text")
		}
	}

	// A foreign payload would make the intent ambiguous
	if e.Kind != IntentStory && e.Story != nil {
		return fmt.Errorf("%s intent carries a story payload", e.Kind)
	}
	if e.Kind != IntentTask && len(e.Tasks) > 0 {
		return fmt.Errorf("%s intent carries task payloads", e.Kind)
	}
	if e.Kind != IntentKnowledge && e.Knowledge != nil {
		return fmt.Errorf("%s intent carries a knowledge payload", e.Kind)
	}
	if e.Kind != IntentQuestion && e.Question != "" {
		return fmt.Errorf("%s intent carries a question payload", e.Kind)
	}

	return nil
}

// PendingType identifies what kind of reply the assistant is waiting on
type PendingType string

const (
	PendingStoryConfirmation PendingType = "story_confirmation"
	PendingTentative         PendingType = "tentative"
)

// PendingInteraction is the per-user pending state between messages. At most
// one exists per user; the conversation state store stamps it with its
// creation time for staleness.
type PendingInteraction struct {
	Type      PendingType       `json:"type"`
	Story     *StoryPending     `json:"story,omitempty"`
	Tentative *TentativePending `json:"tentative,omitempty"`
}

// StoryPending awaits a selection reply against candidate tasks
type StoryPending struct {
	Summary         string          `json:"summary,omitempty"`
	PotentialTasks  []PotentialTask `json:"potentialTasks"`
	PeopleMentioned []Mention       `json:"peopleMentioned,omitempty"`
}

// TentativePending awaits a yes/no/correction reply before any action runs
type TentativePending struct {
	Intent ExtractedIntent `json:"intent"`
	Reason string          `json:"reason"`
	// Message is the user input the intent was extracted from, replayed to
	// the responder once the user confirms
	Message string `json:"message,omitempty"`
	// Depth counts how many times a correction reply has been reprocessed,
	// bounding the reprompt loop under ambiguous input
	Depth int `json:"depth,omitempty"`
}

// CreatedEntity describes one side effect of a dispatched action
type CreatedEntity struct {
	Kind  string `json:"kind"` // task, note
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
	Path  string `json:"path,omitempty"`
}

// FailedEntity describes one item that could not be created
type FailedEntity struct {
	Kind  string `json:"kind"`
	Title string `json:"title"`
	Err   string `json:"error"`
}

// ActionResult is the outcome of dispatching one intent. It is used only to
// build the reply and never persisted.
type ActionResult struct {
	ActionTaken     string          `json:"actionTaken"`
	CreatedEntities []CreatedEntity `json:"createdEntities,omitempty"`
	FailedEntities  []FailedEntity  `json:"failedEntities,omitempty"`

	// Question dispatch
	SearchFound     bool   `json:"searchFound,omitempty"`
	SearchFormatted string `json:"searchFormatted,omitempty"`
}

// ExtractionContext gives the extractor the user's known entities so mentions
// can be resolved against them
type ExtractionContext struct {
	KnownPeople   []string
	KnownProjects []string
	SourceChannel string
}
