package assistant

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/attent-app/attent/convstate"
	"github.com/attent-app/attent/log"
)

var orchLogger = log.GetLogger("Orchestrator")

// maxReprocessDepth bounds how many times an unparseable correction reply may
// be reprocessed as a fresh message before the loop is cut off
const maxReprocessDepth = 3

// Orchestrator sequences extraction, dispatch, and response synthesis, and
// owns the per-user confirmation state machine. Each user is in one of three
// states: idle (no pending interaction), awaiting a story confirmation, or
// awaiting a tentative confirmation.
type Orchestrator struct {
	states     *convstate.Store[PendingInteraction]
	text       TextService
	dispatcher *Dispatcher
	synth      *Synthesizer
	people     EntityTracker
	projects   EntityTracker

	// Serializes handling per user so two interleaved messages from the
	// same user cannot race on the pending state
	userLocks sync.Map // userID -> *sync.Mutex
}

// NewOrchestrator wires the orchestrator to its collaborators. The state
// store is injected, constructed and owned by the caller.
func NewOrchestrator(
	states *convstate.Store[PendingInteraction],
	text TextService,
	dispatcher *Dispatcher,
	people, projects EntityTracker,
) *Orchestrator {
	return &Orchestrator{
		states:     states,
		text:       text,
		dispatcher: dispatcher,
		synth:      NewSynthesizer(text),
		people:     people,
		projects:   projects,
	}
}

// HandleMessage processes one inbound message for a user. A provisional
// status message is sent immediately and edited in place once processing
// completes, bounding perceived latency.
func (o *Orchestrator) HandleMessage(ctx context.Context, userID, message, sourceChannel string, reply ReplyChannel) {
	lock := o.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	statusID, err := reply.SendStatusMessage(ctx, msgThinking)
	if err != nil {
		// Without a status message the final reply goes out as a new one
		orchLogger.Warn().Err(err).Str("user", userID).Msg("failed to send status message")
		statusID = ""
	}

	finish := func(text string) {
		o.deliver(ctx, reply, statusID, text)
	}

	if pending, ok := o.states.Get(userID); ok {
		o.resolvePending(ctx, userID, message, sourceChannel, pending, finish)
		return
	}

	o.processFresh(ctx, userID, message, sourceChannel, 0, finish)
}

// processFresh runs the full pipeline on a message with no pending context:
// extract, then either request confirmation or dispatch and reply
func (o *Orchestrator) processFresh(ctx context.Context, userID, message, sourceChannel string, depth int, finish func(string)) {
	intent, err := o.text.Extract(ctx, message, o.extractionContext(sourceChannel))
	if err != nil {
		orchLogger.Error().Err(err).Str("user", userID).Msg("extraction failed")
		finish(userFacingError(&ExtractionError{Err: err}))
		return
	}
	if err := intent.Validate(); err != nil {
		orchLogger.Error().Err(err).Str("user", userID).Msg("extractor returned invalid intent")
		finish(msgProcessingError)
		return
	}

	// Low-confidence intents are parked until the user confirms; nothing is
	// dispatched yet
	if intent.NeedsConfirmation {
		o.states.Set(userID, PendingInteraction{
			Type: PendingTentative,
			Tentative: &TentativePending{
				Intent:  *intent,
				Reason:  intent.ConfirmationReason,
				Message: message,
				Depth:   depth,
			},
		})
		finish(tentativePrompt(intent))
		return
	}

	// A story with candidate tasks awaits a selection; no tasks are created
	// until the user picks
	if intent.Kind == IntentStory && intent.Story != nil && len(intent.Story.PotentialTasks) > 0 {
		pending := StoryPending{
			Summary:         intent.Story.Summary,
			PotentialTasks:  intent.Story.PotentialTasks,
			PeopleMentioned: intent.PeopleMentioned,
		}
		o.states.Set(userID, PendingInteraction{
			Type:  PendingStoryConfirmation,
			Story: &pending,
		})
		finish(storyPrompt(&pending))
		return
	}

	o.dispatchAndReply(ctx, intent, message, finish)
}

// resolvePending interprets the message as a reply to the stored interaction
func (o *Orchestrator) resolvePending(ctx context.Context, userID, message, sourceChannel string, pending PendingInteraction, finish func(string)) {
	switch pending.Type {
	case PendingTentative:
		o.resolveTentative(ctx, userID, message, sourceChannel, pending.Tentative, finish)
	case PendingStoryConfirmation:
		o.resolveStorySelection(ctx, userID, message, pending.Story, finish)
	default:
		// Unknown pending type (e.g. written by a newer version): drop it
		// and start over
		orchLogger.Warn().Str("type", string(pending.Type)).Msg("unknown pending interaction type")
		o.states.Clear(userID)
		o.processFresh(ctx, userID, message, sourceChannel, 0, finish)
	}
}

func (o *Orchestrator) resolveTentative(ctx context.Context, userID, message, sourceChannel string, pending *TentativePending, finish func(string)) {
	switch {
	case IsAffirmative(message):
		// Dispatch the originally extracted intent, not a re-extraction
		o.states.Clear(userID)
		intent := pending.Intent
		intent.NeedsConfirmation = false
		intent.ConfirmationReason = ""
		original := pending.Message
		if original == "" {
			original = message
		}
		o.dispatchAndReply(ctx, &intent, original, finish)

	case IsNegative(message):
		o.states.Clear(userID)
		finish("Okay, I won't do that. Anything else?")

	default:
		// Treat the reply as a fresh, corrected input. The depth bound keeps
		// an ambiguous correction from re-prompting forever.
		o.states.Clear(userID)
		if pending.Depth+1 >= maxReprocessDepth {
			orchLogger.Warn().Str("user", userID).Int("depth", pending.Depth+1).Msg("reprocess depth exceeded")
			finish("I still couldn't work out what you meant. Let's start over, tell me again in different words.")
			return
		}
		o.processFresh(ctx, userID, message, sourceChannel, pending.Depth+1, finish)
	}
}

func (o *Orchestrator) resolveStorySelection(ctx context.Context, userID, message string, pending *StoryPending, finish func(string)) {
	n := len(pending.PotentialTasks)

	if IsSkip(message) {
		o.states.Clear(userID)
		finish("No problem, no tasks created.")
		return
	}

	var selection []int
	if IsAll(message) {
		selection = make([]int, n)
		for i := range selection {
			selection[i] = i + 1
		}
	} else {
		selection = ParseSelection(message, n)
	}

	// An unparseable reply never discards the pending interaction; re-prompt
	// and keep waiting
	if len(selection) == 0 {
		finish(fmt.Sprintf("I couldn't match that to the list. Reply with numbers between 1 and %d (e.g. \"1,3\"), \"all\", or \"skip\".", n))
		return
	}

	result := o.dispatcher.CreateSelected(ctx, pending, selection)
	o.states.Clear(userID)
	finish(selectionReport(result))
}

// dispatchAndReply runs dispatch then synthesis, surfacing synthesis failures
// as a processing error so the user always gets some acknowledgment
func (o *Orchestrator) dispatchAndReply(ctx context.Context, intent *ExtractedIntent, message string, finish func(string)) {
	result := o.dispatcher.Dispatch(ctx, intent)

	reply, err := o.synth.Respond(ctx, intent, result, message)
	if err != nil {
		orchLogger.Error().Err(err).Str("kind", string(intent.Kind)).Msg("response synthesis failed")
		finish(userFacingError(err))
		return
	}
	finish(reply)
}

// deliver edits the status message in place when one was sent, otherwise
// falls back to a plain message
func (o *Orchestrator) deliver(ctx context.Context, reply ReplyChannel, statusID, text string) {
	if statusID != "" {
		if err := reply.EditStatusMessage(ctx, statusID, text); err == nil {
			return
		} else {
			orchLogger.Warn().Err(err).Msg("failed to edit status message")
		}
	}
	if err := reply.SendMessage(ctx, text); err != nil {
		orchLogger.Error().Err(err).Msg("failed to deliver reply")
	}
}

func (o *Orchestrator) extractionContext(sourceChannel string) ExtractionContext {
	extraction := ExtractionContext{SourceChannel: sourceChannel}

	if o.people != nil {
		if known, err := o.people.ListKnown(); err == nil {
			extraction.KnownPeople = known
		} else {
			orchLogger.Warn().Err(err).Msg("failed to list known people")
		}
	}
	if o.projects != nil {
		if known, err := o.projects.ListKnown(); err == nil {
			extraction.KnownProjects = known
		} else {
			orchLogger.Warn().Err(err).Msg("failed to list known projects")
		}
	}
	return extraction
}

func (o *Orchestrator) lockFor(userID string) *sync.Mutex {
	lock, _ := o.userLocks.LoadOrStore(userID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// tentativePrompt asks the user to confirm a low-confidence intent
func tentativePrompt(intent *ExtractedIntent) string {
	var b strings.Builder
	b.WriteString("Before I do anything: ")
	b.WriteString(intent.ConfirmationReason)
	b.WriteString("\n\n")
	b.WriteString(intentSummary(intent))
	b.WriteString("\n\nShall I go ahead? (yes/no, or just tell me what you meant)")
	return b.String()
}

// storyPrompt lists the candidate tasks for selection
func storyPrompt(pending *StoryPending) string {
	var b strings.Builder
	if pending.Summary != "" {
		b.WriteString(pending.Summary)
		b.WriteString("\n\n")
	}
	b.WriteString("I spotted these possible tasks:\n")
	for i, task := range pending.PotentialTasks {
		b.WriteString(fmt.Sprintf("%d. %s", i+1, task.Title))
		if task.DueDate != "" {
			b.WriteString(fmt.Sprintf(" (due %s", task.DueDate))
			if task.DueTime != "" {
				b.WriteString(" " + task.DueTime)
			}
			b.WriteString(")")
		}
		b.WriteString("\n")
	}
	b.WriteString("\nWhich should I create? Reply with numbers (e.g. \"1,3\"), \"all\", or \"skip\".")
	return b.String()
}

// selectionReport summarizes created/failed counts after a story selection
func selectionReport(result *ActionResult) string {
	created := len(result.CreatedEntities)
	failed := len(result.FailedEntities)

	var b strings.Builder
	switch created {
	case 0:
		b.WriteString("I couldn't create any of those tasks.")
	case 1:
		b.WriteString(fmt.Sprintf("Created 1 task: %s.", result.CreatedEntities[0].Title))
	default:
		b.WriteString(fmt.Sprintf("Created %d tasks:", created))
		for _, entity := range result.CreatedEntities {
			b.WriteString("\n• " + entity.Title)
		}
	}

	if failed > 0 {
		b.WriteString(fmt.Sprintf("\n%d failed:", failed))
		for _, entity := range result.FailedEntities {
			b.WriteString("\n• " + entity.Title)
		}
	}
	return b.String()
}

// intentSummary gives a one-glance description of what would be executed
func intentSummary(intent *ExtractedIntent) string {
	switch intent.Kind {
	case IntentTask:
		if len(intent.Tasks) == 1 {
			return fmt.Sprintf("I understood a task: %q", intent.Tasks[0].Title)
		}
		titles := make([]string, len(intent.Tasks))
		for i, t := range intent.Tasks {
			titles[i] = t.Title
		}
		return fmt.Sprintf("I understood %d tasks: %s", len(intent.Tasks), strings.Join(titles, "; "))
	case IntentKnowledge:
		return fmt.Sprintf("I understood something to remember: %q", intent.Knowledge.Title)
	case IntentQuestion:
		return fmt.Sprintf("I understood a question: %q", intent.Question)
	case IntentStory:
		return fmt.Sprintf("I understood a story with %d possible tasks", len(intent.Story.PotentialTasks))
	default:
		return fmt.Sprintf("I read that as %s", intent.Kind)
	}
}
