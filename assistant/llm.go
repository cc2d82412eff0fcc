package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/attent-app/attent/utils"
	"github.com/attent-app/attent/vendors"
)

const extractionSystemPrompt = `# Personal Assistant Intent Extraction

## Role
You classify one message sent to a personal assistant and extract its
structured content. The user writes in English or Spanish.

## Output
Output **valid JSON only**, matching this shape:

{
  "kind": "greeting | chitchat | story | task | knowledge | question",
  "confidence": 0.0-1.0,
  "needsConfirmation": false,
  "confirmationReason": "",
  "story": {"summary": "...", "potentialTasks": [{"title": "...", "dueDate": "YYYY-MM-DD", "dueTime": "HH:MM", "priority": "low|medium|high", "order": 1, "context": "..."}]},
  "tasks": [{"title": "...", "dueDate": "YYYY-MM-DD", "dueTime": "HH:MM", "estimatedMinutes": 30, "energy": "low|medium|high", "project": "...", "priority": "low|medium|high", "notes": "..."}],
  "knowledge": {"title": "...", "content": "...", "category": "...", "tags": ["..."]},
  "question": "...",
  "peopleMentioned": [{"name": "...", "isKnown": false}],
  "projectsMentioned": [{"name": "...", "isKnown": false}]
}

## Rules
- Pick exactly ONE kind and fill ONLY its payload. Omit the others entirely.
- "story": a narrative about the user's day or plans that implies possible
  tasks. Distill them into potentialTasks; do not invent details.
- "task": explicit, fully specified requests to create tasks.
- "knowledge": a fact, reference, or note the user wants saved.
- "question": the user is asking about previously saved knowledge or tasks.
- Always attempt peopleMentioned and projectsMentioned regardless of kind.
  Set isKnown true only when the name appears in the known lists below.
- If you are genuinely unsure what the user wants executed, set
  needsConfirmation true with a short confirmationReason, still filling your
  best-guess payload.
- Do NOT wrap the JSON in markdown fences or add commentary.`

const responseSystemPrompt = `# Personal Assistant Reply

## Role
You write the assistant's conversational reply after an action has been
handled. Reply in the language of the user's message (English or Spanish).

## Rules
- One short, warm paragraph. No markdown headings, no bullet spam.
- If entities were created, confirm exactly what was created.
- If some items failed, acknowledge the partial failure honestly.
- If a knowledge search found results, weave the findings in; if it found
  nothing, say so and offer to save the answer when the user has it.
- For greetings and chitchat, just be a pleasant companion. Never invent
  actions that did not happen.`

// completionClient is the slice of vendors.OpenAIClient the text service
// needs; narrowed for testability
type completionClient interface {
	Complete(ctx context.Context, opts vendors.CompletionOptions) (*vendors.CompletionResponse, error)
	Model() string
}

// OpenAITextService implements TextService over an OpenAI-compatible chat
// completion endpoint, using JSON mode for extraction
type OpenAITextService struct {
	client completionClient
}

// NewOpenAITextService wraps an OpenAI client as a TextService
func NewOpenAITextService(client *vendors.OpenAIClient) *OpenAITextService {
	return &OpenAITextService{client: client}
}

// Extract classifies one message into a typed intent
func (s *OpenAITextService) Extract(ctx context.Context, message string, extraction ExtractionContext) (*ExtractedIntent, error) {
	resp, err := s.client.Complete(ctx, vendors.CompletionOptions{
		SystemPrompt: extractionSystemPrompt,
		Prompt:       buildExtractionPrompt(message, extraction),
		MaxTokens:    1024,
		Temperature:  0.1,
		JSONMode:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("extraction call failed: %w", err)
	}

	var intent ExtractedIntent
	if err := utils.ParseJSONFromLLMResponse(resp.Content, &intent); err != nil {
		return nil, fmt.Errorf("unparseable extraction output: %w", err)
	}

	normalizeIntent(&intent)
	if err := intent.Validate(); err != nil {
		return nil, fmt.Errorf("invalid extraction output: %w", err)
	}
	return &intent, nil
}

// Respond generates the conversational reply
func (s *OpenAITextService) Respond(ctx context.Context, intent *ExtractedIntent, result *ActionResult, originalMessage string) (string, error) {
	resp, err := s.client.Complete(ctx, vendors.CompletionOptions{
		SystemPrompt: responseSystemPrompt,
		Prompt:       buildResponsePrompt(intent, result, originalMessage),
		MaxTokens:    512,
		Temperature:  0.7,
	})
	if err != nil {
		return "", fmt.Errorf("response call failed: %w", err)
	}

	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		return "", fmt.Errorf("empty response from model %s", s.client.Model())
	}
	return reply, nil
}

func buildExtractionPrompt(message string, extraction ExtractionContext) string {
	var b strings.Builder
	b.WriteString("## Known people\n")
	writeNameList(&b, extraction.KnownPeople)
	b.WriteString("\n## Known projects\n")
	writeNameList(&b, extraction.KnownProjects)
	if extraction.SourceChannel != "" {
		fmt.Fprintf(&b, "\n## Source channel\n%s\n", extraction.SourceChannel)
	}
	b.WriteString("\n## Message\n")
	b.WriteString(message)
	return b.String()
}

func buildResponsePrompt(intent *ExtractedIntent, result *ActionResult, originalMessage string) string {
	intentJSON, _ := json.Marshal(intent)
	resultJSON, _ := json.Marshal(result)

	var b strings.Builder
	b.WriteString("## User message\n")
	b.WriteString(originalMessage)
	b.WriteString("\n\n## Classified intent\n")
	b.Write(intentJSON)
	b.WriteString("\n\n## Action outcome\n")
	b.Write(resultJSON)
	b.WriteString("\n\nWrite the reply now.")
	return b.String()
}

func writeNameList(b *strings.Builder, names []string) {
	if len(names) == 0 {
		b.WriteString("(none)\n")
		return
	}
	for _, name := range names {
		b.WriteString("- " + name + "\n")
	}
}

// normalizeIntent tidies model output before validation: clamps confidence
// and drops payloads the model attached to the wrong kind
func normalizeIntent(intent *ExtractedIntent) {
	if intent.Confidence < 0 {
		intent.Confidence = 0
	}
	if intent.Confidence > 1 {
		intent.Confidence = 1
	}

	if intent.Kind != IntentStory {
		intent.Story = nil
	}
	if intent.Kind != IntentTask {
		intent.Tasks = nil
	}
	if intent.Kind != IntentKnowledge {
		intent.Knowledge = nil
	}
	if intent.Kind != IntentQuestion {
		intent.Question = ""
	}
}
