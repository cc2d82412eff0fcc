package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/attent-app/attent/vendors"
)

// fakeCompletion is a completionClient returning a fixed payload
type fakeCompletion struct {
	content string
	err     error
	gotOpts vendors.CompletionOptions
}

func (f *fakeCompletion) Complete(ctx context.Context, opts vendors.CompletionOptions) (*vendors.CompletionResponse, error) {
	f.gotOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return &vendors.CompletionResponse{Content: f.content}, nil
}

func (f *fakeCompletion) Model() string { return "fake-model" }

func TestExtractParsesIntentJSON(t *testing.T) {
	fake := &fakeCompletion{content: `{
		"kind": "task",
		"confidence": 0.92,
		"tasks": [{"title": "Buy milk", "dueDate": "2026-09-02"}],
		"peopleMentioned": [{"name": "Ana", "isKnown": true}]
	}`}
	svc := &OpenAITextService{client: fake}

	intent, err := svc.Extract(context.Background(), "buy milk tomorrow, Ana reminded me", ExtractionContext{})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if intent.Kind != IntentTask {
		t.Errorf("kind = %s", intent.Kind)
	}
	if len(intent.Tasks) != 1 || intent.Tasks[0].Title != "Buy milk" {
		t.Errorf("tasks = %+v", intent.Tasks)
	}
	if len(intent.PeopleMentioned) != 1 || !intent.PeopleMentioned[0].IsKnown {
		t.Errorf("mentions = %+v", intent.PeopleMentioned)
	}
	if !fake.gotOpts.JSONMode {
		t.Error("extraction should request JSON mode")
	}
}

func TestExtractHandlesFencedJSON(t *testing.T) {
	fake := &fakeCompletion{content: "Here you go:\n```json\n{\"kind\":\"greeting\",\"confidence\":1}\n```"}
	svc := &OpenAITextService{client: fake}

	intent, err := svc.Extract(context.Background(), "hola", ExtractionContext{})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if intent.Kind != IntentGreeting {
		t.Errorf("kind = %s", intent.Kind)
	}
}

func TestExtractNormalizesForeignPayloads(t *testing.T) {
	// The model sometimes attaches a stray payload to the wrong kind; it is
	// dropped rather than failing validation
	fake := &fakeCompletion{content: `{
		"kind": "greeting",
		"confidence": 1.7,
		"question": "stray payload"
	}`}
	svc := &OpenAITextService{client: fake}

	intent, err := svc.Extract(context.Background(), "hi", ExtractionContext{})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if intent.Question != "" {
		t.Error("foreign question payload should be dropped")
	}
	if intent.Confidence != 1 {
		t.Errorf("confidence not clamped: %v", intent.Confidence)
	}
}

func TestExtractRejectsGarbage(t *testing.T) {
	svc := &OpenAITextService{client: &fakeCompletion{content: "I'm sorry, I can't classify that."}}
	if _, err := svc.Extract(context.Background(), "msg", ExtractionContext{}); err == nil {
		t.Error("non-JSON output should fail extraction")
	}

	svc = &OpenAITextService{client: &fakeCompletion{err: errors.New("boom")}}
	if _, err := svc.Extract(context.Background(), "msg", ExtractionContext{}); err == nil {
		t.Error("transport error should propagate")
	}
}

func TestRespondRejectsEmptyReply(t *testing.T) {
	svc := &OpenAITextService{client: &fakeCompletion{content: "   \n"}}
	if _, err := svc.Respond(context.Background(), validTaskIntent(), &ActionResult{}, "msg"); err == nil {
		t.Error("blank model output should be an error")
	}
}

func TestBuildExtractionPromptIncludesContext(t *testing.T) {
	prompt := buildExtractionPrompt("call Ana", ExtractionContext{
		KnownPeople:   []string{"Ana", "Luis"},
		KnownProjects: []string{"kitchen-remodel"},
		SourceChannel: "telegram",
	})

	for _, want := range []string{"- Ana", "- Luis", "- kitchen-remodel", "telegram", "call Ana"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}
