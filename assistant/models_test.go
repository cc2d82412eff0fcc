package assistant

import "testing"

func validTaskIntent() *ExtractedIntent {
	return &ExtractedIntent{
		Kind:       IntentTask,
		Confidence: 0.9,
		Tasks:      []TaskDraft{{Title: "Buy milk"}},
	}
}

func TestValidateAcceptsWellFormedIntents(t *testing.T) {
	intents := []*ExtractedIntent{
		validTaskIntent(),
		{Kind: IntentGreeting, Confidence: 1},
		{Kind: IntentChitchat, Confidence: 0.5},
		{Kind: IntentQuestion, Confidence: 0.8, Question: "where are my keys"},
		{Kind: IntentKnowledge, Confidence: 0.8, Knowledge: &KnowledgePayload{Title: "wifi", Content: "pw is x"}},
		{Kind: IntentStory, Confidence: 0.7, Story: &StoryPayload{Summary: "busy day"}},
	}
	for _, intent := range intents {
		if err := intent.Validate(); err != nil {
			t.Errorf("Validate(%s) = %v, want nil", intent.Kind, err)
		}
	}
}

func TestValidateRejectsUnknownKind(t *testing.T) {
	intent := &ExtractedIntent{Kind: "banter", Confidence: 0.5}
	if err := intent.Validate(); err == nil {
		t.Error("unknown kind should fail validation")
	}
}

func TestValidateRejectsConfidenceOutOfRange(t *testing.T) {
	for _, c := range []float64{-0.1, 1.5} {
		intent := validTaskIntent()
		intent.Confidence = c
		if err := intent.Validate(); err == nil {
			t.Errorf("confidence %v should fail validation", c)
		}
	}
}

func TestValidateRequiresKindPayload(t *testing.T) {
	intents := []*ExtractedIntent{
		{Kind: IntentTask, Confidence: 0.9},
		{Kind: IntentTask, Confidence: 0.9, Tasks: []TaskDraft{{Title: "  "}}},
		{Kind: IntentStory, Confidence: 0.9},
		{Kind: IntentKnowledge, Confidence: 0.9, Knowledge: &KnowledgePayload{Title: "t"}},
		{Kind: IntentQuestion, Confidence: 0.9},
	}
	for _, intent := range intents {
		if err := intent.Validate(); err == nil {
			t.Errorf("%s intent with missing payload should fail validation", intent.Kind)
		}
	}
}

func TestValidateRejectsForeignPayload(t *testing.T) {
	intent := validTaskIntent()
	intent.Question = "and also a question"
	if err := intent.Validate(); err == nil {
		t.Error("task intent with question payload should fail validation")
	}

	intent = &ExtractedIntent{Kind: IntentGreeting, Confidence: 1, Story: &StoryPayload{}}
	if err := intent.Validate(); err == nil {
		t.Error("greeting intent with story payload should fail validation")
	}
}

func TestValidateRequiresConfirmationReason(t *testing.T) {
	intent := validTaskIntent()
	intent.NeedsConfirmation = true
	if err := intent.Validate(); err == nil {
		t.Error("needsConfirmation without a reason should fail validation")
	}

	intent.ConfirmationReason = "the due date was ambiguous"
	if err := intent.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}
