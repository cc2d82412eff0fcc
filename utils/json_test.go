package utils

import "testing"

type parsed struct {
	Kind       string  `json:"kind"`
	Confidence float64 `json:"confidence"`
}

func TestParseJSONFromLLMResponseDirect(t *testing.T) {
	var out parsed
	if err := ParseJSONFromLLMResponse(`{"kind":"task","confidence":0.9}`, &out); err != nil {
		t.Fatalf("direct parse failed: %v", err)
	}
	if out.Kind != "task" || out.Confidence != 0.9 {
		t.Errorf("out = %+v", out)
	}
}

func TestParseJSONFromLLMResponseCodeFence(t *testing.T) {
	content := "Sure, here is the classification:\n```json\n{\"kind\": \"greeting\"}\n```\nLet me know!"
	var out parsed
	if err := ParseJSONFromLLMResponse(content, &out); err != nil {
		t.Fatalf("fenced parse failed: %v", err)
	}
	if out.Kind != "greeting" {
		t.Errorf("out = %+v", out)
	}
}

func TestParseJSONFromLLMResponseBareFence(t *testing.T) {
	content := "```\n{\"kind\": \"question\"}\n```"
	var out parsed
	if err := ParseJSONFromLLMResponse(content, &out); err != nil {
		t.Fatalf("bare fence parse failed: %v", err)
	}
	if out.Kind != "question" {
		t.Errorf("out = %+v", out)
	}
}

func TestParseJSONFromLLMResponseEmbeddedObject(t *testing.T) {
	content := `The answer is {"kind": "chitchat", "confidence": 1} as requested.`
	var out parsed
	if err := ParseJSONFromLLMResponse(content, &out); err != nil {
		t.Fatalf("embedded parse failed: %v", err)
	}
	if out.Kind != "chitchat" {
		t.Errorf("out = %+v", out)
	}
}

func TestParseJSONFromLLMResponseGarbage(t *testing.T) {
	var out parsed
	if err := ParseJSONFromLLMResponse("I cannot answer that.", &out); err == nil {
		t.Error("garbage should fail to parse")
	}
}
