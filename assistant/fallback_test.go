package assistant

import (
	"context"
	"errors"
	"testing"
)

// scriptedText is a TextService returning canned results
type scriptedText struct {
	intent     *ExtractedIntent
	reply      string
	err        error
	extractCnt int
	respondCnt int
}

func (s *scriptedText) Extract(ctx context.Context, message string, extraction ExtractionContext) (*ExtractedIntent, error) {
	s.extractCnt++
	return s.intent, s.err
}

func (s *scriptedText) Respond(ctx context.Context, intent *ExtractedIntent, result *ActionResult, originalMessage string) (string, error) {
	s.respondCnt++
	return s.reply, s.err
}

func TestFallbackChainUsesFirstSuccess(t *testing.T) {
	primary := &scriptedText{intent: validTaskIntent()}
	secondary := &scriptedText{intent: validTaskIntent()}
	chain := NewFallbackChain(primary, secondary)

	intent, err := chain.Extract(context.Background(), "buy milk", ExtractionContext{})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if intent != primary.intent {
		t.Error("expected primary provider's intent")
	}
	if secondary.extractCnt != 0 {
		t.Error("secondary provider should not be consulted on primary success")
	}
}

func TestFallbackChainFallsThrough(t *testing.T) {
	primary := &scriptedText{err: errors.New("429 rate limit")}
	secondary := &scriptedText{reply: "hello there"}
	chain := NewFallbackChain(primary, secondary)

	reply, err := chain.Respond(context.Background(), validTaskIntent(), &ActionResult{}, "hi")
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if reply != "hello there" {
		t.Errorf("reply = %q", reply)
	}
	if primary.respondCnt != 1 || secondary.respondCnt != 1 {
		t.Errorf("call counts = %d, %d", primary.respondCnt, secondary.respondCnt)
	}
}

func TestFallbackChainCollectsAllErrors(t *testing.T) {
	first := errors.New("first down")
	second := errors.New("second down")
	chain := NewFallbackChain(&scriptedText{err: first}, &scriptedText{err: second})

	_, err := chain.Extract(context.Background(), "msg", ExtractionContext{})
	if err == nil {
		t.Fatal("expected error when every provider fails")
	}
	if !errors.Is(err, first) || !errors.Is(err, second) {
		t.Errorf("error should carry both causes: %v", err)
	}
}
