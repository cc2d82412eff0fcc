package assistant

import "context"

// Synthesizer turns an (intent, action result) pair into the user-facing
// reply. It holds no state and must not mutate its inputs; a synthesis
// failure is a processing error, because the user must receive some
// acknowledgment.
type Synthesizer struct {
	text TextService
}

// NewSynthesizer creates a response synthesizer over the given text service
func NewSynthesizer(text TextService) *Synthesizer {
	return &Synthesizer{text: text}
}

// Respond generates the conversational reply for a completed action
func (s *Synthesizer) Respond(ctx context.Context, intent *ExtractedIntent, result *ActionResult, originalMessage string) (string, error) {
	reply, err := s.text.Respond(ctx, intent, result, originalMessage)
	if err != nil {
		return "", &ResponseError{Err: err}
	}
	return reply, nil
}
