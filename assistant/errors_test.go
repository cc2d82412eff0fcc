package assistant

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsQuotaError(t *testing.T) {
	quota := []error{
		errors.New("request failed with status 429"),
		errors.New("Rate limit exceeded"),
		errors.New("insufficient quota for this key"),
		errors.New("RESOURCE_EXHAUSTED: try later"),
		fmt.Errorf("wrapped: %w", errors.New("too many requests")),
	}
	for _, err := range quota {
		if !IsQuotaError(err) {
			t.Errorf("IsQuotaError(%v) = false, want true", err)
		}
	}

	other := []error{
		nil,
		errors.New("connection refused"),
		errors.New("invalid api key"),
	}
	for _, err := range other {
		if IsQuotaError(err) {
			t.Errorf("IsQuotaError(%v) = true, want false", err)
		}
	}
}

func TestUserFacingError(t *testing.T) {
	if got := userFacingError(errors.New("429 too many requests")); got != msgQuotaError {
		t.Errorf("quota error mapped to %q", got)
	}
	if got := userFacingError(errors.New("boom")); got != msgProcessingError {
		t.Errorf("generic error mapped to %q", got)
	}
}

func TestQuotaDetectionThroughWrappers(t *testing.T) {
	cause := errors.New("openai: 429 rate limit reached")
	err := &ExtractionError{Err: cause}
	if !IsQuotaError(err) {
		t.Error("quota marker should survive the extraction wrapper")
	}
	if !errors.Is(err, cause) {
		t.Error("ExtractionError should unwrap to its cause")
	}
}

func TestErrAllProvidersFailedJoins(t *testing.T) {
	first := errors.New("first down")
	second := errors.New("second down")
	err := errAllProvidersFailed([]error{first, second})
	if !errors.Is(err, first) || !errors.Is(err, second) {
		t.Errorf("joined error should contain both causes: %v", err)
	}
}
