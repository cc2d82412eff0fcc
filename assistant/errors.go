package assistant

import (
	"errors"
	"fmt"
	"strings"
)

// User-facing error replies. Collaborator failures abort the current message
// and produce exactly one of these.
const (
	msgProcessingError = "Sorry, something went wrong while processing that. Please try again."
	msgQuotaError      = "I'm a bit overloaded right now (the language model hit its rate limit). Give me a minute and try again."
	msgThinking        = "Thinking..."
)

// ExtractionError wraps a failure of the extraction collaborator
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("intent extraction failed: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ResponseError wraps a failure of the response-synthesis collaborator
type ResponseError struct {
	Err error
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("response synthesis failed: %v", e.Err)
}

func (e *ResponseError) Unwrap() error { return e.Err }

// quotaMarkers identify rate-limit and quota errors by their text. The
// upstream SDKs do not expose a stable typed error for this across providers.
var quotaMarkers = []string{
	"429",
	"rate limit",
	"rate_limit",
	"quota",
	"resource_exhausted",
	"too many requests",
}

// IsQuotaError reports whether the error looks like a quota or rate-limit
// failure, which gets a friendlier user-facing message than the generic one
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	text := strings.ToLower(err.Error())
	for _, marker := range quotaMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// userFacingError maps a pipeline error to the reply shown to the user
func userFacingError(err error) string {
	if IsQuotaError(err) {
		return msgQuotaError
	}
	return msgProcessingError
}

// errAllProvidersFailed joins the errors collected from a provider fallback
// chain once every provider has failed
func errAllProvidersFailed(errs []error) error {
	return fmt.Errorf("all text providers failed: %w", errors.Join(errs...))
}
