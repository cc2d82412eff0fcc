package assistant

import (
	"context"

	"github.com/attent-app/attent/log"
)

var fallbackLogger = log.GetLogger("TextService")

// FallbackChain is a TextService that tries an ordered list of providers,
// returning the first success. Errors are collected and surfaced only when
// every provider has failed.
type FallbackChain struct {
	providers []TextService
}

// NewFallbackChain builds a chain from the given providers, in priority order
func NewFallbackChain(providers ...TextService) *FallbackChain {
	return &FallbackChain{providers: providers}
}

// Extract tries each provider in order
func (c *FallbackChain) Extract(ctx context.Context, message string, extraction ExtractionContext) (*ExtractedIntent, error) {
	var errs []error
	for i, provider := range c.providers {
		intent, err := provider.Extract(ctx, message, extraction)
		if err == nil {
			return intent, nil
		}
		fallbackLogger.Warn().Err(err).Int("provider", i).Msg("extraction provider failed")
		errs = append(errs, err)
	}
	return nil, errAllProvidersFailed(errs)
}

// Respond tries each provider in order
func (c *FallbackChain) Respond(ctx context.Context, intent *ExtractedIntent, result *ActionResult, originalMessage string) (string, error) {
	var errs []error
	for i, provider := range c.providers {
		text, err := provider.Respond(ctx, intent, result, originalMessage)
		if err == nil {
			return text, nil
		}
		fallbackLogger.Warn().Err(err).Int("provider", i).Msg("response provider failed")
		errs = append(errs, err)
	}
	return "", errAllProvidersFailed(errs)
}
