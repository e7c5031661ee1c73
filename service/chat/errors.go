package chat

import (
	"errors"
	"fmt"
)

var (
	ErrAllProvidersUnavailable = errors.New("all models unavailable")

	errEmptyResponse    = errors.New("model returned an empty response")
	errStepLimitReached = errors.New("tool call not executed: step limit reached")
	errToolCallDropped  = errors.New("tool call not executed: model did not complete it")
)

// ProviderError 所有模型均失败，Last 为最后一次失败的原因
type ProviderError struct {
	Attempts int
	Last     error
}

func (e *ProviderError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("%s after %d attempts", ErrAllProvidersUnavailable, e.Attempts)
	}
	return fmt.Sprintf("%s after %d attempts: %v", ErrAllProvidersUnavailable, e.Attempts, e.Last)
}

func (e *ProviderError) Unwrap() []error {
	if e.Last == nil {
		return []error{ErrAllProvidersUnavailable}
	}
	return []error{ErrAllProvidersUnavailable, e.Last}
}
