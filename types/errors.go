package types

import "errors"

// Error taxonomy shared across the pipeline. Callers classify with
// errors.Is; wrapping with fmt.Errorf("...: %w", err) preserves the class.
var (
	// ErrInvalidInput marks a malformed request (user error, 4xx).
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidQuery marks an empty or unusable search query.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrDownstreamUnavailable marks an unreachable or erroring provider
	// (embedding, vector store, generation) after the retry budget.
	ErrDownstreamUnavailable = errors.New("downstream unavailable")

	// ErrDownstreamTimeout marks a provider call that exceeded its deadline.
	// Treated as ErrDownstreamUnavailable once retries are exhausted.
	ErrDownstreamTimeout = errors.New("downstream timeout")
)
