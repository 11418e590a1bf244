package domain

import (
	"errors"
	"fmt"
)

// Caller-facing failure kinds. Every error returned by the answer pipeline
// wraps exactly one of these.
var (
	// ErrInvalidInput signals an empty or whitespace-only question.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotConfigured signals missing input data or a missing credential.
	ErrNotConfigured = errors.New("not configured")
	// ErrRateLimited signals provider quota or rate limit exhaustion.
	ErrRateLimited = errors.New("rate limited")
	// ErrUpstream signals any other provider, index or storage failure.
	ErrUpstream = errors.New("upstream failure")
)

// Refinements of the caller-facing kinds.
var (
	// ErrNoChunks signals that the source records produced nothing to index.
	ErrNoChunks = fmt.Errorf("%w: no chunks produced", ErrNotConfigured)
	// ErrIndexIncompatible signals a persisted index built under another schema, provider or model.
	ErrIndexIncompatible = errors.New("incompatible persisted index")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
)

// Kind classifies an error for the caller.
type Kind int

const (
	// KindUpstream is the default for anything unclassified.
	KindUpstream Kind = iota
	// KindInvalidInput maps to ErrInvalidInput.
	KindInvalidInput
	// KindNotConfigured maps to ErrNotConfigured.
	KindNotConfigured
	// KindRateLimited maps to ErrRateLimited.
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotConfigured:
		return "not_configured"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "upstream"
	}
}

// KindOf returns the caller-facing kind of err. Nil maps to KindUpstream;
// callers check for nil first.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrNotConfigured):
		return KindNotConfigured
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	default:
		return KindUpstream
	}
}

// Classified wraps err with ErrUpstream unless it already carries one of the
// caller-facing kinds.
func Classified(err error) error {
	if err == nil {
		return nil
	}
	for _, s := range []error{ErrInvalidInput, ErrNotConfigured, ErrRateLimited, ErrUpstream} {
		if errors.Is(err, s) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", ErrUpstream, err)
}
