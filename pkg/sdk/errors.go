package resumeqa

import "github.com/resumeqa/resumeqa/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Every error returned by Ask wraps exactly one of them. Use errors.Is() to check.
var (
	ErrInvalidInput  = domain.ErrInvalidInput
	ErrNotConfigured = domain.ErrNotConfigured
	ErrRateLimited   = domain.ErrRateLimited
	ErrUpstream      = domain.ErrUpstream
)
