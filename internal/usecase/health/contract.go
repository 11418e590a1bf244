package health

import "context"

// StorePinger checks index store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// PipelineState reports whether the answer pipeline is initialized.
type PipelineState interface {
	Ready() bool
}
