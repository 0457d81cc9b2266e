// Package streamkit provides a top-level convenience entry point for the
// streaming-response core with minimal boilerplate.
//
// Usage:
//
//	import "github.com/guitaripod/streamkit"
//
//	reg := streamkit.New(streamkit.WithLogger(logger))
//	reg.Start("chat", work, streamkit.Callbacks{OnChunk: render})
//
// This is a thin wrapper around [stream.NewRegistry]; use the stream
// package directly when you need pipelines, pacing, or custom wiring.
package streamkit

import (
	"go.uber.org/zap"

	"github.com/guitaripod/streamkit/internal/metrics"
	"github.com/guitaripod/streamkit/stream"
)

// Re-export the core types so simple callers never import stream/.

// Registry manages named cancellable streams.
type Registry = stream.Registry

// Work is the body of one stream.
type Work = stream.Work

// Callbacks are the consumer-supplied stream hooks.
type Callbacks = stream.Callbacks

// Option configures the registry created by [New].
type Option func(*builder)

type builder struct {
	logger    *zap.Logger
	namespace string
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(b *builder) { b.logger = logger }
}

// WithMetricsNamespace enables prometheus metrics under the given
// namespace.
func WithMetricsNamespace(namespace string) Option {
	return func(b *builder) { b.namespace = namespace }
}

// New creates a ready-to-use stream registry.
func New(opts ...Option) *Registry {
	b := &builder{}
	for _, opt := range opts {
		opt(b)
	}

	var regOpts []stream.RegistryOption
	if b.namespace != "" {
		regOpts = append(regOpts, stream.WithCollector(metrics.NewCollector(b.namespace, b.logger)))
	}
	return stream.NewRegistry(b.logger, regOpts...)
}
