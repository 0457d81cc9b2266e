package stream

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/guitaripod/streamkit/internal/metrics"
)

// Work is the body of one stream. It runs on its own goroutine, receives
// a context cancelled when the stream is cancelled or replaced, and is
// expected to check ctx between chunk deliveries. Chunks are delivered
// through emit; returning nil completes the stream, returning an error
// fails it, and returning ctx.Err() after cancellation is suppressed.
type Work func(ctx context.Context, emit func(chunk string)) error

// Callbacks are the consumer-supplied terminal and progress hooks for a
// stream. OnChunk fires zero or more times while the stream runs.
// Exactly one of OnComplete / OnError fires when a non-cancelled stream
// reaches a terminal state; a cancelled stream fires neither. Any field
// may be nil.
type Callbacks struct {
	OnChunk    func(chunk string)
	OnComplete func()
	OnError    func(err error)
}

// handle is the registry's record of one in-flight stream.
// Lifecycle: Running -> {Completed | Failed | Cancelled}, all terminal.
type handle struct {
	id        string
	runID     string
	cancel    context.CancelFunc
	cancelled atomic.Bool
	startedAt time.Time
}

// Registry manages zero or more concurrently active named streams, each
// independently cancellable, with at most one live stream per identifier.
//
// The registry is the only component in this package accessed from
// multiple goroutines: Start, Cancel and CancelAll may race each other
// and stream completion, so the id-to-handle map is mutex-guarded and
// entries are removed under the lock, synchronously with entering a
// terminal state.
type Registry struct {
	logger    *zap.Logger
	collector *metrics.Collector

	mu      sync.Mutex
	streams map[string]*handle
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithCollector attaches a metrics collector recording stream lifecycle
// events.
func WithCollector(c *metrics.Collector) RegistryOption {
	return func(r *Registry) { r.collector = c }
}

// NewRegistry creates an empty stream registry. A nil logger is replaced
// by zap.NewNop.
func NewRegistry(logger *zap.Logger, opts ...RegistryOption) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		logger:  logger.With(zap.String("component", "stream_registry")),
		streams: make(map[string]*handle),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start registers a new cancellable stream under id and runs work on its
// own goroutine. If a stream is already live under id it is cancelled
// and discarded first, so its callbacks never fire after the new stream
// starts. An empty id is replaced by a generated UUID. Start returns the
// effective id.
func (r *Registry) Start(id string, work Work, cb Callbacks) string {
	if id == "" {
		id = uuid.NewString()
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &handle{
		id:        id,
		runID:     uuid.NewString(),
		cancel:    cancel,
		startedAt: time.Now(),
	}

	r.mu.Lock()
	if prev, ok := r.streams[id]; ok {
		prev.cancelled.Store(true)
		prev.cancel()
		delete(r.streams, id)
		r.logger.Debug("stream replaced",
			zap.String("stream_id", id),
			zap.String("old_run_id", prev.runID),
		)
		if r.collector != nil {
			r.collector.RecordStreamEnd(metrics.OutcomeCancelled, time.Since(prev.startedAt))
		}
	}
	r.streams[id] = h
	r.mu.Unlock()

	r.logger.Debug("stream started",
		zap.String("stream_id", id),
		zap.String("run_id", h.runID),
	)
	if r.collector != nil {
		r.collector.RecordStreamStart()
	}

	go r.run(ctx, h, work, cb)
	return id
}

// run executes work and settles the stream into exactly one terminal
// state.
func (r *Registry) run(ctx context.Context, h *handle, work Work, cb Callbacks) {
	emit := func(chunk string) {
		if h.cancelled.Load() {
			return
		}
		if cb.OnChunk != nil {
			cb.OnChunk(chunk)
		}
	}

	err := work(ctx, emit)

	// Remove the entry before any terminal callback so the registry
	// never reports a settled stream as active.
	r.mu.Lock()
	if cur, ok := r.streams[h.id]; ok && cur == h {
		delete(r.streams, h.id)
	}
	cancelled := h.cancelled.Load()
	r.mu.Unlock()

	duration := time.Since(h.startedAt)

	switch {
	case cancelled, errors.Is(err, context.Canceled):
		// Cancellation is not an error: neither callback fires.
		r.logger.Debug("stream cancelled",
			zap.String("stream_id", h.id),
			zap.String("run_id", h.runID),
		)
		if !cancelled && r.collector != nil {
			r.collector.RecordStreamEnd(metrics.OutcomeCancelled, duration)
		}
	case err != nil:
		r.logger.Warn("stream failed",
			zap.String("stream_id", h.id),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		if r.collector != nil {
			r.collector.RecordStreamEnd(metrics.OutcomeFailed, duration)
		}
		if cb.OnError != nil {
			cb.OnError(err)
		}
	default:
		r.logger.Debug("stream completed",
			zap.String("stream_id", h.id),
			zap.Duration("duration", duration),
		)
		if r.collector != nil {
			r.collector.RecordStreamEnd(metrics.OutcomeCompleted, duration)
		}
		if cb.OnComplete != nil {
			cb.OnComplete()
		}
	}
}

// Cancel signals cancellation to the stream registered under id and
// removes it from the registry. It is a no-op if id is not present.
func (r *Registry) Cancel(id string) {
	r.mu.Lock()
	h, ok := r.streams[id]
	if ok {
		h.cancelled.Store(true)
		h.cancel()
		delete(r.streams, id)
	}
	r.mu.Unlock()

	if ok {
		r.logger.Debug("stream cancel requested", zap.String("stream_id", id))
		if r.collector != nil {
			r.collector.RecordStreamEnd(metrics.OutcomeCancelled, time.Since(h.startedAt))
		}
	}
}

// CancelAll signals cancellation to every registered stream and clears
// the registry. Used on owner teardown.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	cancelled := make([]*handle, 0, len(r.streams))
	for id, h := range r.streams {
		h.cancelled.Store(true)
		h.cancel()
		delete(r.streams, id)
		cancelled = append(cancelled, h)
	}
	r.mu.Unlock()

	if len(cancelled) > 0 {
		r.logger.Debug("all streams cancelled", zap.Int("count", len(cancelled)))
		if r.collector != nil {
			for _, h := range cancelled {
				r.collector.RecordStreamEnd(metrics.OutcomeCancelled, time.Since(h.startedAt))
			}
		}
	}
}

// IsActive reports whether a stream is currently registered under id.
func (r *Registry) IsActive(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.streams[id]
	return ok
}

// Active returns the identifiers of all currently registered streams.
func (r *Registry) Active() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.streams))
	for id := range r.streams {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of currently registered streams.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.streams)
}
