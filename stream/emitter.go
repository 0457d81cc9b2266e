package stream

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/guitaripod/streamkit/internal/metrics"
)

// DefaultEmitInterval is the throttle window used when the caller passes
// a non-positive interval.
const DefaultEmitInterval = 100 * time.Millisecond

// Sink receives coalesced emitter output. It is invoked with the entire
// buffered content accumulated since the previous flush, never with an
// empty string.
type Sink func(text string)

// Emitter rate-limits how often buffered stream content is forwarded to
// a consumer. Chunks ingested between ticks are coalesced and released
// in a single Sink call per interval, decoupling arrival frequency from
// presentation frequency.
//
// The Sink runs on the emitter's timer goroutine (or on the caller's
// goroutine for the final Finish flush); consumers needing a specific
// execution context must hop inside the Sink.
type Emitter struct {
	interval  time.Duration
	sink      Sink
	logger    *zap.Logger
	collector *metrics.Collector

	// sinkMu is held across buffer capture and the Sink call so a timer
	// flush and the final Finish flush never reorder or interleave.
	sinkMu sync.Mutex

	mu       sync.Mutex
	buf      strings.Builder
	running  bool
	finished bool
	stopCh   chan struct{}
	flushes  int
}

// EmitterOption configures an Emitter.
type EmitterOption func(*Emitter)

// WithFlushCollector records each flush (count and size) on the given
// metrics collector.
func WithFlushCollector(c *metrics.Collector) EmitterOption {
	return func(e *Emitter) { e.collector = c }
}

// NewEmitter creates an Emitter forwarding to sink at most once per
// interval. A nil logger is replaced by zap.NewNop.
func NewEmitter(interval time.Duration, sink Sink, logger *zap.Logger, opts ...EmitterOption) *Emitter {
	if interval <= 0 {
		interval = DefaultEmitInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Emitter{
		interval: interval,
		sink:     sink,
		logger:   logger.With(zap.String("component", "emitter")),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ingest appends a chunk to the internal buffer without forwarding it.
// The first ingest after construction (or after nothing was ever
// buffered) arms the periodic timer. Ingest after Finish is discarded.
func (e *Emitter) Ingest(chunk string) {
	if chunk == "" {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.finished {
		e.logger.Debug("chunk dropped after finish", zap.Int("len", len(chunk)))
		return
	}

	e.buf.WriteString(chunk)

	if !e.running {
		e.running = true
		e.stopCh = make(chan struct{})
		go e.loop(e.stopCh)
	}
}

// Finish stops the periodic timer and performs one final forced flush so
// no buffered content is lost at stream end. It is idempotent.
func (e *Emitter) Finish() {
	e.sinkMu.Lock()
	defer e.sinkMu.Unlock()

	e.mu.Lock()
	if e.finished {
		e.mu.Unlock()
		return
	}
	e.finished = true
	if e.running {
		close(e.stopCh)
		e.running = false
	}
	out := e.buf.String()
	e.buf.Reset()
	if out != "" {
		e.flushes++
	}
	e.mu.Unlock()

	if out == "" {
		return
	}
	if e.collector != nil {
		e.collector.RecordFlush(len(out))
	}
	if e.sink != nil {
		e.sink(out)
	}
}

// Pending returns the number of buffered bytes awaiting the next flush.
// Immediately after Finish it is always 0.
func (e *Emitter) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buf.Len()
}

// Flushes returns how many non-empty emissions have been forwarded.
func (e *Emitter) Flushes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.flushes
}

// loop drives the periodic tick until Finish closes stopCh. The ticker
// is always stopped on exit so a finished emitter leaks no wakeups.
func (e *Emitter) loop(stopCh chan struct{}) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			e.flushTick()
		}
	}
}

// flushTick forwards the whole buffer in one Sink call if non-empty.
func (e *Emitter) flushTick() {
	e.sinkMu.Lock()
	defer e.sinkMu.Unlock()

	e.mu.Lock()
	if e.finished || e.buf.Len() == 0 {
		e.mu.Unlock()
		return
	}
	out := e.buf.String()
	e.buf.Reset()
	e.flushes++
	e.mu.Unlock()

	if e.collector != nil {
		e.collector.RecordFlush(len(out))
	}
	if e.sink != nil {
		e.sink(out)
	}
}
