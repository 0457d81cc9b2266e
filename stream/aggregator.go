package stream

import (
	"strings"
	"time"
	"unicode"
)

// DelimiterPolicy controls how the Aggregator treats unit boundaries.
type DelimiterPolicy int

const (
	// DropDelimiters finalizes units without their boundary rune and
	// discards empty units produced by consecutive delimiters. This is
	// the default: consumers get clean tokens ("Hello", "world").
	DropDelimiters DelimiterPolicy = iota

	// KeepDelimiters finalizes units with their trailing boundary rune
	// included and keeps empty-prefix segments, so that concatenating
	// every finalized unit plus the pending tail reconstructs the raw
	// input exactly. Use this when the consumer renders verbatim text.
	KeepDelimiters
)

// Aggregator accumulates streamed text chunks and finalizes
// whitespace-delimited units as they complete.
//
// An Aggregator is single-writer state: it is owned by one stream's
// goroutine and must not be shared across streams without external
// synchronization.
type Aggregator struct {
	policy    DelimiterPolicy
	buf       []rune
	emitted   int
	startedAt time.Time

	now func() time.Time // test hook
}

// NewAggregator constructs an Aggregator. Unknown policy values fall
// back to DropDelimiters.
func NewAggregator(policy DelimiterPolicy) *Aggregator {
	switch policy {
	case DropDelimiters, KeepDelimiters:
		// ok
	default:
		policy = DropDelimiters
	}
	return &Aggregator{
		policy: policy,
		buf:    make([]rune, 0, 256),
		now:    time.Now,
	}
}

// Ingest appends a chunk to the pending buffer and returns the units it
// completed, in order. The first call records the stream start time used
// by Throughput. An empty chunk is a no-op.
func (a *Aggregator) Ingest(chunk string) []string {
	if chunk == "" {
		return nil
	}
	if a.startedAt.IsZero() {
		a.startedAt = a.now()
	}
	a.buf = append(a.buf, []rune(chunk)...)
	return a.collect()
}

// Finalize flushes any remaining partial content as one final unit, even
// though it was never boundary-terminated. It is a no-op on an empty
// buffer, so calling it again after the flush is safe.
func (a *Aggregator) Finalize() []string {
	if len(a.buf) == 0 {
		return nil
	}
	out := []string{string(a.buf)}
	a.buf = a.buf[:0]
	a.emitted++
	return out
}

// Throughput returns finalized units per second since the first chunk
// arrived. It returns 0 before any chunk or unit, and guards against a
// zero elapsed interval.
func (a *Aggregator) Throughput() float64 {
	if a.startedAt.IsZero() || a.emitted == 0 {
		return 0
	}
	elapsed := a.now().Sub(a.startedAt).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(a.emitted) / elapsed
}

// Pending returns the not-yet-finalized tail of the buffer.
func (a *Aggregator) Pending() string {
	return string(a.buf)
}

// EmittedCount returns the number of units finalized so far.
func (a *Aggregator) EmittedCount() int {
	return a.emitted
}

// collect scans the buffer for delimiter runes and finalizes every
// completed unit, keeping the trailing partial segment buffered.
func (a *Aggregator) collect() []string {
	var out []string
	start := 0

	for i := 0; i < len(a.buf); i++ {
		if !unicode.IsSpace(a.buf[i]) {
			continue
		}
		switch a.policy {
		case KeepDelimiters:
			out = append(out, string(a.buf[start:i+1]))
		default:
			if i > start {
				out = append(out, string(a.buf[start:i]))
			}
		}
		start = i + 1
	}

	if start > 0 {
		a.buf = append(a.buf[:0], a.buf[start:]...)
	}
	a.emitted += len(out)
	return out
}

// JoinUnits concatenates finalized units back into text. Under
// KeepDelimiters this is the exact original text; under DropDelimiters
// it is the delimiter-free content.
func JoinUnits(units []string) string {
	var b strings.Builder
	for _, u := range units {
		b.WriteString(u)
	}
	return b.String()
}
