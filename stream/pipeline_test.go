package stream

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guitaripod/streamkit/tokenizer"
	"github.com/guitaripod/streamkit/transport"
	"github.com/guitaripod/streamkit/types"
)

// errSource fails after yielding its chunks.
type errSource struct {
	chunks []string
	err    error
	pos    int
}

func (s *errSource) Recv(ctx context.Context) (string, error) {
	if s.pos >= len(s.chunks) {
		return "", s.err
	}
	chunk := s.chunks[s.pos]
	s.pos++
	return chunk, nil
}

func feedChannel(chunks ...string) <-chan string {
	ch := make(chan string, len(chunks))
	for _, c := range chunks {
		ch <- c
	}
	close(ch)
	return ch
}

func TestRunPipeline_EndToEnd(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(KeepDelimiters)
	rec := &sinkRecorder{}
	em := NewEmitter(10*time.Millisecond, rec.sink, nil)
	src := transport.NewChannelSource(feedChannel("Hel", "lo wor", "ld"))

	err := RunPipeline(context.Background(), src, agg, em)
	require.NoError(t, err)

	// The emitter was finished, so everything the transport delivered
	// reached the sink.
	var total string
	for _, f := range rec.snapshot() {
		total += f
	}
	assert.Equal(t, "Hello world", total)
	assert.Equal(t, 0, em.Pending())
	assert.Equal(t, "", agg.Pending())
	assert.Equal(t, 2, agg.EmittedCount())
}

func TestRunPipeline_TransportErrorStillFlushes(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(KeepDelimiters)
	rec := &sinkRecorder{}
	em := NewEmitter(time.Hour, rec.sink, nil)

	boom := types.NewError(types.ErrTransport, "connection reset").WithRetryable(true)
	src := &errSource{chunks: []string{"partial "}, err: boom}

	err := RunPipeline(context.Background(), src, agg, em)
	require.ErrorIs(t, err, boom)

	// Content that arrived before the failure is not lost.
	assert.Equal(t, []string{"partial "}, rec.snapshot())
	assert.Equal(t, 0, em.Pending())
}

func TestRunPipeline_ContextCancellation(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(DropDelimiters)
	em := NewEmitter(10*time.Millisecond, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := transport.NewChannelSource(make(chan string))
	err := RunPipeline(ctx, src, agg, em)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunPipeline_TokenAccounting(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(DropDelimiters)
	em := NewEmitter(10*time.Millisecond, nil, nil)
	src := transport.NewChannelSource(feedChannel("alpha beta ", "gamma"))

	counter := tokenizer.NewEstimatorTokenizer("gpt-4o-mini")
	err := RunPipeline(context.Background(), src, agg, em, WithTokenizer(counter))
	require.NoError(t, err)
	assert.Equal(t, 3, agg.EmittedCount())
}

func TestPipelineWork_DeliversChunksThroughRegistry(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(nil)
	agg := NewAggregator(KeepDelimiters)
	em := NewEmitter(10*time.Millisecond, nil, nil)
	src := transport.NewChannelSource(feedChannel("a ", "b ", "c"))

	rec := &callbackRecorder{}
	reg.Start("pipe", PipelineWork(src, agg, em), rec.callbacks())

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&rec.completes) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 3, rec.chunkCount())
}

func TestPipelineWork_CancelledStreamStaysSilent(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(nil)
	agg := NewAggregator(DropDelimiters)
	em := NewEmitter(10*time.Millisecond, nil, nil)

	ch := make(chan string) // never closed, never fed
	src := transport.NewChannelSource(ch)

	rec := &callbackRecorder{}
	reg.Start("pipe", PipelineWork(src, agg, em), rec.callbacks())
	require.True(t, reg.IsActive("pipe"))

	reg.Cancel("pipe")
	time.Sleep(50 * time.Millisecond)

	assert.Zero(t, atomic.LoadInt32(&rec.completes))
	assert.Equal(t, 0, rec.errCount())
}

// A malformed-payload failure on one stream must not corrupt another
// concurrently registered stream.
func TestPipeline_FailureIsolation(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(nil)

	bad := &callbackRecorder{}
	badSrc := &errSource{err: types.NewError(types.ErrMalformedPayload, "bad frame")}
	reg.Start("bad", PipelineWork(badSrc, NewAggregator(DropDelimiters), NewEmitter(time.Hour, nil, nil)), bad.callbacks())

	good := &callbackRecorder{}
	goodSrc := transport.NewChannelSource(feedChannel("fine "))
	reg.Start("good", PipelineWork(goodSrc, NewAggregator(DropDelimiters), NewEmitter(10*time.Millisecond, nil, nil)), good.callbacks())

	assert.Eventually(t, func() bool {
		return bad.errCount() == 1 && atomic.LoadInt32(&good.completes) == 1
	}, time.Second, 5*time.Millisecond)

	bad.mu.Lock()
	var streamErr *types.Error
	require.True(t, errors.As(bad.errs[0], &streamErr))
	assert.Equal(t, types.ErrMalformedPayload, streamErr.Code)
	bad.mu.Unlock()
}
