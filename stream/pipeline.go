package stream

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/guitaripod/streamkit/internal/metrics"
	"github.com/guitaripod/streamkit/tokenizer"
	"github.com/guitaripod/streamkit/transport"
)

// PipelineOption configures RunPipeline.
type PipelineOption func(*pipelineOptions)

type pipelineOptions struct {
	collector *metrics.Collector
	counter   tokenizer.Tokenizer
	logger    *zap.Logger
}

// WithPipelineCollector records chunk, unit and flush metrics.
func WithPipelineCollector(c *metrics.Collector) PipelineOption {
	return func(o *pipelineOptions) { o.collector = c }
}

// WithTokenizer counts model tokens per finalized unit for throughput
// accounting. Counting failures are logged and skipped, never fatal.
func WithTokenizer(t tokenizer.Tokenizer) PipelineOption {
	return func(o *pipelineOptions) { o.counter = t }
}

// WithPipelineLogger sets the pipeline logger.
func WithPipelineLogger(l *zap.Logger) PipelineOption {
	return func(o *pipelineOptions) { o.logger = l }
}

// RunPipeline pulls chunks from src until the stream ends, feeding the
// aggregator and forwarding each finalized unit to the emitter. At
// stream end the trailing partial unit is finalized and the emitter is
// force-flushed, so no content is lost.
//
// A transport failure terminates only this pipeline: the emitter is
// still flushed with whatever arrived, and the error is returned for the
// caller (typically Registry work) to surface through OnError. A context
// cancellation is returned as-is so the registry can suppress it.
func RunPipeline(ctx context.Context, src transport.Source, agg *Aggregator, em *Emitter, opts ...PipelineOption) error {
	o := pipelineOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	forward := func(units []string) {
		for _, u := range units {
			em.Ingest(u)
			if o.counter != nil {
				n, err := o.counter.CountTokens(u)
				if err != nil {
					o.logger.Debug("token count failed", zap.Error(err))
				} else if o.collector != nil {
					o.collector.RecordTokens(n)
				}
			}
		}
		if o.collector != nil {
			o.collector.RecordUnits(len(units))
		}
	}

	for {
		chunk, err := src.Recv(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				forward(agg.Finalize())
				em.Finish()
				o.logger.Debug("pipeline finished",
					zap.Int("units", agg.EmittedCount()),
					zap.Float64("units_per_sec", agg.Throughput()),
				)
				return nil
			}
			// Flush what already arrived before surfacing the failure.
			em.Finish()
			return err
		}

		if o.collector != nil {
			o.collector.RecordChunk(len(chunk))
		}
		forward(agg.Ingest(chunk))
	}
}

// PipelineWork adapts RunPipeline into Registry work: every raw chunk
// received from the source is delivered to the registry's OnChunk
// callback via emit, while finalized units flow into the emitter.
func PipelineWork(src transport.Source, agg *Aggregator, em *Emitter, opts ...PipelineOption) Work {
	return func(ctx context.Context, emit func(string)) error {
		return RunPipeline(ctx, &tappedSource{src: src, tap: emit}, agg, em, opts...)
	}
}

// tappedSource forwards every received chunk to tap before returning it.
type tappedSource struct {
	src transport.Source
	tap func(string)
}

func (t *tappedSource) Recv(ctx context.Context) (string, error) {
	chunk, err := t.src.Recv(ctx)
	if err == nil && t.tap != nil {
		t.tap(chunk)
	}
	return chunk, err
}
