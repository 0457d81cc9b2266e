package metrics

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

// Each test gets its own namespace: promauto registers with the global
// registerer, and duplicate registration panics.
func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("streamkit_test_%d", seq)
}

func TestNewCollector(t *testing.T) {
	c := NewCollector(nextTestNamespace(), zap.NewNop())

	assert.NotNil(t, c.streamsStarted)
	assert.NotNil(t, c.streamsEnded)
	assert.NotNil(t, c.streamDuration)
	assert.NotNil(t, c.unitsEmitted)
	assert.NotNil(t, c.flushSize)
}

func TestCollector_StreamLifecycle(t *testing.T) {
	c := NewCollector(nextTestNamespace(), zap.NewNop())

	c.RecordStreamStart()
	c.RecordStreamStart()
	c.RecordStreamEnd(OutcomeCompleted, 120*time.Millisecond)
	c.RecordStreamEnd(OutcomeCancelled, 40*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.streamsStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.streamsEnded.WithLabelValues(OutcomeCompleted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.streamsEnded.WithLabelValues(OutcomeCancelled)))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.streamsEnded.WithLabelValues(OutcomeFailed)))
}

func TestCollector_ChunkAndFlushCounters(t *testing.T) {
	c := NewCollector(nextTestNamespace(), zap.NewNop())

	c.RecordChunk(10)
	c.RecordChunk(22)
	c.RecordUnits(3)
	c.RecordTokens(7)
	c.RecordFlush(64)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.chunksIngested))
	assert.Equal(t, 32.0, testutil.ToFloat64(c.bytesIngested))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.unitsEmitted))
	assert.Equal(t, 7.0, testutil.ToFloat64(c.tokensCounted))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.flushesTotal))
}
