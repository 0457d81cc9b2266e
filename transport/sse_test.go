package transport

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guitaripod/streamkit/types"
)

func TestSSESource_ParsesDataLines(t *testing.T) {
	t.Parallel()

	raw := strings.Join([]string{
		"event: message",
		"data: Hello",
		"",
		": heartbeat comment",
		"data: world",
		"",
		"data: [DONE]",
		"",
	}, "\n") + "\n"

	src := NewSSESource(strings.NewReader(raw))
	ctx := context.Background()

	chunk, err := src.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Hello", chunk)

	chunk, err = src.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "world", chunk)

	_, err = src.Recv(ctx)
	assert.ErrorIs(t, err, io.EOF)

	// Reading past the end keeps returning EOF.
	_, err = src.Recv(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestSSESource_EOFWithoutSentinel(t *testing.T) {
	t.Parallel()

	src := NewSSESource(strings.NewReader("data: tail\n"))
	ctx := context.Background()

	chunk, err := src.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tail", chunk)

	_, err = src.Recv(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestSSESource_FinalLineWithoutNewline(t *testing.T) {
	t.Parallel()

	// The last data line is cut off by EOF before its newline; the
	// payload must still be delivered.
	src := NewSSESource(strings.NewReader("data: first\ndata: last"))
	ctx := context.Background()

	chunk, err := src.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", chunk)

	chunk, err = src.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "last", chunk)

	_, err = src.Recv(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

// failingReader returns an error mid-stream.
type failingReader struct {
	data string
	read bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.read {
		r.read = true
		return copy(p, r.data), nil
	}
	return 0, io.ErrUnexpectedEOF
}

func TestSSESource_TransportError(t *testing.T) {
	t.Parallel()

	src := NewSSESource(&failingReader{data: "data: ok\n"})
	ctx := context.Background()

	chunk, err := src.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", chunk)

	_, err = src.Recv(ctx)
	require.Error(t, err)
	assert.Equal(t, types.ErrTransport, types.GetErrorCode(err))
	assert.True(t, types.IsRetryable(err))
}

func TestSSESource_ContextCancellation(t *testing.T) {
	t.Parallel()

	src := NewSSESource(strings.NewReader("data: x\n"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Recv(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
