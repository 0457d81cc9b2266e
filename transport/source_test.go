package transport

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelSource_DeliversThenEOF(t *testing.T) {
	t.Parallel()

	ch := make(chan string, 2)
	ch <- "a"
	ch <- "b"
	close(ch)

	src := NewChannelSource(ch)
	ctx := context.Background()

	chunk, err := src.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", chunk)

	chunk, err = src.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", chunk)

	_, err = src.Recv(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestChannelSource_ContextCancellation(t *testing.T) {
	t.Parallel()

	src := NewChannelSource(make(chan string))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Recv(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
