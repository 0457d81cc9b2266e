package transport

import (
	"context"
	"io"
)

// Source supplies the asynchronous chunk sequence of one logical request.
// Recv blocks until the next chunk is available, the context is
// cancelled, or the stream ends. A terminated sequence is signalled with
// io.EOF; any other error is a transport failure.
//
// The core only consumes a Source; it never constructs the underlying
// network request.
type Source interface {
	Recv(ctx context.Context) (string, error)
}

// ChannelSource adapts a Go channel into a Source. Closing the channel
// ends the stream. Useful for tests, fakes, and in-process producers.
type ChannelSource struct {
	ch <-chan string
}

// NewChannelSource wraps ch as a Source.
func NewChannelSource(ch <-chan string) *ChannelSource {
	return &ChannelSource{ch: ch}
}

// Recv returns the next chunk from the channel, io.EOF once it is
// closed, or the context error.
func (s *ChannelSource) Recv(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case chunk, ok := <-s.ch:
		if !ok {
			return "", io.EOF
		}
		return chunk, nil
	}
}
