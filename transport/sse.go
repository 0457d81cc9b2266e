package transport

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/guitaripod/streamkit/types"
)

// sseDoneSentinel terminates an SSE stream.
const sseDoneSentinel = "[DONE]"

// SSESource reads server-sent-events framing from an io.Reader and
// yields each data payload as one chunk. Blank lines and "event:" lines
// are skipped; the "[DONE]" sentinel ends the stream.
//
// The payload is returned verbatim: decoding provider-specific JSON is
// the caller's business.
type SSESource struct {
	reader *bufio.Reader
	closer io.Closer
	done   bool
}

// NewSSESource wraps r. If r is also an io.Closer it is closed when the
// stream terminates.
func NewSSESource(r io.Reader) *SSESource {
	s := &SSESource{reader: bufio.NewReader(r)}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// Recv returns the next data payload, io.EOF at stream end, or a
// transport error.
func (s *SSESource) Recv(ctx context.Context) (string, error) {
	if s.done {
		return "", io.EOF
	}

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		line, err := s.reader.ReadString('\n')
		if err != nil {
			s.finish()
			if err == io.EOF {
				// A final data line may lack a trailing newline;
				// ReadString still returns it alongside EOF. Deliver it
				// before reporting stream end.
				if data, ok := parseDataLine(line); ok && data != sseDoneSentinel {
					return data, nil
				}
				return "", io.EOF
			}
			return "", types.NewError(types.ErrTransport, "sse read").
				WithCause(err).
				WithRetryable(true)
		}

		data, ok := parseDataLine(line)
		if !ok {
			continue
		}
		if data == sseDoneSentinel {
			s.finish()
			return "", io.EOF
		}
		return data, nil
	}
}

// parseDataLine extracts the payload of one "data:" line. Blank lines,
// comments and "event:" lines report ok false.
func parseDataLine(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "data:") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(line, "data:")), true
}

func (s *SSESource) finish() {
	s.done = true
	if s.closer != nil {
		_ = s.closer.Close()
	}
}
