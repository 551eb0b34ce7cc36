package terminal

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Reader reads chat input line by line. A line ending in a backslash
// continues the message on the next line, so Enter submits and "\" + Enter
// inserts a newline.
type Reader struct {
	in *bufio.Reader
	// OnContinue is called before reading a continuation line, typically to
	// print a secondary prompt.
	OnContinue func()
}

// NewReader creates a Reader on r
func NewReader(r io.Reader) *Reader {
	return &Reader{in: bufio.NewReader(r)}
}

// ReadMessage returns the next message without its trailing newline. The
// text is not trimmed; deciding what counts as empty is up to the caller.
// io.EOF is returned only when nothing was read.
func (r *Reader) ReadMessage() (string, error) {
	var lines []string
	for {
		line, err := r.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		if errors.Is(err, io.EOF) && line == "" {
			if len(lines) == 0 {
				return "", io.EOF
			}
			return strings.Join(lines, "\n"), nil
		}

		line = strings.TrimRight(line, "\r\n")
		if strings.HasSuffix(line, `\`) && err == nil {
			lines = append(lines, strings.TrimSuffix(line, `\`))
			if r.OnContinue != nil {
				r.OnContinue()
			}
			continue
		}

		lines = append(lines, line)
		return strings.Join(lines, "\n"), nil
	}
}
