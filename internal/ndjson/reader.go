// Package ndjson reads newline-delimited JSON streams.
package ndjson

import (
	"bufio"
	"bytes"
	"io"
)

// Reader returns one JSON document per call from an NDJSON stream.
// Lines of any length are supported; blank lines are skipped.
type Reader struct {
	r *bufio.Reader
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReaderSize(r, 64*1024)}
}

// ReadLine returns the next non-blank line without its line terminator.
// The returned slice is owned by the caller. A final line without a
// trailing newline is returned before io.EOF.
func (r *Reader) ReadLine() ([]byte, error) {
	for {
		line, err := r.r.ReadBytes('\n')
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			return line, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
