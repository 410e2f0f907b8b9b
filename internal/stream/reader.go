// Package stream turns a newline-delimited JSON subscription body into
// individual messages.
package stream

import (
	"bufio"
	"bytes"
	"errors"
	"io"

	"github.com/coregx/ntfy/model"
)

// DefaultMaxLineSize bounds a single record. Longer lines are reported as
// malformed and skipped.
const DefaultMaxLineSize = 1 << 20

// ErrLineTooLong is wrapped by the ParseError returned for oversized records.
var ErrLineTooLong = errors.New("record exceeds maximum line size")

// Reader reads one message per line from an underlying stream.
//
// Next returns:
//   - a Message for every complete, known record;
//   - a *model.ParseError for a malformed or unknown record (the reader stays usable);
//   - io.EOF when the stream ends on a record boundary;
//   - io.ErrUnexpectedEOF when the stream ends inside a record, which is discarded;
//   - any other read error from the underlying stream.
//
// Blank and whitespace-only lines are skipped. The result does not depend on
// how the underlying stream chunks its reads.
type Reader struct {
	br      *bufio.Reader
	maxLine int
}

// Option configures a Reader.
type Option func(*Reader)

// WithMaxLineSize overrides DefaultMaxLineSize.
func WithMaxLineSize(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.maxLine = n
		}
	}
}

// NewReader wraps r.
func NewReader(r io.Reader, opts ...Option) *Reader {
	sr := &Reader{br: bufio.NewReader(r), maxLine: DefaultMaxLineSize}
	for _, opt := range opts {
		opt(sr)
	}
	return sr
}

// Next returns the next record. See Reader for the possible results.
func (r *Reader) Next() (model.Message, error) {
	for {
		line, err := r.readLine()
		if err != nil {
			return model.Message{}, err
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		return model.ParseMessage(line)
	}
}

// readLine returns one newline-terminated line, newline included.
func (r *Reader) readLine() ([]byte, error) {
	var (
		buf       []byte
		truncated bool
	)
	for {
		chunk, err := r.br.ReadSlice('\n')
		if !truncated {
			if len(buf)+len(chunk) > r.maxLine {
				truncated = true
				buf = buf[:min(len(buf), 64)]
			} else {
				buf = append(buf, chunk...)
			}
		}

		switch {
		case err == nil:
			if truncated {
				return nil, model.NewMalformedError(buf, ErrLineTooLong)
			}
			return buf, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if truncated || len(bytes.TrimSpace(buf)) > 0 {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, io.EOF
		default:
			return nil, err
		}
	}
}
