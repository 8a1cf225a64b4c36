package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
)

const maxLineLength = 4096

var errLineTooLong = errors.New("line exceeds maximum length")

// lineBuffer splits a byte stream into CR/LF terminated lines. Modems wrap
// responses in "\r\n" pairs, so empty lines are dropped.
type lineBuffer struct {
	buf []byte
}

func (b *lineBuffer) next() (string, bool) {
	for {
		idx := bytes.IndexAny(b.buf, "\r\n")
		if idx < 0 {
			return "", false
		}
		line := string(b.buf[:idx])
		b.buf = b.buf[idx+1:]
		if strings.TrimSpace(line) == "" {
			continue
		}

		return line, true
	}
}

func (b *lineBuffer) feed(p []byte) error {
	b.buf = append(b.buf, p...)
	if len(b.buf) > maxLineLength && bytes.IndexAny(b.buf, "\r\n") < 0 {
		b.buf = b.buf[:0]

		return errLineTooLong
	}

	return nil
}

func (b *lineBuffer) reset() {
	b.buf = b.buf[:0]
}

// readLine pulls chunks through read until a full line is buffered. read may
// return (0, nil) on a poll timeout; ctx is checked between reads.
func readLine(ctx context.Context, b *lineBuffer, read func([]byte) (int, error)) (string, error) {
	chunk := make([]byte, 256)
	for {
		if line, ok := b.next(); ok {
			return line, nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, err := read(chunk)
		if n > 0 {
			if feedErr := b.feed(chunk[:n]); feedErr != nil {
				return "", feedErr
			}
		}
		if err != nil {
			if line, ok := b.next(); ok {
				return line, nil
			}

			return "", err
		}
	}
}

// encodeLine terminates an AT command with CR as V.250 requires.
func encodeLine(line string) ([]byte, error) {
	if strings.ContainsAny(line, "\r\n") {
		return nil, fmt.Errorf("line contains a line break: %q", line)
	}
	if len(line) > maxLineLength {
		return nil, errLineTooLong
	}

	return []byte(line + "\r"), nil
}
