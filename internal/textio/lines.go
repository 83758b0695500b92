// Package textio streams text files line by line with bounded memory.
package textio

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"
)

// readerSize is the buffer size used for file reads.
const readerSize = 64 * 1024

// ErrStopped is returned by EachLine when the callback asked to stop early.
var ErrStopped = errors.New("line iteration stopped")

// LineFunc receives a zero-based line index and the line without its
// terminator. Returning false stops the iteration.
type LineFunc func(index int, line string) bool

// EachLine calls fn for every line of r. Lines end at '\n'; a trailing '\r'
// is stripped. A final line without terminator is still delivered, an empty
// trailing line after the last '\n' is not.
//
// The context is checked once per line.
func EachLine(ctx context.Context, r io.Reader, fn LineFunc) error {
	br := bufio.NewReaderSize(r, readerSize)
	index := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := br.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimSuffix(line, "\n")
			line = strings.TrimSuffix(line, "\r")
			if !fn(index, line) {
				return ErrStopped
			}
			index++
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// EachFileLine opens path and streams it through EachLine.
func EachFileLine(ctx context.Context, path string, fn LineFunc) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return EachLine(ctx, f, fn)
}
