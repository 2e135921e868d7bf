// Package trace reads and writes branch traces in the text format used by
// the predictor simulator: one branch per line, "<pc> <outcome>", with the
// pc in hexadecimal (an optional 0x prefix is allowed) and the outcome 0 for
// not taken or 1 for taken.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Branch is one resolved conditional branch.
type Branch struct {
	PC    uint32
	Taken bool
}

// ParseError reports a malformed trace line.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("trace line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var (
	errFieldCount = errors.New("expected \"<pc> <outcome>\"")
	errOutcome    = errors.New("outcome must be 0 or 1")
)

// Reader decodes branches from a text trace.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Next returns the next branch. It returns io.EOF after the last one and a
// *ParseError for malformed lines. Blank lines and lines starting with '#'
// are skipped.
func (r *Reader) Next() (Branch, error) {
	for r.scanner.Scan() {
		r.line++

		text := strings.TrimSpace(r.scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		b, err := parseLine(text)
		if err != nil {
			return Branch{}, &ParseError{Line: r.line, Text: text, Err: err}
		}

		return b, nil
	}

	if err := r.scanner.Err(); err != nil {
		return Branch{}, fmt.Errorf("failed to read trace: %w", err)
	}

	return Branch{}, io.EOF
}

// Line returns the number of lines consumed so far.
func (r *Reader) Line() int {
	return r.line
}

func parseLine(text string) (Branch, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return Branch{}, errFieldCount
	}

	hex := strings.TrimPrefix(strings.TrimPrefix(fields[0], "0x"), "0X")
	pc, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Branch{}, err
	}

	var taken bool
	switch fields[1] {
	case "0":
		taken = false
	case "1":
		taken = true
	default:
		return Branch{}, errOutcome
	}

	return Branch{PC: uint32(pc), Taken: taken}, nil
}

// ReadAll decodes every branch from r.
func ReadAll(r io.Reader) ([]Branch, error) {
	reader := NewReader(r)
	branches := []Branch{}

	for {
		b, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return branches, nil
		}
		if err != nil {
			return nil, err
		}

		branches = append(branches, b)
	}
}

// Writer encodes branches in the trace text format.
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a Writer over w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write appends one branch.
func (w *Writer) Write(b Branch) error {
	outcome := 0
	if b.Taken {
		outcome = 1
	}

	_, err := fmt.Fprintf(w.w, "0x%08x %d\n", b.PC, outcome)
	return err
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
