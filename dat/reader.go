// Package dat reads whitespace separated sample files: one sample per line,
// the last value of a line being its truth flag. Lines starting with # are
// comments and an optional first line of names labels the columns.
package dat

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var ErrFormat = errors.New("malformed dat line")

type Line struct {
	Values []float64
	Truth  bool
}

// ParseLine splits raw into its values and the trailing truth flag.
func ParseLine(raw string) (Line, error) {

	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return Line{}, fmt.Errorf("%w: empty line", ErrFormat)
	}

	values := make([]float64, 0, len(fields))

	for _, field := range fields {
		v, parseErr := strconv.ParseFloat(field, 64)
		if parseErr != nil {
			return Line{}, fmt.Errorf("%w: %s", ErrFormat, parseErr.Error())
		}
		values = append(values, v)
	}

	last := len(values) - 1

	return Line{
		Values: values[:last],
		Truth:  values[last] != 0,
	}, nil
}

type Reader struct {
	scanner *bufio.Scanner
	lineNo  int

	header  []string
	pending *Line
	width   int
}

// NewReader reads up to the first data line so Header and Width are known
// before any lines are consumed.
func NewReader(r io.Reader) (*Reader, error) {

	result := &Reader{
		scanner: bufio.NewScanner(r),
		width:   -1,
	}
	result.scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	for {
		raw, ok := result.nextRaw()
		if !ok {
			return result, result.scanner.Err()
		}

		line, parseErr := ParseLine(raw)
		if parseErr == nil {
			result.pending = &line
			result.width = len(line.Values)
			return result, nil
		}

		if result.header != nil {
			return nil, fmt.Errorf("line %d: %w", result.lineNo, parseErr)
		}
		result.header = strings.Fields(raw)
	}
}

// nextRaw returns the next line that is neither empty nor a comment.
func (r *Reader) nextRaw() (string, bool) {
	for r.scanner.Scan() {
		r.lineNo++

		raw := strings.TrimSpace(r.scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		return raw, true
	}
	return "", false
}

// Header returns the column names line, nil if the file has none.
func (r *Reader) Header() []string {
	return r.header
}

// Width is the number of values per line without the truth flag, -1 for a
// file without data lines.
func (r *Reader) Width() int {
	return r.width
}

// ReadLines returns up to n lines. io.EOF is returned once no lines are
// left.
func (r *Reader) ReadLines(n int) ([]Line, error) {

	lines := make([]Line, 0, n)

	if r.pending != nil && n > 0 {
		lines = append(lines, *r.pending)
		r.pending = nil
	}

	for len(lines) < n {
		raw, ok := r.nextRaw()
		if !ok {
			break
		}

		line, parseErr := ParseLine(raw)
		if parseErr != nil {
			return lines, fmt.Errorf("line %d: %w", r.lineNo, parseErr)
		}

		if len(line.Values) != r.width {
			return lines, fmt.Errorf("line %d: %w: %d values, expected %d", r.lineNo, ErrFormat, len(line.Values), r.width)
		}

		lines = append(lines, line)
	}

	if scanErr := r.scanner.Err(); scanErr != nil {
		return lines, scanErr
	}

	if len(lines) == 0 {
		return nil, io.EOF
	}

	return lines, nil
}
