// Package tabular reads delimited numeric text: one row per line, fields
// separated by tabs, commas or spaces, no header. This is the layout of
// LightGBM training and prediction files.
package tabular

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/golgbm/pkg/errors"
)

// DefaultChunkSize is used when a ChunkedProcessor is given no size.
const DefaultChunkSize = 10000

// maxLineBytes bounds a single line; wide files need more than bufio's default.
const maxLineBytes = 16 * 1024 * 1024

func splitFields(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == '\t' || r == ',' || r == ' ' || r == '\r'
	})
}

// Scanner reads rows one at a time. Blank lines are skipped and every row
// must have the width of the first one.
type Scanner struct {
	sc         *bufio.Scanner
	name       string
	labelFirst bool

	lineNo int
	width  int
	row    []float64
	label  float64
	err    error
}

// NewScanner reads from r. name prefixes error messages. With labelFirst the
// first field of each line is returned by Label instead of Row.
func NewScanner(r io.Reader, name string, labelFirst bool) *Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Scanner{sc: sc, name: name, labelFirst: labelFirst, width: -1}
}

// Scan advances to the next row. It returns false at the end of input or on
// the first error, which Err then reports.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	for s.sc.Scan() {
		s.lineNo++
		fields := splitFields(s.sc.Text())
		if len(fields) == 0 {
			continue
		}
		values := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				s.err = errors.Newf("%s:%d: %q is not a number", s.name, s.lineNo, f)
				return false
			}
			values[i] = v
		}
		if s.labelFirst {
			if len(values) < 2 {
				s.err = errors.Newf("%s:%d: expected a label and at least one feature", s.name, s.lineNo)
				return false
			}
			s.label = values[0]
			values = values[1:]
		}
		if s.width >= 0 && len(values) != s.width {
			s.err = errors.Newf("%s:%d: expected %d features, got %d", s.name, s.lineNo, s.width, len(values))
			return false
		}
		s.width = len(values)
		s.row = values
		return true
	}
	if err := s.sc.Err(); err != nil {
		s.err = errors.Wrapf(err, "read %s", s.name)
	}
	return false
}

// Row returns the features of the current row. The slice is not reused.
func (s *Scanner) Row() []float64 { return s.row }

// Label returns the label of the current row when reading labelFirst.
func (s *Scanner) Label() float64 { return s.label }

// Line returns the line number of the current row.
func (s *Scanner) Line() int { return s.lineNo }

// Err returns the first error met by Scan.
func (s *Scanner) Err() error { return s.err }

// ChunkedProcessor hands rows to a callback in chunks of bounded size, so
// large files can be scored without holding every row in memory.
type ChunkedProcessor struct {
	chunkSize  int
	labelFirst bool
}

// NewChunkedProcessor creates a processor. chunkSize <= 0 means
// DefaultChunkSize.
func NewChunkedProcessor(chunkSize int, labelFirst bool) *ChunkedProcessor {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &ChunkedProcessor{chunkSize: chunkSize, labelFirst: labelFirst}
}

// Process reads r and calls fn once per chunk, in input order. labels is nil
// unless the processor reads labelFirst. fn may keep the slices it is given.
// Process returns the number of rows read; input without any row is an
// error.
func (c *ChunkedProcessor) Process(r io.Reader, name string, fn func(rows [][]float64, labels []float64) error) (int, error) {
	scanner := NewScanner(r, name, c.labelFirst)
	total := 0

	var rows [][]float64
	var labels []float64
	flush := func() error {
		if len(rows) == 0 {
			return nil
		}
		err := fn(rows, labels)
		rows, labels = nil, nil
		return err
	}

	for scanner.Scan() {
		rows = append(rows, scanner.Row())
		if c.labelFirst {
			labels = append(labels, scanner.Label())
		}
		total++
		if len(rows) >= c.chunkSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return total, err
	}
	if err := flush(); err != nil {
		return total, err
	}
	if total == 0 {
		return 0, errors.Newf("%s: no data rows", name)
	}
	return total, nil
}

// ReadAll reads every row of r.
func ReadAll(r io.Reader, name string, labelFirst bool) (rows [][]float64, labels []float64, err error) {
	p := &ChunkedProcessor{chunkSize: int(^uint(0) >> 1), labelFirst: labelFirst}
	_, err = p.Process(r, name, func(chunk [][]float64, chunkLabels []float64) error {
		rows, labels = chunk, chunkLabels
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return rows, labels, nil
}
