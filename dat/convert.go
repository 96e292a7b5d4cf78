package dat

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dot5enko/coltoolbox/schema"
	"github.com/dot5enko/coltoolbox/store"
)

const (
	DefaultChunkRows = 100
	DefaultTable     = "events"
	TruthColumn      = "truth"

	progressEvery = 10000
)

type Options struct {
	Table string

	// ChunkRows lines of the file make one row of the table.
	ChunkRows int

	Logger *slog.Logger
}

type Stats struct {
	Lines   int
	Rows    int
	Columns []string
}

func (o Options) withDefaults() Options {
	if o.Table == "" {
		o.Table = DefaultTable
	}
	if o.ChunkRows <= 0 {
		o.ChunkRows = DefaultChunkRows
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// ColumnNames names width value columns plus the truth column. Header names
// are used where the header has enough of them, Z0..Zn otherwise.
func ColumnNames(header []string, width int) []string {

	names := make([]string, 0, width+1)

	if len(header) >= width {
		names = append(names, header[:width]...)
	} else {
		for i := 0; i < width; i++ {
			names = append(names, fmt.Sprintf("Z%d", i))
		}
	}

	if len(header) > width {
		names = append(names, header[width])
	} else {
		names = append(names, TruthColumn)
	}

	return names
}

// Convert reads r and writes it as a single table into w. Every ChunkRows
// lines become one row: value column i holds the i-th value of each line
// as Float64 and the truth column holds the flags as Uint16.
func Convert(r io.Reader, w store.DatasetWriter, opts Options) (stats Stats, err error) {

	opts = opts.withDefaults()

	reader, readerErr := NewReader(r)
	if readerErr != nil {
		return stats, readerErr
	}

	width := reader.Width()
	if width < 0 {
		return stats, fmt.Errorf("%w: no data lines", ErrFormat)
	}

	stats.Columns = ColumnNames(reader.Header(), width)

	specs := make([]store.ColumnSpec, 0, width+1)
	for i, name := range stats.Columns {
		typ := schema.Float64ElementType
		if i == width {
			typ = schema.Uint16ElementType
		}
		specs = append(specs, store.ColumnSpec{Name: name, Type: typ})
	}

	table, tableErr := w.AddTable(opts.Table, specs)
	if tableErr != nil {
		return stats, tableErr
	}

	for {
		lines, readErr := reader.ReadLines(opts.ChunkRows)
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return stats, readErr
		}

		if writeErr := table.WriteRow(chunkRow(lines, width)...); writeErr != nil {
			return stats, writeErr
		}

		before := stats.Lines / progressEvery
		stats.Lines += len(lines)
		stats.Rows++

		if stats.Lines/progressEvery != before {
			opts.Logger.Info("read dat lines", "lines", stats.Lines, "rows", stats.Rows)
		}
	}

	opts.Logger.Info("converted dat file", "table", opts.Table, "lines", stats.Lines, "rows", stats.Rows, "columns", len(stats.Columns))

	return stats, nil
}

func chunkRow(lines []Line, width int) []any {

	columns := make([][]float64, width)
	truth := make([]uint16, 0, len(lines))

	for i := range columns {
		columns[i] = make([]float64, 0, len(lines))
	}

	for _, line := range lines {
		for i, v := range line.Values {
			columns[i] = append(columns[i], v)
		}

		var flag uint16
		if line.Truth {
			flag = 1
		}
		truth = append(truth, flag)
	}

	row := make([]any, 0, width+1)
	for _, col := range columns {
		row = append(row, col)
	}
	row = append(row, truth)

	return row
}
