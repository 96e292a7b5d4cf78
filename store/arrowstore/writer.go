package arrowstore

import (
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/dot5enko/coltoolbox/store"
	"go.uber.org/multierr"
)

// Writer collects rows per table and writes one Arrow file per table on
// Close. Every column is stored as list<T>, a written row being one list.
type Writer struct {
	path   string
	pool   memory.Allocator
	tables []*TableWriter
	closed bool
}

func Create(path string) (*Writer, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("unable to create dataset directory `%s`: %w", path, err)
	}

	return &Writer{
		path: path,
		pool: memory.NewGoAllocator(),
	}, nil
}

func (w *Writer) AddTable(name string, columns []store.ColumnSpec) (store.TableWriter, error) {

	if w.closed {
		return nil, store.ErrClosed
	}

	fields := make([]arrow.Field, 0, len(columns))
	seen := map[string]struct{}{}

	for _, spec := range columns {

		if _, dup := seen[spec.Name]; dup || spec.Name == "" {
			return nil, fmt.Errorf("column name `%s` is empty or repeated in table `%s`", spec.Name, name)
		}
		seen[spec.Name] = struct{}{}

		elem, typeErr := arrowType(spec.Type)
		if typeErr != nil {
			return nil, fmt.Errorf("column `%s` of table `%s`: %w", spec.Name, name, typeErr)
		}

		fields = append(fields, arrow.Field{Name: spec.Name, Type: arrow.ListOf(elem), Nullable: true})
	}

	md := arrow.NewMetadata([]string{TableMetadataKey}, []string{name})
	arrowSchema := arrow.NewSchema(fields, &md)

	table := &TableWriter{
		name:    name,
		schema:  arrowSchema,
		builder: array.NewRecordBuilder(w.pool, arrowSchema),
	}

	w.tables = append(w.tables, table)

	return table, nil
}

func (w *Writer) Close() (topErr error) {

	if w.closed {
		return nil
	}
	w.closed = true

	for idx, table := range w.tables {
		writeErr := table.writeFile(tableFileName(w.path, idx, table.name), w.pool)
		if writeErr != nil {
			topErr = multierr.Append(topErr, fmt.Errorf("unable to write table `%s`: %w", table.name, writeErr))
		}
	}

	return topErr
}

type TableWriter struct {
	name    string
	schema  *arrow.Schema
	builder *array.RecordBuilder
}

func (t *TableWriter) WriteRow(values ...any) error {

	if len(values) != len(t.schema.Fields()) {
		return fmt.Errorf("table `%s` has %d columns, got %d values", t.name, len(t.schema.Fields()), len(values))
	}

	for i, field := range t.schema.Fields() {
		typ, _, _ := elementType(field.Type)
		if _, ok := store.SliceLen(values[i], typ); !ok {
			return fmt.Errorf("column `%s` is %s, got %T", field.Name, typ, values[i])
		}
	}

	for i := range values {
		list := t.builder.Field(i).(*array.ListBuilder)
		list.Append(true)

		switch typed := values[i].(type) {
		case []float64:
			list.ValueBuilder().(*array.Float64Builder).AppendValues(typed, nil)
		case []int32:
			list.ValueBuilder().(*array.Int32Builder).AppendValues(typed, nil)
		case []uint32:
			list.ValueBuilder().(*array.Uint32Builder).AppendValues(typed, nil)
		case []uint16:
			list.ValueBuilder().(*array.Uint16Builder).AppendValues(typed, nil)
		}
	}

	return nil
}

// WriteMissing appends a null list to every column.
func (t *TableWriter) WriteMissing() error {
	for i := range t.schema.Fields() {
		t.builder.Field(i).AppendNull()
	}
	return nil
}

func (t *TableWriter) writeFile(path string, pool memory.Allocator) error {

	record := t.builder.NewRecord()
	defer record.Release()
	defer t.builder.Release()

	file, createErr := os.Create(path)
	if createErr != nil {
		return createErr
	}
	defer file.Close()

	fw, writerErr := ipc.NewFileWriter(file, ipc.WithSchema(t.schema), ipc.WithAllocator(pool))
	if writerErr != nil {
		return fmt.Errorf("failed to create Arrow writer: %w", writerErr)
	}

	if writeErr := fw.Write(record); writeErr != nil {
		return fmt.Errorf("failed to write record batch: %w", writeErr)
	}

	return fw.Close()
}
