package arrowstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/dot5enko/coltoolbox/schema"
	"github.com/dot5enko/coltoolbox/store"
)

// Dataset is a directory of Arrow files opened for reading. Each file is a
// table named by its `table` schema metadata, or by the file name when the
// key is absent.
type Dataset struct {
	path   string
	tables []*Table

	lock   sync.RWMutex
	closed bool
}

// Open satisfies store.Opener.
func Open(path string) (store.Dataset, error) {

	info, statErr := os.Stat(path)
	if statErr != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrOpen, statErr)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%w: `%s` is not a directory", store.ErrOpen, path)
	}

	files, globErr := filepath.Glob(filepath.Join(path, "*"+fileExtension))
	if globErr != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrOpen, globErr)
	}

	result := &Dataset{path: path}
	pool := memory.NewGoAllocator()

	for _, file := range files {
		table, readErr := readTable(result, file, pool)
		if readErr != nil {
			result.release()
			return nil, fmt.Errorf("%w: %s: %w", store.ErrOpen, filepath.Base(file), readErr)
		}

		result.tables = append(result.tables, table)
	}

	return result, nil
}

func readTable(ds *Dataset, path string, pool memory.Allocator) (*Table, error) {

	file, openErr := os.Open(path)
	if openErr != nil {
		return nil, openErr
	}
	defer file.Close()

	fr, readerErr := ipc.NewFileReader(file, ipc.WithAllocator(pool))
	if readerErr != nil {
		return nil, fmt.Errorf("failed to create Arrow reader: %w", readerErr)
	}
	defer fr.Close()

	arrowSchema := fr.Schema()

	table := &Table{
		ds:     ds,
		name:   strings.TrimSuffix(filepath.Base(path), fileExtension),
		schema: arrowSchema,
	}

	md := arrowSchema.Metadata()
	if idx := md.FindKey(TableMetadataKey); idx != -1 {
		table.name = md.Values()[idx]
	}

	for i := 0; i < fr.NumRecords(); i++ {
		record, recordErr := fr.Record(i)
		if recordErr != nil {
			table.release()
			return nil, recordErr
		}

		record.Retain()
		table.batches = append(table.batches, record)
		table.rows += int(record.NumRows())
	}

	return table, nil
}

func (d *Dataset) Path() string {
	return d.path
}

func (d *Dataset) isClosed() bool {
	d.lock.RLock()
	defer d.lock.RUnlock()

	return d.closed
}

func (d *Dataset) Tables() ([]string, error) {
	if d.isClosed() {
		return nil, store.ErrClosed
	}

	names := make([]string, 0, len(d.tables))
	for _, table := range d.tables {
		names = append(names, table.name)
	}
	return names, nil
}

func (d *Dataset) Table(name string) (store.Table, error) {
	if d.isClosed() {
		return nil, store.ErrClosed
	}

	for _, table := range d.tables {
		if table.name == name {
			return table, nil
		}
	}

	return nil, fmt.Errorf("%w: table `%s` in `%s`", store.ErrNotFound, name, d.path)
}

func (d *Dataset) Close() error {
	d.lock.Lock()
	defer d.lock.Unlock()

	if !d.closed {
		d.closed = true
		d.release()
	}

	return nil
}

func (d *Dataset) release() {
	for _, table := range d.tables {
		table.release()
	}
}

type Table struct {
	ds     *Dataset
	name   string
	schema *arrow.Schema
	rows   int

	batches []arrow.Record
}

func (t *Table) release() {
	for _, batch := range t.batches {
		batch.Release()
	}
	t.batches = nil
}

func (t *Table) Name() string {
	return t.name
}

func (t *Table) RowCount() int {
	return t.rows
}

func (t *Table) Columns() []string {
	names := make([]string, 0, len(t.schema.Fields()))
	for _, field := range t.schema.Fields() {
		names = append(names, field.Name)
	}
	return names
}

func (t *Table) HasColumn(name string) bool {
	return len(t.schema.FieldIndices(name)) > 0
}

// Bind succeeds only for the exact element type of the column, plain or
// list.
func (t *Table) Bind(column string, typ schema.ElementType) (store.Binding, error) {

	indices := t.schema.FieldIndices(column)
	if len(indices) == 0 {
		return nil, fmt.Errorf("%w: column `%s` in table `%s`", store.ErrNotFound, column, t.name)
	}

	field := t.schema.Field(indices[0])

	stored, isList, ok := elementType(field.Type)
	if !ok || stored != typ {
		return nil, fmt.Errorf("%w: column `%s` is %s, not %s", store.ErrBind, column, field.Type, typ)
	}

	switch typ {
	case schema.Float64ElementType:
		return &binding[float64]{table: t, column: column, index: indices[0], isList: isList}, nil
	case schema.Int32ElementType:
		return &binding[int32]{table: t, column: column, index: indices[0], isList: isList}, nil
	case schema.Uint32ElementType:
		return &binding[uint32]{table: t, column: column, index: indices[0], isList: isList}, nil
	case schema.Uint16ElementType:
		return &binding[uint16]{table: t, column: column, index: indices[0], isList: isList}, nil
	default:
		return nil, fmt.Errorf("%w: column `%s` as %s", store.ErrBind, column, typ)
	}
}

// locate finds the batch holding row and the row's index inside it.
func (t *Table) locate(row int) (arrow.Record, int, bool) {
	if row < 0 {
		return nil, 0, false
	}

	for _, batch := range t.batches {
		if row < int(batch.NumRows()) {
			return batch, row, true
		}
		row -= int(batch.NumRows())
	}

	return nil, 0, false
}

type binding[T schema.Element] struct {
	table  *Table
	column string
	index  int
	isList bool

	scratch []T
}

func (b *binding[T]) Column() string {
	return b.column
}

func (b *binding[T]) Type() schema.ElementType {
	return schema.TypeOf[T]()
}

func (b *binding[T]) Fetch(row int) error {

	b.scratch = b.scratch[:0]

	if b.table.ds.isClosed() {
		return store.ErrClosed
	}

	batch, local, found := b.table.locate(row)
	if !found {
		return fmt.Errorf("%w: row %d of table `%s`", store.ErrRowMissing, row, b.table.name)
	}

	col := batch.Column(b.index)

	if !b.isList {
		if col.IsNull(local) {
			return nil
		}

		values, ok := primitiveValues[T](col)
		if !ok || local >= len(values) {
			return fmt.Errorf("%w: column `%s` holds %s", store.ErrDecode, b.column, col.DataType())
		}

		b.scratch = append(b.scratch, values[local])
		return nil
	}

	list, ok := col.(*array.List)
	if !ok {
		return fmt.Errorf("%w: column `%s` holds %s, expected a list", store.ErrDecode, b.column, col.DataType())
	}

	if list.IsNull(local) {
		return fmt.Errorf("%w: row %d of column `%s` is null", store.ErrRowMissing, row, b.column)
	}

	values, ok := primitiveValues[T](list.ListValues())
	if !ok {
		return fmt.Errorf("%w: list values of `%s` hold %s", store.ErrDecode, b.column, list.ListValues().DataType())
	}

	start, end := list.ValueOffsets(local)
	if start < 0 || start > end || int(end) > len(values) {
		return fmt.Errorf("%w: row %d of column `%s` has offsets [%d, %d)", store.ErrDecode, row, b.column, start, end)
	}

	elements := list.ListValues()
	for i := start; i < end; i++ {
		if elements.IsNull(int(i)) {
			return fmt.Errorf("%w: row %d of column `%s` has a null element at %d", store.ErrDecode, row, b.column, i-start)
		}
	}

	b.scratch = append(b.scratch, values[start:end]...)
	return nil
}

func (b *binding[T]) Values() any {
	return b.scratch
}
