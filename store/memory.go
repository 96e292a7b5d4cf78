package store

import (
	"fmt"
	"slices"
	"sync"

	"github.com/dot5enko/coltoolbox/schema"
)

// MemoryStore keeps datasets in memory, keyed by path. Rows are held as
// float64 and converted to whatever type a column is bound as.
type MemoryStore struct {
	datasets map[string]*MemoryDataset
	lock     sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		datasets: map[string]*MemoryDataset{},
	}
}

func (s *MemoryStore) Add(ds *MemoryDataset) *MemoryStore {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.datasets[ds.path] = ds
	return s
}

// Open satisfies Opener.
func (s *MemoryStore) Open(path string) (Dataset, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	ds, ok := s.datasets[path]
	if !ok {
		return nil, fmt.Errorf("%w: no in-memory dataset at `%s`", ErrOpen, path)
	}

	ds.closed = false
	return ds, nil
}

type MemoryDataset struct {
	path   string
	tables []*MemoryTable
	closed bool
}

func NewMemoryDataset(path string) *MemoryDataset {
	return &MemoryDataset{path: path}
}

// AddTable appends a table. Adding a name twice keeps both, like a store
// that lists a table once per saved cycle.
func (d *MemoryDataset) AddTable(name string, rows int) *MemoryTable {
	table := &MemoryTable{name: name, rows: rows}
	d.tables = append(d.tables, table)
	return table
}

func (d *MemoryDataset) Path() string {
	return d.path
}

func (d *MemoryDataset) Tables() ([]string, error) {
	if d.closed {
		return nil, ErrClosed
	}

	names := make([]string, 0, len(d.tables))
	for _, table := range d.tables {
		names = append(names, table.name)
	}
	return names, nil
}

func (d *MemoryDataset) Table(name string) (Table, error) {
	if d.closed {
		return nil, ErrClosed
	}

	for _, table := range d.tables {
		if table.name == name {
			return table, nil
		}
	}
	return nil, fmt.Errorf("%w: table `%s`", ErrNotFound, name)
}

func (d *MemoryDataset) Close() error {
	d.closed = true
	return nil
}

type memoryColumn struct {
	name     string
	bindable []schema.ElementType
	rows     [][]float64

	missing map[int]struct{}
	corrupt map[int]struct{}
}

type MemoryTable struct {
	name    string
	rows    int
	columns []*memoryColumn

	fetchCalls int
}

// AddColumn declares a column readable as any of bindable, rows[i] being the
// values of row i. Rows past len(rows) read back as missing.
func (t *MemoryTable) AddColumn(name string, bindable []schema.ElementType, rows [][]float64) *MemoryTable {
	t.columns = append(t.columns, &memoryColumn{
		name:     name,
		bindable: bindable,
		rows:     rows,
		missing:  map[int]struct{}{},
		corrupt:  map[int]struct{}{},
	})
	return t
}

func (t *MemoryTable) MarkMissing(column string, rows ...int) *MemoryTable {
	if col := t.column(column); col != nil {
		for _, row := range rows {
			col.missing[row] = struct{}{}
		}
	}
	return t
}

func (t *MemoryTable) MarkCorrupt(column string, rows ...int) *MemoryTable {
	if col := t.column(column); col != nil {
		for _, row := range rows {
			col.corrupt[row] = struct{}{}
		}
	}
	return t
}

// FetchCalls counts Fetch calls made on all bindings of the table.
func (t *MemoryTable) FetchCalls() int {
	return t.fetchCalls
}

func (t *MemoryTable) column(name string) *memoryColumn {
	for _, col := range t.columns {
		if col.name == name {
			return col
		}
	}
	return nil
}

func (t *MemoryTable) Name() string {
	return t.name
}

func (t *MemoryTable) RowCount() int {
	return t.rows
}

func (t *MemoryTable) Columns() []string {
	names := make([]string, 0, len(t.columns))
	for _, col := range t.columns {
		names = append(names, col.name)
	}
	return names
}

func (t *MemoryTable) HasColumn(name string) bool {
	return t.column(name) != nil
}

func (t *MemoryTable) Bind(column string, typ schema.ElementType) (Binding, error) {
	col := t.column(column)
	if col == nil {
		return nil, fmt.Errorf("%w: column `%s` in table `%s`", ErrNotFound, column, t.name)
	}

	if !slices.Contains(col.bindable, typ) {
		return nil, fmt.Errorf("%w: column `%s` as %s", ErrBind, column, typ)
	}

	switch typ {
	case schema.Float64ElementType:
		return &memoryBinding[float64]{table: t, column: col}, nil
	case schema.Int32ElementType:
		return &memoryBinding[int32]{table: t, column: col}, nil
	case schema.Uint32ElementType:
		return &memoryBinding[uint32]{table: t, column: col}, nil
	case schema.Uint16ElementType:
		return &memoryBinding[uint16]{table: t, column: col}, nil
	default:
		return nil, fmt.Errorf("%w: column `%s` as %s", ErrBind, column, typ)
	}
}

type memoryBinding[T schema.Element] struct {
	table  *MemoryTable
	column *memoryColumn

	scratch []T
}

func (b *memoryBinding[T]) Column() string {
	return b.column.name
}

func (b *memoryBinding[T]) Type() schema.ElementType {
	return schema.TypeOf[T]()
}

func (b *memoryBinding[T]) Fetch(row int) (err error) {
	b.table.fetchCalls++
	b.scratch = b.scratch[:0]

	if _, missing := b.column.missing[row]; missing || row < 0 || row >= len(b.column.rows) {
		return fmt.Errorf("%w: row %d of column `%s`", ErrRowMissing, row, b.column.name)
	}

	if _, corrupt := b.column.corrupt[row]; corrupt {
		return fmt.Errorf("%w: row %d of column `%s`", ErrDecode, row, b.column.name)
	}

	b.scratch, err = AppendConverted(b.scratch, b.column.rows[row])
	if err != nil {
		b.scratch = b.scratch[:0]
		return fmt.Errorf("%w: %s", ErrDecode, err.Error())
	}

	return nil
}

func (b *memoryBinding[T]) Values() any {
	return b.scratch
}
