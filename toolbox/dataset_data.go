package toolbox

import (
	"fmt"

	"github.com/dot5enko/coltoolbox/store"
	"go.uber.org/multierr"
)

// DatasetData is a dataset whose tables carry typed column accumulators.
// Columns start empty and grow through the Fetch methods.
type DatasetData struct {
	*DatasetHandle

	data []*TableData
	opts options
}

// Open opens the dataset at path, discovers every table and column and
// resolves the element type of each column.
func Open(path string, opener store.Opener, opts ...Option) (*DatasetData, error) {

	o := buildOptions(opts)

	ds, tables, err := discover(path, opener, o)
	if err != nil {
		return nil, err
	}

	result := &DatasetData{
		DatasetHandle: &DatasetHandle{
			path:   path,
			ds:     ds,
			logger: o.logger,
		},
		opts: o,
	}

	for _, table := range tables {
		tableData := newTableData(table, o)

		result.data = append(result.data, tableData)
		result.tables = append(result.tables, tableData.TableHandle)
	}

	return result, nil
}

// TablesData returns a copy of the typed tables.
func (d *DatasetData) TablesData() []*TableData {
	return append([]*TableData(nil), d.data...)
}

// TableData looks a typed table up by name. A miss returns an empty table,
// safe to fetch from, and ErrNotFound.
func (d *DatasetData) TableData(name string) (*TableData, error) {
	pos := positionByName(d.data, name, func(t *TableData) string { return t.Name() })
	if pos != -1 {
		return d.data[pos], nil
	}

	d.logger.Warn("found no table with name, returning empty table", "path", d.path, "table", name)
	return emptyTableData(d.opts), fmt.Errorf("%w: table `%s` in `%s`", ErrNotFound, name, d.path)
}

func (d *DatasetData) TableDataAt(index int) (*TableData, error) {
	if index >= 0 && index < len(d.data) {
		return d.data[index], nil
	}

	d.logger.Warn("table index is out of range, returning empty table", "path", d.path, "index", index, "tables", len(d.data))
	return emptyTableData(d.opts), fmt.Errorf("%w: table %d of %d in `%s`", ErrIndexOutOfRange, index, len(d.data), d.path)
}

// FetchEvent fetches a single row into a single table. The batch forms go
// through here.
func (d *DatasetData) FetchEvent(row int, table *TableData) error {
	if table == nil {
		return fmt.Errorf("%w: nil table", ErrNotFound)
	}
	return table.FetchEvent(row)
}

// FetchRange fetches rows [start, end) into every table. Rows past a table's
// row count fail with ErrIndexOutOfRange for that table only.
func (d *DatasetData) FetchRange(start, end int) (topErr error) {

	for _, table := range d.data {

		d.logger.Info("fetching rows", "table", table.Name(), "from", start, "to", end)

		if stop := d.fetchRows(table, start, end, &topErr); stop {
			return topErr
		}
	}

	return topErr
}

// FetchFrom fetches every table from start up to its own row count.
func (d *DatasetData) FetchFrom(start int) (topErr error) {

	for _, table := range d.data {

		d.logger.Info("fetching rows", "table", table.Name(), "from", start, "to", table.RowCount())

		if stop := d.fetchRows(table, start, table.RowCount(), &topErr); stop {
			return topErr
		}
	}

	return topErr
}

// FetchAll fetches every row of every table.
func (d *DatasetData) FetchAll() error {
	return d.FetchFrom(0)
}

// fetchRows collects failures into topErr and reports whether the batch
// has to stop.
func (d *DatasetData) fetchRows(table *TableData, start, end int, topErr *error) bool {

	for row := start; row < end; row++ {
		fetchErr := d.FetchEvent(row, table)
		if fetchErr == nil {
			continue
		}

		if d.opts.stopOnError {
			*topErr = fetchErr
			return true
		}
		*topErr = multierr.Append(*topErr, fetchErr)
	}

	return false
}
