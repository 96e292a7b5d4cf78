package toolbox

import (
	"fmt"
	"log/slog"

	"github.com/dot5enko/coltoolbox/store"
)

// DatasetHandle is an opened dataset with its tables discovered. Table names
// are deduplicated, the first occurrence wins.
type DatasetHandle struct {
	path   string
	ds     store.Dataset
	tables []*TableHandle

	logger *slog.Logger
}

// OpenHandle opens the dataset at path and discovers its tables and columns
// without resolving element types. A store that fails to open yields no
// handle and an error matching ErrOpen.
func OpenHandle(path string, opener store.Opener, opts ...Option) (*DatasetHandle, error) {

	o := buildOptions(opts)

	ds, tables, err := discover(path, opener, o)
	if err != nil {
		return nil, err
	}

	handle := &DatasetHandle{
		path:   path,
		ds:     ds,
		logger: o.logger,
	}

	for _, table := range tables {
		handle.tables = append(handle.tables, newTableHandle(table, o.logger))
	}

	return handle, nil
}

func discover(path string, opener store.Opener, o options) (store.Dataset, []store.Table, error) {

	ds, openErr := opener(path)
	if openErr != nil {
		o.logger.Error("could not open dataset", "path", path, "err", openErr)
		return nil, nil, fmt.Errorf("%w `%s`: %w", ErrOpen, path, openErr)
	}

	names, listErr := ds.Tables()
	if listErr != nil {
		ds.Close()
		return nil, nil, fmt.Errorf("%w `%s`: unable to list tables: %w", ErrOpen, path, listErr)
	}

	names = uniqueNames(names)

	if len(o.tables) > 0 {
		names = selectNames(o.logger, names, uniqueNames(o.tables))
	}

	tables := make([]store.Table, 0, len(names))

	for _, name := range names {
		table, tableErr := ds.Table(name)
		if tableErr != nil {
			o.logger.Warn("unable to open table, skipping", "path", path, "table", name, "err", tableErr)
			continue
		}
		tables = append(tables, table)
	}

	o.logger.Info("opened dataset", "path", path, "tables", len(tables))

	return ds, tables, nil
}

// uniqueNames drops repeated names keeping the first occurrence and order.
func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	result := make([]string, 0, len(names))

	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		result = append(result, name)
	}

	return result
}

func selectNames(logger *slog.Logger, available, requested []string) []string {
	known := make(map[string]struct{}, len(available))
	for _, name := range available {
		known[name] = struct{}{}
	}

	result := make([]string, 0, len(requested))
	for _, name := range requested {
		if _, ok := known[name]; !ok {
			logger.Warn("requested table does not exist, skipping", "table", name)
			continue
		}
		result = append(result, name)
	}

	return result
}

func (d *DatasetHandle) Path() string {
	return d.path
}

func (d *DatasetHandle) NumTables() int {
	return len(d.tables)
}

// Tables returns a copy of the table handles.
func (d *DatasetHandle) Tables() []*TableHandle {
	return append([]*TableHandle(nil), d.tables...)
}

// Table looks a table up by name. A miss returns an empty table and
// ErrNotFound.
func (d *DatasetHandle) Table(name string) (*TableHandle, error) {
	pos := positionByName(d.tables, name, (*TableHandle).Name)
	if pos != -1 {
		return d.tables[pos], nil
	}

	d.logger.Warn("found no table with name, returning empty table", "path", d.path, "table", name)
	return emptyTableHandle(d.logger), fmt.Errorf("%w: table `%s` in `%s`", ErrNotFound, name, d.path)
}

// TableAt returns the table at discovery index. Out of range returns an
// empty table and ErrIndexOutOfRange.
func (d *DatasetHandle) TableAt(index int) (*TableHandle, error) {
	if index >= 0 && index < len(d.tables) {
		return d.tables[index], nil
	}

	d.logger.Warn("table index is out of range, returning empty table", "path", d.path, "index", index, "tables", len(d.tables))
	return emptyTableHandle(d.logger), fmt.Errorf("%w: table %d of %d in `%s`", ErrIndexOutOfRange, index, len(d.tables), d.path)
}

func (d *DatasetHandle) Close() error {
	if d.ds == nil {
		return nil
	}
	return d.ds.Close()
}
