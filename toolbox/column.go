package toolbox

import "github.com/dot5enko/coltoolbox/store"

// ColumnHandle names one column of one table. The zero value is the absent
// handle returned by failed lookups.
type ColumnHandle struct {
	name  string
	table store.Table
	bound bool
}

func NewColumnHandle(name string, table store.Table) ColumnHandle {
	handle := ColumnHandle{
		name:  name,
		table: table,
	}

	if table != nil {
		handle.bound = table.HasColumn(name)
	}

	return handle
}

func (c ColumnHandle) Name() string {
	return c.name
}

// IsBound reports whether the store has the column.
func (c ColumnHandle) IsBound() bool {
	return c.bound
}

func (c ColumnHandle) TableName() string {
	if c.table == nil {
		return ""
	}
	return c.table.Name()
}
