package toolbox

import (
	"fmt"
	"io"
)

func (d *DatasetHandle) Describe(w io.Writer) {
	fmt.Fprintf(w, "contents of dataset %s: %d tables\n", d.path, len(d.tables))
	for _, table := range d.tables {
		table.Describe(w)
	}
}

func (t *TableHandle) Describe(w io.Writer) {
	fmt.Fprintf(w, "  table %s: %d rows, %d columns\n", t.name, t.rowCount, len(t.columns))
	for _, col := range t.columns {
		fmt.Fprintf(w, "    column %s\n", col.Name())
	}
}

func (d *DatasetData) Describe(w io.Writer) {
	fmt.Fprintf(w, "contents of dataset %s: %d tables\n", d.path, len(d.data))
	for _, table := range d.data {
		table.Describe(w)
	}
}

func (t *TableData) Describe(w io.Writer) {
	fmt.Fprintf(w, "  table %s: %d rows, %d typed columns\n", t.name, t.rowCount, len(t.typed))
	for _, col := range t.typed {
		fmt.Fprintf(w, "    column %s (%s): %d values from %d rows\n", col.Name(), col.Type(), col.Len(), len(col.Spans()))
	}
	for _, name := range t.unresolved {
		fmt.Fprintf(w, "    column %s (unresolved, not fetched)\n", name)
	}
}
