package schema

import (
	"fmt"

	"github.com/google/uuid"
)

const CurrentDatasetMetaVersion = 1

// DatasetMeta describes a slab dataset directory, stored as dataset.json.
// Tables are kept in write order and names are not required to be unique.
type DatasetMeta struct {
	Version uint16      `json:"version"`
	Name    string      `json:"name"`
	Uid     uuid.UUID   `json:"uuid"`
	Tables  []TableMeta `json:"tables"`
}

type TableMeta struct {
	Name    string       `json:"name"`
	Uid     uuid.UUID    `json:"uuid"`
	Rows    int          `json:"rows"`
	Columns []ColumnMeta `json:"columns"`
}

type ColumnMeta struct {
	Name  string      `json:"name"`
	Uid   uuid.UUID   `json:"uuid"`
	Type  ElementType `json:"type"`
	Codec string      `json:"codec"`
}

func (m *DatasetMeta) Validate() error {
	if m.Version != CurrentDatasetMetaVersion {
		return fmt.Errorf("unsupported dataset meta version %d", m.Version)
	}

	for _, table := range m.Tables {
		if table.Rows < 0 {
			return fmt.Errorf("table `%s` has negative row count %d", table.Name, table.Rows)
		}

		seen := make(map[string]struct{}, len(table.Columns))
		for _, col := range table.Columns {
			if _, dup := seen[col.Name]; dup {
				return fmt.Errorf("column `%s` declared twice in table `%s`", col.Name, table.Name)
			}
			seen[col.Name] = struct{}{}
		}
	}

	return nil
}

func (t *TableMeta) Column(name string) (ColumnMeta, bool) {
	for _, col := range t.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return ColumnMeta{}, false
}
