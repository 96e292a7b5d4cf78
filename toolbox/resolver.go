package toolbox

import (
	"log/slog"

	"github.com/dot5enko/coltoolbox/schema"
	"github.com/dot5enko/coltoolbox/store"
)

// Resolve probes the column against schema.ProbeOrder and returns the first
// element type the store binds, or UnknownElementType.
func Resolve(table store.Table, column string) schema.ElementType {

	if table == nil {
		return schema.UnknownElementType
	}

	for _, candidate := range schema.ProbeOrder {
		if _, bindErr := table.Bind(column, candidate); bindErr == nil {
			return candidate
		}
	}

	return schema.UnknownElementType
}

func resolveAndReport(logger *slog.Logger, table store.Table, column string) schema.ElementType {
	typ := Resolve(table, column)

	if typ == schema.UnknownElementType {
		logger.Warn("could not deduce a supported element type, column will not be fetched",
			"table", table.Name(),
			"column", column,
		)
	}

	return typ
}
