package export

import "github.com/custodia-labs/gapfinder-cli/internal/core/ports/driven"

// All returns every built-in exporter.
func All() []driven.Exporter {
	return []driven.Exporter{
		NewCSVExporter(),
		NewXLSXExporter(),
		NewJSONExporter(),
		NewSQLiteExporter(),
	}
}
