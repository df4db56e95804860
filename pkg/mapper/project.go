// pkg/mapper/project.go
package mapper

import (
	"github.com/eltahawyomar001-eng/salla-analytics/pkg/model"
	"github.com/eltahawyomar001-eng/salla-analytics/pkg/schema"
	"github.com/eltahawyomar001-eng/salla-analytics/pkg/table"
)

// Project builds the canonical table from a raw table and a computed
// mapping: one column per mapped canonical field, in schema order,
// with values copied from the mapped source column. Source columns
// that map to nothing are dropped. The raw table is not modified.
func Project(t *table.Table, mapping *model.Mapping, ps *schema.PlatformSchema) *table.Table {
	fields := []string{}
	sources := map[string]string{}
	for _, name := range ps.FieldNames() {
		source, ok := mapping.Source(name)
		if !ok {
			continue
		}
		fields = append(fields, name)
		sources[name] = source
	}

	out := table.New(fields)
	for _, row := range t.Rows() {
		projected := make(map[string]interface{}, len(fields))
		for _, field := range fields {
			projected[field] = row[sources[field]]
		}
		out.Append(projected)
	}
	return out
}
