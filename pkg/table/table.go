// pkg/table/table.go
package table

// Table is a rectangular, fully materialized dataset: ordered column
// names and ordered rows of column -> value. A nil value is a null.
// Pipeline stages never mutate a Table in place; each stage returns a
// new Table (or a removal-filtered copy in the cleaner's case).
type Table struct {
	columns []string
	rows    []map[string]interface{}
}

// New creates a table with the given column order and no rows.
func New(columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{columns: cols}
}

// FromRows creates a table from pre-built rows, preserving row order.
func FromRows(columns []string, rows []map[string]interface{}) *Table {
	t := New(columns)
	t.rows = rows
	return t
}

// Columns returns the column names in their original order.
func (t *Table) Columns() []string {
	cols := make([]string, len(t.columns))
	copy(cols, t.columns)
	return cols
}

// HasColumn reports whether the table has a column with the exact name.
func (t *Table) HasColumn(name string) bool {
	for _, col := range t.columns {
		if col == name {
			return true
		}
	}
	return false
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Row returns the i-th row. The returned map is shared; callers must
// not modify it.
func (t *Table) Row(i int) map[string]interface{} {
	return t.rows[i]
}

// Rows returns the underlying row slice. Shared, read-only by convention.
func (t *Table) Rows() []map[string]interface{} {
	return t.rows
}

// Append adds a row. Used only while a table is being built.
func (t *Table) Append(row map[string]interface{}) {
	t.rows = append(t.rows, row)
}

// Value returns the value at (row i, column) or nil when absent.
func (t *Table) Value(i int, column string) interface{} {
	return t.rows[i][column]
}

// Column returns all values of one column in row order.
func (t *Table) Column(name string) []interface{} {
	values := make([]interface{}, len(t.rows))
	for i, row := range t.rows {
		values[i] = row[name]
	}
	return values
}

// WithColumn returns a new table with one column's values replaced in
// row order. Row maps are copied so the receiver stays untouched. The
// values slice must have exactly Len() entries.
func (t *Table) WithColumn(name string, values []interface{}) *Table {
	out := New(t.columns)
	if !out.HasColumn(name) {
		out.columns = append(out.columns, name)
	}
	out.rows = make([]map[string]interface{}, len(t.rows))
	for i, row := range t.rows {
		next := make(map[string]interface{}, len(row)+1)
		for k, v := range row {
			next[k] = v
		}
		next[name] = values[i]
		out.rows[i] = next
	}
	return out
}

// Filter returns a new table containing only the rows for which keep
// returns true. Row order is preserved and row maps are shared.
func (t *Table) Filter(keep func(row map[string]interface{}) bool) *Table {
	out := New(t.columns)
	for _, row := range t.rows {
		if keep(row) {
			out.rows = append(out.rows, row)
		}
	}
	return out
}
