package types

import "sort"

// Row is one data row aligned with its table's Columns.
type Row []Value

// Record is a keyed view of one row: column name to cell.
type Record map[string]Value

// Get returns the cell for col, or Empty when the record lacks it.
func (r Record) Get(col string) Value {
	if r == nil {
		return Value{}
	}
	return r[col]
}

// Keys returns the record's column names in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Table is an in-memory worksheet. Columns may contain duplicates or empty
// names until the table has been normalized; lookups by name always use the
// first matching column.
type Table struct {
	Name     string
	Columns  []string
	Rows     []Row
	Revision string // opaque token set by the store on read
}

// NewTable returns an empty table with the given header.
func NewTable(name string, columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Name: name, Columns: cols}
}

// FromStrings builds a table from raw sheet values. The first row is the
// header; short rows are padded with empty cells and cells beyond the header
// are dropped. Every non-empty cell becomes a text value.
func FromStrings(name string, values [][]string) *Table {
	t := &Table{Name: name}
	if len(values) == 0 {
		return t
	}
	t.Columns = make([]string, len(values[0]))
	copy(t.Columns, values[0])
	for _, raw := range values[1:] {
		row := make(Row, len(t.Columns))
		for i := range row {
			if i < len(raw) {
				row[i] = Text(raw[i])
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Strings renders the table as header plus rows of storage strings.
func (t *Table) Strings() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	header := make([]string, len(t.Columns))
	copy(header, t.Columns)
	out = append(out, header)
	for _, row := range t.Rows {
		cells := make([]string, len(t.Columns))
		for i := range cells {
			if i < len(row) {
				cells[i] = row[i].StorageString()
			}
		}
		out = append(out, cells)
	}
	return out
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// IsEmpty reports whether the table has no header or no rows.
func (t *Table) IsEmpty() bool {
	return t == nil || len(t.Columns) == 0 || len(t.Rows) == 0
}

// Index returns the position of the first column named col, or -1.
func (t *Table) Index(col string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// Has reports whether the table has a column named col.
func (t *Table) Has(col string) bool {
	return t.Index(col) >= 0
}

// Cell returns the value at row r in column col, or Empty when either is out
// of range.
func (t *Table) Cell(r int, col string) Value {
	i := t.Index(col)
	if i < 0 || r < 0 || r >= len(t.Rows) || i >= len(t.Rows[r]) {
		return Value{}
	}
	return t.Rows[r][i]
}

// Set stores v at row r in column col, adding the column when needed.
func (t *Table) Set(r int, col string, v Value) {
	i := t.Index(col)
	if i < 0 {
		i = t.AddColumn(col)
	}
	if r < 0 || r >= len(t.Rows) {
		return
	}
	for len(t.Rows[r]) <= i {
		t.Rows[r] = append(t.Rows[r], Value{})
	}
	t.Rows[r][i] = v
}

// AddColumn appends a column, padding every row, and returns its index. An
// existing column is returned unchanged.
func (t *Table) AddColumn(col string) int {
	if i := t.Index(col); i >= 0 {
		return i
	}
	t.Columns = append(t.Columns, col)
	for r := range t.Rows {
		for len(t.Rows[r]) < len(t.Columns) {
			t.Rows[r] = append(t.Rows[r], Value{})
		}
	}
	return len(t.Columns) - 1
}

// Column returns every cell of col, or nil when the column is missing.
func (t *Table) Column(col string) []Value {
	i := t.Index(col)
	if i < 0 {
		return nil
	}
	out := make([]Value, len(t.Rows))
	for r, row := range t.Rows {
		if i < len(row) {
			out[r] = row[i]
		}
	}
	return out
}

// Record returns row r keyed by column. Duplicate columns resolve to their
// first occurrence.
func (t *Table) Record(r int) Record {
	rec := make(Record, len(t.Columns))
	if r < 0 || r >= len(t.Rows) {
		return rec
	}
	row := t.Rows[r]
	for i := len(t.Columns) - 1; i >= 0; i-- {
		if i < len(row) {
			rec[t.Columns[i]] = row[i]
		} else {
			rec[t.Columns[i]] = Value{}
		}
	}
	return rec
}

// Records returns every row keyed by column.
func (t *Table) Records() []Record {
	out := make([]Record, len(t.Rows))
	for r := range t.Rows {
		out[r] = t.Record(r)
	}
	return out
}

// AppendRecord adds a row aligned to the table's header. Fields without a
// matching column are ignored.
func (t *Table) AppendRecord(rec Record) {
	row := make(Row, len(t.Columns))
	for i, col := range t.Columns {
		if t.Index(col) != i {
			continue
		}
		row[i] = rec.Get(col)
	}
	t.Rows = append(t.Rows, row)
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	c := &Table{Name: t.Name, Revision: t.Revision}
	c.Columns = make([]string, len(t.Columns))
	copy(c.Columns, t.Columns)
	c.Rows = make([]Row, len(t.Rows))
	for i, row := range t.Rows {
		c.Rows[i] = make(Row, len(row))
		copy(c.Rows[i], row)
	}
	return c
}

// AlignStrings renders rec against header as storage strings, the way a row
// is appended to an existing sheet.
func AlignStrings(header []string, rec Record) []string {
	out := make([]string, len(header))
	for i, col := range header {
		out[i] = rec.Get(col).StorageString()
	}
	return out
}
