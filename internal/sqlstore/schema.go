package sqlstore

// Schema DDL shared by SQLite and PostgreSQL. A sheet's header and each row
// are stored as JSON string arrays.
const (
	createSheets = `CREATE TABLE IF NOT EXISTS desk_sheets (
    name TEXT PRIMARY KEY,
    header TEXT NOT NULL,
    revision TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createRows = `CREATE TABLE IF NOT EXISTS desk_rows (
    sheet TEXT NOT NULL,
    ord INTEGER NOT NULL,
    cells TEXT NOT NULL,
    PRIMARY KEY (sheet, ord)
);`
)

var schemaStatements = []string{createSheets, createRows}
