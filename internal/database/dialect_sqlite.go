package database

import (
	"fmt"
	"strings"
)

// SQLiteDialect targets an embedded SQLite file through modernc.org/sqlite.
type SQLiteDialect struct{}

func (SQLiteDialect) Name() string           { return "sqlite" }
func (SQLiteDialect) DriverName() string     { return "sqlite" }
func (SQLiteDialect) Placeholder(int) string { return "?" }
func (SQLiteDialect) BlobType() string       { return "BLOB" }
func (SQLiteDialect) TimestampType() string  { return "TIMESTAMP" }
func (SQLiteDialect) IdentityColumn() string { return "id INTEGER PRIMARY KEY AUTOINCREMENT" }

func (SQLiteDialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d SQLiteDialect) InsertReturningID(table string, columns []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		table, columnList(d, columns), Placeholders(d, 1, len(columns)))
}
