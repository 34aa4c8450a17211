package database

import (
	"fmt"
	"strings"
)

// SQLServerDialect targets Microsoft SQL Server through go-mssqldb.
type SQLServerDialect struct{}

func (SQLServerDialect) Name() string                 { return "sqlserver" }
func (SQLServerDialect) DriverName() string           { return "sqlserver" }
func (SQLServerDialect) Placeholder(index int) string { return fmt.Sprintf("@p%d", index) }
func (SQLServerDialect) BlobType() string             { return "VARBINARY(MAX)" }
func (SQLServerDialect) TimestampType() string        { return "DATETIME2" }
func (SQLServerDialect) IdentityColumn() string       { return "id BIGINT IDENTITY(1,1) PRIMARY KEY" }

func (SQLServerDialect) QuoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (d SQLServerDialect) InsertReturningID(table string, columns []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) OUTPUT INSERTED.id VALUES (%s)",
		table, columnList(d, columns), Placeholders(d, 1, len(columns)))
}
