package database

import (
	"fmt"
	"strings"
)

// PostgresDialect targets PostgreSQL through the pgx stdlib driver.
type PostgresDialect struct{}

func (PostgresDialect) Name() string                 { return "postgres" }
func (PostgresDialect) DriverName() string           { return "pgx" }
func (PostgresDialect) Placeholder(index int) string { return fmt.Sprintf("$%d", index) }
func (PostgresDialect) BlobType() string             { return "BYTEA" }
func (PostgresDialect) TimestampType() string        { return "TIMESTAMPTZ" }
func (PostgresDialect) IdentityColumn() string       { return "id BIGSERIAL PRIMARY KEY" }

func (PostgresDialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d PostgresDialect) InsertReturningID(table string, columns []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		table, columnList(d, columns), Placeholders(d, 1, len(columns)))
}
