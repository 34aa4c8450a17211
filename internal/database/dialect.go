package database

import (
	"fmt"
	"strings"
)

// Dialect abstracts the SQL differences between the supported backends.
type Dialect interface {
	// Name is the configuration name of the dialect ("postgres", "sqlserver", "sqlite").
	Name() string
	// DriverName returns the database/sql driver name.
	DriverName() string
	// Placeholder returns the parameter placeholder for the 1-based index.
	Placeholder(index int) string
	// QuoteIdent quotes a single identifier segment.
	QuoteIdent(name string) string
	// BlobType is the column type for binary documents.
	BlobType() string
	// TimestampType is the column type for generation timestamps.
	TimestampType() string
	// IdentityColumn is the DDL of an auto-assigned integer primary key named id.
	IdentityColumn() string
	// InsertReturningID builds an INSERT that yields the new id as a single-row result.
	InsertReturningID(table string, columns []string) string
}

// QuoteQualified quotes a dotted identifier segment by segment.
func QuoteQualified(d Dialect, ident string) (string, error) {
	trimmed := strings.TrimSpace(ident)
	if trimmed == "" {
		return "", fmt.Errorf("database: empty identifier")
	}
	parts := strings.Split(trimmed, ".")
	quoted := make([]string, len(parts))
	for i, part := range parts {
		if !identPattern.MatchString(part) {
			return "", fmt.Errorf("database: identifier segment %q is invalid", part)
		}
		quoted[i] = d.QuoteIdent(part)
	}
	return strings.Join(quoted, "."), nil
}

// Placeholders returns n placeholders starting at index from, comma separated.
func Placeholders(d Dialect, from, n int) string {
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = d.Placeholder(from + i)
	}
	return strings.Join(out, ", ")
}

// DialectFor resolves a dialect by configuration name.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql", "pgx":
		return PostgresDialect{}, nil
	case "sqlserver", "mssql":
		return SQLServerDialect{}, nil
	case "sqlite", "sqlite3":
		return SQLiteDialect{}, nil
	default:
		return nil, fmt.Errorf("database: unsupported driver %q", name)
	}
}

func columnList(d Dialect, columns []string) string {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = d.QuoteIdent(col)
	}
	return strings.Join(quoted, ", ")
}
