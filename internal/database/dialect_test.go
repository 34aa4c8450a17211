package database

import (
	"context"
	"path/filepath"
	"testing"
)

func TestDialectFor(t *testing.T) {
	cases := map[string]string{
		"postgres":  "pgx",
		"pgx":       "pgx",
		"mssql":     "sqlserver",
		"SQLServer": "sqlserver",
		"sqlite":    "sqlite",
	}
	for name, driver := range cases {
		d, err := DialectFor(name)
		if err != nil {
			t.Fatalf("DialectFor(%q): %v", name, err)
		}
		if d.DriverName() != driver {
			t.Fatalf("DialectFor(%q) driver = %q, want %q", name, d.DriverName(), driver)
		}
	}
	if _, err := DialectFor("oracle"); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestPlaceholders(t *testing.T) {
	if got := Placeholders(PostgresDialect{}, 1, 3); got != "$1, $2, $3" {
		t.Fatalf("postgres placeholders = %q", got)
	}
	if got := Placeholders(SQLServerDialect{}, 2, 2); got != "@p2, @p3" {
		t.Fatalf("sqlserver placeholders = %q", got)
	}
	if got := Placeholders(SQLiteDialect{}, 1, 2); got != "?, ?" {
		t.Fatalf("sqlite placeholders = %q", got)
	}
}

func TestQuoteQualified(t *testing.T) {
	got, err := QuoteQualified(SQLServerDialect{}, "JCIHistorianDB.dbo.alarmOrion_OrionAlarmRecord")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "[JCIHistorianDB].[dbo].[alarmOrion_OrionAlarmRecord]" {
		t.Fatalf("unexpected quote: %s", got)
	}
	got, err = QuoteQualified(PostgresDialect{}, "historian.alarm_record")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `"historian"."alarm_record"` {
		t.Fatalf("unexpected quote: %s", got)
	}
	if _, err := QuoteQualified(SQLServerDialect{}, "dbo.bad-name"); err == nil {
		t.Fatalf("expected invalid identifier error")
	}
	if _, err := QuoteQualified(SQLServerDialect{}, "a..b"); err == nil {
		t.Fatalf("expected empty segment error")
	}
}

func TestInsertReturningID(t *testing.T) {
	cols := []string{"report_name", "report_data"}
	if got := (SQLServerDialect{}).InsertReturningID("[reports]", cols); got != "INSERT INTO [reports] ([report_name], [report_data]) OUTPUT INSERTED.id VALUES (@p1, @p2)" {
		t.Fatalf("unexpected sqlserver insert: %s", got)
	}
	if got := (PostgresDialect{}).InsertReturningID(`"reports"`, cols); got != `INSERT INTO "reports" ("report_name", "report_data") VALUES ($1, $2) RETURNING id` {
		t.Fatalf("unexpected postgres insert: %s", got)
	}
}

func TestOpenSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.db")
	db, dialect, err := Open(context.Background(), "sqlite", path, Options{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()
	if dialect.Name() != "sqlite" {
		t.Fatalf("unexpected dialect %s", dialect.Name())
	}
}

func TestOpenRejectsEmptyDSN(t *testing.T) {
	if _, _, err := Open(context.Background(), "sqlite", "", Options{}); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}
