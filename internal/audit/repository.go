package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bms-reports/internal/database"
)

const auditTable = "audit_logs"

// Repository writes audit logs.
type Repository struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewRepository constructs an audit repository.
func NewRepository(db *sql.DB, dialect database.Dialect) *Repository {
	if db == nil || dialect == nil {
		return nil
	}
	return &Repository{db: db, dialect: dialect}
}

// EnsureSchema creates the audit table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if r == nil || r.db == nil {
		return errors.New("audit repo: nil db")
	}
	table := r.dialect.QuoteIdent(auditTable)
	columns := fmt.Sprintf(`(
	id VARCHAR(64) PRIMARY KEY,
	actor VARCHAR(255) NOT NULL,
	role VARCHAR(64) NOT NULL,
	action VARCHAR(64) NOT NULL,
	resource_type VARCHAR(64) NOT NULL,
	resource_id VARCHAR(64) NOT NULL,
	metadata %[1]s NULL,
	payload_digest VARCHAR(64) NOT NULL,
	ip VARCHAR(64) NOT NULL,
	user_agent VARCHAR(512) NOT NULL,
	created_at %[2]s NOT NULL
)`, r.dialect.BlobType(), r.dialect.TimestampType())

	var ddl string
	if r.dialect.Name() == "sqlserver" {
		ddl = fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL CREATE TABLE %s %s", auditTable, table, columns)
	} else {
		ddl = fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s %s", table, columns)
	}
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// Log writes an audit entry.
func (r *Repository) Log(ctx context.Context, entry Entry) error {
	if r == nil || r.db == nil {
		return errors.New("audit repo: nil db")
	}
	if entry.ID == "" {
		entry.ID = NewID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.PayloadDigest == "" {
		entry.PayloadDigest = DigestJSON(entry.Metadata)
	}
	var metadata []byte
	if len(entry.Metadata) > 0 {
		metadata = entry.Metadata
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	id, actor, role, action, resource_type, resource_id,
	metadata, payload_digest, ip, user_agent, created_at
) VALUES (%s)`, r.dialect.QuoteIdent(auditTable), database.Placeholders(r.dialect, 1, 11))
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.Actor, entry.Role, entry.Action, entry.ResourceType, entry.ResourceID,
		metadata, entry.PayloadDigest, entry.IP, entry.UserAgent, entry.CreatedAt)
	return err
}
