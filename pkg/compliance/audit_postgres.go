package compliance

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// PostgresAudit persists the append-only compliance audit trail. The
// `opt_outs` mirror table gives compliance reviewers a queryable record
// that outlives both the process and the Redis TTL.
type PostgresAudit struct {
	pool *pgxpool.Pool
}

// NewPostgresAudit connects to Postgres, applies migrations, and returns
// the audit store.
func NewPostgresAudit(ctx context.Context, dsn string) (*PostgresAudit, error) {
	if err := runMigrations(dsn); err != nil {
		return nil, fmt.Errorf("audit migrations failed: %w", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("audit database unreachable: %w", err)
	}
	return &PostgresAudit{pool: pool}, nil
}

func runMigrations(dsn string) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Append inserts one audit row. Opt-out entries are additionally mirrored
// into the opt_outs table (idempotent upsert keyed by phone).
func (a *PostgresAudit) Append(ctx context.Context, entry AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := a.pool.Exec(ctx,
		`INSERT INTO compliance_audit (id, phone, action, content, allowed, reason, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.Phone, entry.Action, entry.Content, entry.Allowed, entry.Reason, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	if entry.Action == auditActionOptOut {
		_, err = a.pool.Exec(ctx,
			`INSERT INTO opt_outs (phone, reason, opted_out_at)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (phone) DO NOTHING`,
			entry.Phone, entry.Reason, entry.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to mirror opt-out: %w", err)
		}
	}
	return nil
}

// RecentByPhone returns up to limit entries for a phone, newest first.
func (a *PostgresAudit) RecentByPhone(ctx context.Context, phone string, limit int) ([]AuditEntry, error) {
	rows, err := a.pool.Query(ctx,
		`SELECT id, phone, action, content, allowed, reason, created_at
		 FROM compliance_audit WHERE phone = $1
		 ORDER BY created_at DESC LIMIT $2`,
		phone, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var out []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.Phone, &e.Action, &e.Content, &e.Allowed, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// OptOutPhones returns every phone with a mirrored opt-out newer than since.
// Used to rebuild the opt-out registry after a restart without Redis.
func (a *PostgresAudit) OptOutPhones(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := a.pool.Query(ctx,
		`SELECT phone FROM opt_outs WHERE opted_out_at >= $1`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query opt-outs: %w", err)
	}
	defer rows.Close()

	var phones []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan opt-out phone: %w", err)
		}
		phones = append(phones, p)
	}
	return phones, rows.Err()
}

// Close releases the connection pool.
func (a *PostgresAudit) Close() {
	a.pool.Close()
}
