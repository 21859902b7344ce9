package compliance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startAuditDB spins up a throwaway Postgres container and returns a
// migrated PostgresAudit. Skipped in -short mode and when Docker is not
// available.
func startAuditDB(t *testing.T) *PostgresAudit {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Postgres integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("leadflow_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Skipf("could not start postgres container (Docker unavailable?): %v", err)
	}
	t.Cleanup(func() { _ = pgContainer.Terminate(context.Background()) })

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	audit, err := NewPostgresAudit(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(audit.Close)
	return audit
}

func TestPostgresAudit_AppendAndQuery(t *testing.T) {
	audit := startAuditDB(t)
	ctx := context.Background()

	entries := []AuditEntry{
		{Phone: testPhone, Action: auditActionSendRecorded, Content: "hello", Allowed: true},
		{Phone: testPhone, Action: auditActionValidateDeny, Reason: string(DenyDailyLimit)},
		{Phone: "+15559990000", Action: auditActionSendRecorded, Allowed: true},
	}
	for i, e := range entries {
		e.CreatedAt = time.Now().Add(time.Duration(i) * time.Second)
		require.NoError(t, audit.Append(ctx, e))
	}

	got, err := audit.RecentByPhone(ctx, testPhone, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, auditActionValidateDeny, got[0].Action, "newest first")
	assert.Equal(t, auditActionSendRecorded, got[1].Action)
	assert.NotEmpty(t, got[0].ID, "ID assigned when unset")
}

func TestPostgresAudit_OptOutMirror(t *testing.T) {
	audit := startAuditDB(t)
	ctx := context.Background()

	require.NoError(t, audit.Append(ctx, AuditEntry{
		Phone:     testPhone,
		Action:    auditActionOptOut,
		Reason:    "stop-keyword",
		CreatedAt: time.Now(),
	}))
	// Repeat opt-out is an upsert no-op, not an error.
	require.NoError(t, audit.Append(ctx, AuditEntry{
		Phone:     testPhone,
		Action:    auditActionOptOut,
		Reason:    "user-request",
		CreatedAt: time.Now().Add(time.Hour),
	}))

	phones, err := audit.OptOutPhones(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{testPhone}, phones)
}
