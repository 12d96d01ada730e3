package testdb

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/phrazzld/smartmark/internal/ciutil"
	"github.com/phrazzld/smartmark/internal/platform/logger"
	"github.com/phrazzld/smartmark/internal/platform/postgres"
	"github.com/stretchr/testify/require"
)

// TestTimeout bounds setup and cleanup statements.
const TestTimeout = 10 * time.Second

// RequireDatabaseURL returns the configured test database URL. Without one
// the test is skipped, or failed when running under CI.
func RequireDatabaseURL(t testing.TB) string {
	t.Helper()

	dbURL := ciutil.TestDatabaseURL(nil)
	if dbURL != "" {
		return dbURL
	}
	if ciutil.IsCI() {
		t.Fatalf("%s must be set in CI", ciutil.EnvTestDatabaseURL)
	}
	t.Skipf("%s not set - skipping integration test", ciutil.EnvTestDatabaseURL)
	return ""
}

// Open connects to the test database, applies every migration and empties
// the key-value table. The connection is closed when the test ends.
func Open(t testing.TB) *sql.DB {
	t.Helper()

	dbURL := RequireDatabaseURL(t)
	log := quietLogger()

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	db, err := postgres.Open(ctx, dbURL, log)
	require.NoError(t, err, "failed to connect to %s", ciutil.MaskSensitiveValue(dbURL))
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: failed to close database connection: %v", err)
		}
	})

	require.NoError(t, postgres.Migrate(ctx, db, "up", log), "failed to run migrations")
	Reset(t, db)
	return db
}

// Reset deletes every key-value entry.
func Reset(t testing.TB, db *sql.DB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	_, err := db.ExecContext(ctx, `DELETE FROM kv_entries`)
	require.NoError(t, err, "failed to reset kv_entries")
}

func quietLogger() *slog.Logger {
	log, _ := logger.NewTestLogger()
	return log
}
