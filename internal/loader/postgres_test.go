package loader_test

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cesargomez89/topalbums/internal/loader"
	"github.com/cesargomez89/topalbums/internal/store"
)

const postgresDSNEnv = "TEST_POSTGRES_DSN"

// setupPostgresLoader opens a loader on a fresh schema of the TEST_POSTGRES_DSN
// server and skips when it is not set.
func setupPostgresLoader(t *testing.T, opts loader.Options) (*loader.Loader, *store.DB) {
	t.Helper()
	dsn := os.Getenv(postgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s is not set", postgresDSNEnv)
	}

	admin, err := sqlx.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("Failed to open postgres: %v", err)
	}
	schema := fmt.Sprintf("topalbums_loader_%d", time.Now().UnixNano())
	if _, err := admin.Exec("CREATE SCHEMA " + schema); err != nil {
		_ = admin.Close()
		t.Fatalf("Failed to create schema: %v", err)
	}
	t.Cleanup(func() {
		if _, err := admin.Exec("DROP SCHEMA " + schema + " CASCADE"); err != nil {
			t.Logf("drop schema %s: %v", schema, err)
		}
		_ = admin.Close()
	})

	sep := " "
	if strings.Contains(dsn, "://") {
		sep = "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
	}
	db, err := store.NewPostgresDB(dsn + sep + "search_path=" + schema)
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return newLoader(db, opts), db
}

// forEachBackend runs test on a sqlite loader and, when configured, a postgres one.
func forEachBackend(t *testing.T, opts loader.Options, test func(t *testing.T, l *loader.Loader, db *store.DB)) {
	t.Run("sqlite", func(t *testing.T) {
		l, db := setupLoader(t, opts)
		test(t, l, db)
	})
	t.Run("postgres", func(t *testing.T) {
		l, db := setupPostgresLoader(t, opts)
		test(t, l, db)
	})
}
