package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"snippets/internal/logging"
)

type migrationStep struct {
	Name string
	SQL  string
}

// sentinelQuery reports whether the schema has already been created.
const sentinelQuery = "SELECT to_regclass('public.snippets') IS NOT NULL"

var steps = []migrationStep{
	{
		Name: "create_table_snippets",
		SQL: `CREATE TABLE IF NOT EXISTS snippets (
  id           BIGSERIAL    PRIMARY KEY,
  title        VARCHAR(128) NOT NULL,
  description  TEXT         NOT NULL DEFAULT '',
  storage_path TEXT         NOT NULL UNIQUE,
  size         BIGINT       NOT NULL CHECK (size >= 0),
  content_type TEXT         NOT NULL,
  created_at   TIMESTAMPTZ  NOT NULL DEFAULT now(),
  updated_at   TIMESTAMPTZ  NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_snippets_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_snippets_created_at ON snippets (created_at DESC, id DESC);`,
	},
	{
		Name: "create_index_snippets_title",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_snippets_title ON snippets (title);`,
	},
}

// EnsureMigrated creates the schema unless the snippets table already exists.
// Each step is logged as a JSON line tagged with dbHost.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *logging.Logger, dbHost string) error {
	start := time.Now()
	event := func(name, status string, extra map[string]any) {
		fields := map[string]any{
			"component": "database",
			"event":     name,
			"status":    status,
			"db_host":   dbHost,
		}
		for k, v := range extra {
			fields[k] = v
		}
		log.Log(fields)
	}

	event("db_migration_check", "starting", nil)

	var exists bool
	if err := db.QueryRowContext(ctx, sentinelQuery).Scan(&exists); err != nil {
		event("db_migration_failed", "error", map[string]any{
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		event("db_migration_skip", "success", map[string]any{
			"msg":         "schema already exists, skipping migration",
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	event("db_migration_start", "in_progress", nil)

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			event("db_migration_failed", "error", map[string]any{
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		event("db_migration_step", "success", map[string]any{
			"migration_step":   step.Name,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	event("db_migration_success", "success", map[string]any{
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}
