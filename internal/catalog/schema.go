// SPDX-License-Identifier: MIT

package catalog

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSchema creates the streaming_services table if it does not already
// exist. This is bootstrap convenience for cmd/server, not a core
// operation: Repository itself never writes.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	const ddl = `CREATE TABLE IF NOT EXISTS streaming_services (
		id                TEXT PRIMARY KEY,
		name              TEXT NOT NULL,
		base_monthly_cost NUMERIC NOT NULL,
		active            BOOLEAN NOT NULL DEFAULT 1,
		native_service_id INTEGER NULL
	)`

	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("catalog: ensure schema failed: %w", err)
	}
	return nil
}
