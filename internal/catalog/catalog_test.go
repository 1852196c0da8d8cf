// SPDX-License-Identifier: MIT

package catalog

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, EnsureSchema(context.Background(), db))
	return db
}

func seed(t *testing.T, db *sql.DB) {
	t.Helper()
	stmts := []string{
		`INSERT INTO streaming_services (id, name, base_monthly_cost, active, native_service_id) VALUES ('netflix', 'Netflix', 15.49, 1, 203)`,
		`INSERT INTO streaming_services (id, name, base_monthly_cost, active, native_service_id) VALUES ('hulu', 'Hulu', 7.99, 1, 157)`,
		`INSERT INTO streaming_services (id, name, base_monthly_cost, active, native_service_id) VALUES ('defunct', 'Defunct', 3.99, 0, 99)`,
	}
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err)
	}
}

func TestRepository_ServiceInfoByIDs_FiltersInactiveAndUnrequested(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	repo := NewRepository(db)

	services, err := repo.ServiceInfoByIDs(context.Background(), []string{"netflix", "defunct"})
	require.NoError(t, err)

	ids := make([]string, len(services))
	for i, s := range services {
		ids[i] = s.ID
	}
	assert.ElementsMatch(t, []string{"netflix"}, ids)
}

func TestRepository_ServiceInfoByIDs_EmptyInput(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)

	services, err := repo.ServiceInfoByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, services)
}

func TestRepository_NativeServiceMapping_OnlyActiveWithNativeID(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	repo := NewRepository(db)

	mapping, err := repo.NativeServiceMapping(context.Background())
	require.NoError(t, err)

	require.Contains(t, mapping, int64(203))
	assert.Equal(t, "netflix", mapping[203].ID)
	assert.NotContains(t, mapping, int64(99), "inactive rows must not appear in the mapping")
}
