// SPDX-License-Identifier: MIT

package sqlite

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JacobDahan/occam-api/internal/catalog"
)

func TestVerifyIntegrity_HealthyCatalogPassesQuickCheck(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catalog.sqlite")

	db, err := Open(dbPath, DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, catalog.EnsureSchema(context.Background(), db))

	padding := strings.Repeat("A", 100)
	for i := 0; i < 100; i++ {
		_, err := db.Exec(`INSERT INTO streaming_services (id, name, base_monthly_cost, active) VALUES (?, ?, 9.99, 1)`,
			fmt.Sprintf("svc-%03d", i), padding)
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	issues, err := VerifyIntegrity(dbPath, "quick")
	require.NoError(t, err)
	assert.Nil(t, issues)
}

func TestVerifyIntegrity_DetectsCorruptedCatalogFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catalog.sqlite")

	db, err := Open(dbPath, DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, catalog.EnsureSchema(context.Background(), db))
	_, err = db.Exec(`INSERT INTO streaming_services (id, name, base_monthly_cost, active) VALUES ('netflix', 'Netflix', 15.49, 1)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	f, err := os.OpenFile(dbPath, os.O_RDWR, 0o644)
	require.NoError(t, err)
	corruptData := make([]byte, 100)
	_, err = rand.Read(corruptData)
	require.NoError(t, err)
	_, err = f.WriteAt(corruptData, 4096)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	issues, err := VerifyIntegrity(dbPath, "full")
	require.NoError(t, err)
	assert.NotEmpty(t, issues, "corrupted catalog file should fail integrity_check")
}
