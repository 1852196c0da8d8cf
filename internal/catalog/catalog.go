// SPDX-License-Identifier: MIT

// Package catalog is the read-only relational gateway onto the
// streaming_services table: the curated, externally-maintained list of
// subscribable services and their monthly prices. It never writes.
package catalog

import (
	"context"
	"database/sql"
	"strings"

	"github.com/JacobDahan/occam-api/internal/apperr"
	"github.com/JacobDahan/occam-api/internal/model"
)

// Repository reads the streaming_services table.
type Repository struct {
	db *sql.DB
}

// NewRepository wraps an already-open database handle.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ServiceInfoByIDs loads the active catalog entries whose id is in ids. A
// requested id with no matching active row is simply absent from the
// result; the caller decides whether that's fatal.
func (r *Repository) ServiceInfoByIDs(ctx context.Context, ids []string) ([]model.ServiceInfo, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := `SELECT id, name, base_monthly_cost FROM streaming_services
		WHERE active = 1 AND id IN (` + strings.Join(placeholders, ",") + `)`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Database(err, "catalog: query by ids failed")
	}
	defer rows.Close()

	var out []model.ServiceInfo
	for rows.Next() {
		var s model.ServiceInfo
		if err := rows.Scan(&s.ID, &s.Name, &s.MonthlyCost); err != nil {
			return nil, apperr.Database(err, "catalog: scan failed")
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Database(err, "catalog: row iteration failed")
	}
	return out, nil
}

// NativeServiceMapping loads the native_service_id → ServiceInfo table used
// by the proxied-id provider to resolve a foreign numeric service id into a
// canonical catalog entry. Only active rows with a non-null native id
// participate.
func (r *Repository) NativeServiceMapping(ctx context.Context) (map[int64]model.ServiceInfo, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, base_monthly_cost, native_service_id
		FROM streaming_services WHERE active = 1 AND native_service_id IS NOT NULL`)
	if err != nil {
		return nil, apperr.Database(err, "catalog: query native mapping failed")
	}
	defer rows.Close()

	mapping := make(map[int64]model.ServiceInfo)
	for rows.Next() {
		var s model.ServiceInfo
		var nativeID int64
		if err := rows.Scan(&s.ID, &s.Name, &s.MonthlyCost, &nativeID); err != nil {
			return nil, apperr.Database(err, "catalog: scan native mapping failed")
		}
		mapping[nativeID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Database(err, "catalog: native mapping iteration failed")
	}
	return mapping, nil
}
