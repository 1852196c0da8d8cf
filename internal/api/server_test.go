// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/JacobDahan/occam-api/internal/apperr"
	"github.com/JacobDahan/occam-api/internal/catalog"
	"github.com/JacobDahan/occam-api/internal/config"
	"github.com/JacobDahan/occam-api/internal/model"
)

type fakeProvider struct {
	searchResult []model.Title
	searchErr    error
	availByID    map[model.TitleID]model.StreamingAvailability
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) SearchTitles(ctx context.Context, query string) ([]model.Title, error) {
	if query == "" {
		return nil, apperr.InvalidInput("Search query cannot be empty")
	}
	return f.searchResult, f.searchErr
}

func (f *fakeProvider) FetchAvailability(ctx context.Context, id model.TitleID) (model.StreamingAvailability, error) {
	avail, ok := f.availByID[id]
	if !ok {
		return model.StreamingAvailability{}, apperr.ExternalAPI("no availability for %s", id.String())
	}
	return avail, nil
}

func (f *fakeProvider) FetchAvailabilityBatch(ctx context.Context, ids []model.TitleID) ([]model.StreamingAvailability, error) {
	var out []model.StreamingAvailability
	for _, id := range ids {
		if avail, ok := f.availByID[id]; ok {
			out = append(out, avail)
		}
	}
	return out, nil
}

func openTestCatalog(t *testing.T) *catalog.Repository {
	t.Helper()
	db, err := sql.Open("sqlite", "file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, catalog.EnsureSchema(context.Background(), db))

	stmts := []string{
		`INSERT INTO streaming_services (id, name, base_monthly_cost, active) VALUES ('netflix', 'Netflix', 15.49, 1)`,
		`INSERT INTO streaming_services (id, name, base_monthly_cost, active) VALUES ('hulu', 'Hulu', 7.99, 1)`,
	}
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err)
	}
	return catalog.NewRepository(db)
}

func testServer(t *testing.T, p *fakeProvider) http.Handler {
	t.Helper()
	s := New(p, openTestCatalog(t), config.Config{})
	return s.Routes()
}

func TestHandleHealth(t *testing.T) {
	srv := testServer(t, &fakeProvider{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestHandleNotFound(t *testing.T) {
	srv := testServer(t, &fakeProvider{})
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Route not found"}`, rec.Body.String())
}

func TestHandleSearchTitles_Success(t *testing.T) {
	p := &fakeProvider{searchResult: []model.Title{{ID: model.Imdb("tt1"), Title: "Inception", TitleType: model.TitleTypeMovie}}}
	srv := testServer(t, p)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/titles/search?q=inception", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var titles []model.Title
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &titles))
	require.Len(t, titles, 1)
	assert.Equal(t, "Inception", titles[0].Title)
}

func TestHandleSearchTitles_BlankQueryIs400(t *testing.T) {
	srv := testServer(t, &fakeProvider{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/titles/search", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleOptimize_Success(t *testing.T) {
	p := &fakeProvider{
		availByID: map[model.TitleID]model.StreamingAvailability{
			model.Imdb("t1"): {ID: model.Imdb("t1"), Services: []model.ServiceAvailability{{ServiceID: "netflix", AvailabilityType: model.AvailabilitySubscription}}},
			model.Imdb("t2"): {ID: model.Imdb("t2"), Services: []model.ServiceAvailability{{ServiceID: "hulu", AvailabilityType: model.AvailabilitySubscription}}},
		},
	}
	srv := testServer(t, p)

	body, _ := json.Marshal(model.OptimizationRequest{MustHave: []model.TitleID{model.Imdb("t1"), model.Imdb("t2")}})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/optimize", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp model.OptimizationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Configurations)
	assert.Equal(t, 2, resp.Configurations[0].MustHaveCoverage)
}

func TestHandleOptimize_InvalidJSON(t *testing.T) {
	srv := testServer(t, &fakeProvider{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/optimize", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleOptimize_EmptyRequestIsInvalid(t *testing.T) {
	srv := testServer(t, &fakeProvider{})
	body, _ := json.Marshal(model.OptimizationRequest{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/optimize", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRecommendations_StubReturnsEmptyArray(t *testing.T) {
	srv := testServer(t, &fakeProvider{})
	body, _ := json.Marshal(model.RecommendationRequest{UserTitles: []string{"tt1"}})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommendations", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
