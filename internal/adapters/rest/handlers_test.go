package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"listam-parser-service/internal/contextkeys"
	"listam-parser-service/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubScrape struct{ stats domain.ScrapeRunStats }

func (s stubScrape) Execute(ctx context.Context) (*domain.ScrapeRunStats, error) { return &s.stats, nil }
func (s stubScrape) Progress() domain.ScrapeRunStats                             { return s.stats }

type stubCheck struct{ stats domain.CheckRunStats }

func (s stubCheck) Execute(ctx context.Context) (*domain.CheckRunStats, error) { return &s.stats, nil }
func (s stubCheck) Progress() domain.CheckRunStats                             { return s.stats }

type stubHouseStats struct {
	active, deleted int64
	err             error
}

func (s stubHouseStats) CountHouses(ctx context.Context) (int64, int64, error) {
	return s.active, s.deleted, s.err
}

func serve(t *testing.T, handlers *StatusHandlers, path string) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(handlers, contextkeys.LoggerFromContext(context.Background()))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandleHealth(t *testing.T) {
	rec := serve(t, NewStatusHandlers("scraper", nil, nil, nil), "/health")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))

	var body HealthResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, HealthResponseDTO{Status: "ok", Mode: "scraper"}, body)
}

func TestHandleStats_Scraper(t *testing.T) {
	started := time.Date(2025, 12, 7, 10, 0, 0, 0, time.UTC)
	scrape := stubScrape{stats: domain.ScrapeRunStats{
		TraceID: "run-1", StartedAt: started, PagesProcessed: 2, LinksFound: 40, ListingsSaved: 39, ListingsFailed: 1,
	}}
	rec := serve(t, NewStatusHandlers("scraper", scrape, nil, stubHouseStats{active: 10, deleted: 2}), "/api/v1/stats")

	require.Equal(t, http.StatusOK, rec.Code)
	var body StatsResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	require.NotNil(t, body.Scrape)
	assert.Nil(t, body.Check)
	assert.Equal(t, "run-1", body.Scrape.TraceID)
	assert.Equal(t, 39, body.Scrape.ListingsSaved)
	require.NotNil(t, body.Scrape.StartedAt)
	assert.True(t, body.Scrape.StartedAt.Equal(started))
	assert.Nil(t, body.Scrape.FinishedAt)
	assert.Equal(t, &HouseCountsDTO{Active: 10, Deleted: 2}, body.Houses)
}

func TestHandleStats_Checker(t *testing.T) {
	check := stubCheck{stats: domain.CheckRunStats{Checked: 5, Removed: 1}}
	rec := serve(t, NewStatusHandlers("checker", nil, check, nil), "/api/v1/stats")

	require.Equal(t, http.StatusOK, rec.Code)
	var body StatsResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Check)
	assert.Equal(t, 1, body.Check.Removed)
	assert.Nil(t, body.Scrape)
	assert.Nil(t, body.Houses)
}

func TestHandleStats_StorageError(t *testing.T) {
	rec := serve(t, NewStatusHandlers("checker", nil, nil, stubHouseStats{err: errors.New("down")}), "/api/v1/stats")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"error":"storage is unavailable"}`, rec.Body.String())
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestUnknownRoute(t *testing.T) {
	rec := serve(t, NewStatusHandlers("scraper", nil, nil, nil), "/api/v1/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
