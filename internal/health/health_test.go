package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openprocurement/concord/internal/resolver"
)

func TestStatsRecord(t *testing.T) {
	var s Stats
	s.Record(resolver.OutcomeResolved)
	s.Record(resolver.OutcomeResolved)
	s.Record(resolver.OutcomeResolvedNoChanges)
	s.Record(resolver.OutcomeSkipped)
	s.Record(resolver.OutcomeAbandoned)

	assert.Equal(t, int64(2), s.Resolved.Load())
	assert.Equal(t, int64(1), s.ResolvedNoChanges.Load())
	assert.Equal(t, int64(1), s.Skipped.Load())
	assert.Equal(t, int64(1), s.Abandoned.Load())
}

func TestHealthzEndpoint(t *testing.T) {
	srv := NewServer(0, &Stats{})

	rec := httptest.NewRecorder()
	srv.handleHealthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestStatsEndpoint(t *testing.T) {
	var s Stats
	s.Record(resolver.OutcomeResolved)
	s.Record(resolver.OutcomeSkipped)
	srv := NewServer(0, &s)

	rec := httptest.NewRecorder()
	srv.handleStats(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["resolved"])
	assert.Equal(t, float64(1), body["skipped"])
	assert.Equal(t, float64(0), body["abandoned"])
}
