package webserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"NucleusBot/models"
	"NucleusBot/poller"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	status string
	stats  poller.Stats
}

func (f fakeProvider) Health() map[string]interface{} {
	return map[string]interface{}{"status": f.status}
}

func (f fakeProvider) Stats() poller.Stats {
	return f.stats
}

type fakeCommands struct {
	day time.Time
	err error
}

func (f *fakeCommands) CommandStats(_ context.Context, day time.Time) ([]models.CommandStatistics, error) {
	f.day = day
	if f.err != nil {
		return nil, f.err
	}
	return []models.CommandStatistics{{CommandName: "login", UsageCount: 4}}, nil
}

func TestHealthStatusCodes(t *testing.T) {
	tests := []struct {
		status string
		code   int
	}{
		{"healthy", http.StatusOK},
		{"degraded", http.StatusOK},
		{"unhealthy", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			r := NewRouter(fakeProvider{status: tt.status}, &fakeCommands{})
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.code, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.status, body["status"])
		})
	}
}

func TestStatsEndpoint(t *testing.T) {
	r := NewRouter(fakeProvider{status: "healthy", stats: poller.Stats{CyclesRun: 3, ItemsNotified: 7}}, &fakeCommands{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var stats poller.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.EqualValues(t, 3, stats.CyclesRun)
	assert.EqualValues(t, 7, stats.ItemsNotified)
}

func TestStatsRateLimited(t *testing.T) {
	r := NewRouter(fakeProvider{status: "healthy"}, &fakeCommands{})

	codes := map[int]int{}
	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
		codes[rec.Code]++
	}
	assert.GreaterOrEqual(t, codes[http.StatusOK], 5)
	assert.Greater(t, codes[http.StatusTooManyRequests], 0)
}

func TestDisabledWithoutAddr(t *testing.T) {
	assert.Nil(t, StartStatusServer("", fakeProvider{}, &fakeCommands{}))
}

func TestCommandsEndpoint(t *testing.T) {
	source := &fakeCommands{}
	r := NewRouter(fakeProvider{status: "healthy"}, source)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/commands?day=2024-03-01", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-03-01", source.day.Format("2006-01-02"))

	var stats []models.CommandStatistics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.Len(t, stats, 1)
	assert.Equal(t, 4, stats[0].UsageCount)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/commands?day=yesterday", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	source.err = errors.New("db down")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/commands", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
