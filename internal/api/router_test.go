package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agri-advisor/internal/catalog"
	"agri-advisor/internal/common/logger"
)

type fixedStatus map[string]catalog.HealthStatus

func (f fixedStatus) Status(_ context.Context, slug string) catalog.HealthStatus {
	if s, ok := f[slug]; ok {
		return s
	}
	return catalog.HealthUnknown
}

func serve(t *testing.T, deps Deps, path string) *httptest.ResponseRecorder {
	deps.Logger = logger.NewTestLogger(t)
	rec := httptest.NewRecorder()
	NewRouter(deps).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := serve(t, Deps{}, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReady(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name       string
		checks     map[string]Check
		wantStatus int
		wantReady  bool
	}{
		{"no checks", nil, http.StatusOK, true},
		{"all ok", map[string]Check{"postgres": ok, "redis": ok}, http.StatusOK, true},
		{"one down", map[string]Check{"postgres": ok, "redis": down}, http.StatusServiceUnavailable, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, Deps{Checks: tt.checks}, "/ready")
			assert.Equal(t, tt.wantStatus, rec.Code)

			var body struct {
				Ready  bool              `json:"ready"`
				Checks map[string]string `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantReady, body.Ready)
			if !tt.wantReady {
				assert.Equal(t, "connection refused", body.Checks["redis"])
			}
		})
	}
}

func TestServerHealth(t *testing.T) {
	deps := Deps{Servers: fixedStatus{"isda-soil": catalog.HealthDegraded}}

	rec := serve(t, deps, "/servers/isda-soil/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"slug":"isda-soil","status":"degraded"}`, rec.Body.String())

	rec = serve(t, deps, "/servers/unknown-server/health")
	assert.JSONEq(t, `{"slug":"unknown-server","status":"unknown"}`, rec.Body.String())

	rec = serve(t, Deps{}, "/servers/isda-soil/health")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetrics(t *testing.T) {
	rec := serve(t, Deps{}, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
