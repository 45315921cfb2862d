package orchestratequery

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"agri-advisor/internal/catalog"
	apperrors "agri-advisor/internal/common/errors"
	"agri-advisor/internal/common/logger"
	"agri-advisor/internal/intent"
	"agri-advisor/internal/orchestrator"
	"agri-advisor/internal/toolinvoker"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

type stubLocator struct {
	servers  catalog.LocationServers
	err      error
	lat, lon *float64
}

func (s *stubLocator) GetActiveServersForLocation(_ context.Context, lat, lon *float64) (catalog.LocationServers, error) {
	s.lat, s.lon = lat, lon
	return s.servers, s.err
}

type okTools struct{}

func (okTools) CallTool(_ context.Context, _, tool string, _ map[string]interface{}, _ map[string]string, _ time.Duration) toolinvoker.Result {
	return toolinvoker.Result{Payload: map[string]interface{}{"tool": tool}}
}

func newHandler(t *testing.T, locator ServerLocator) *Handler {
	log := createTestLogger(t)
	orch := orchestrator.New(intent.NewDetector(nil, log), okTools{}, nil, orchestrator.Config{}, nil, log)
	return NewHandler(LoadConfig(), locator, orch, log)
}

// ==========================
// Input Validation Tests
// ==========================

func TestParseInput(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		wantErr   bool
		check     func(t *testing.T, in *Input)
	}{
		{
			name:      "full input",
			variables: `{"requestId":"r1","message":"Mvua itanyesha?","language":"sw","latitude":-0.3,"longitude":36.1}`,
			check: func(t *testing.T, in *Input) {
				assert.Equal(t, "r1", in.RequestID)
				assert.Equal(t, "sw", in.Language)
				require.NotNil(t, in.Latitude)
				assert.Equal(t, -0.3, *in.Latitude)
			},
		},
		{
			name:      "extra process variables are ignored",
			variables: `{"message":"soil?","farmerId":"f-9"}`,
			check: func(t *testing.T, in *Input) {
				assert.Nil(t, in.Latitude)
			},
		},
		{
			name:      "null coordinates",
			variables: `{"message":"soil?","latitude":null,"longitude":null}`,
			check: func(t *testing.T, in *Input) {
				assert.Nil(t, in.Latitude)
				assert.Nil(t, in.Longitude)
			},
		},
		{
			name:      "half a coordinate pair is dropped",
			variables: `{"message":"soil?","latitude":-0.3}`,
			check: func(t *testing.T, in *Input) {
				assert.Nil(t, in.Latitude)
				assert.Nil(t, in.Longitude)
			},
		},
		{name: "missing message", variables: `{"language":"en"}`, wantErr: true},
		{name: "empty message", variables: `{"message":""}`, wantErr: true},
		{name: "latitude out of range", variables: `{"message":"hi","latitude":91,"longitude":0}`, wantErr: true},
		{name: "coordinates as strings", variables: `{"message":"hi","latitude":"1","longitude":"2"}`, wantErr: true},
		{name: "not json", variables: `{"message":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := ParseInput(tt.variables)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
				assert.Equal(t, "INVALID_INPUT", apperrors.ConvertToBPMNError(apperrors.AsStandard(err)).Code)
				return
			}
			require.NoError(t, err)
			tt.check(t, in)
		})
	}
}

// ==========================
// Execution Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	lat, lon := -0.3, 36.1
	locator := &stubLocator{servers: catalog.LocationServers{
		Global: []catalog.ToolServer{{Slug: "accuweather", Endpoint: "http://weather"}},
		DetectedRegions: []catalog.Region{
			{ID: "ke", Name: "Kenya", Code: "KE", Level: 1},
		},
	}}
	h := newHandler(t, locator)

	out := h.Execute(context.Background(), &Input{
		RequestID: "req-1",
		Message:   "Will it rain tomorrow?",
		Latitude:  &lat,
		Longitude: &lon,
	})

	assert.Equal(t, &lat, locator.lat)
	assert.Equal(t, "req-1", out.RequestID)
	assert.Equal(t, "kenya", out.Country)
	assert.Contains(t, out.Results, catalog.CategoryWeather)
	assert.Len(t, out.DetectedRegions, 1)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	var vars map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &vars))
	for _, key := range []string{"requestId", "country", "results", "detectedCategories", "intentSource", "fallbackContexts", "detectedRegions"} {
		assert.Contains(t, vars, key)
	}
}

func TestHandler_Execute_CatalogFailureDegrades(t *testing.T) {
	h := newHandler(t, &stubLocator{err: apperrors.NewCatalogQueryFailedError("global_servers", errors.New("db down"))})

	out := h.Execute(context.Background(), &Input{Message: "What fertilizer for maize?"})

	assert.Equal(t, orchestrator.GlobalLabel, out.Country)
	assert.Empty(t, out.Results)
	require.Contains(t, out.FallbackContexts, catalog.CategoryFertilizer)
	assert.Equal(t, orchestrator.ReasonNoCoordinates, out.FallbackContexts[catalog.CategoryFertilizer].Reason)
	assert.NotNil(t, out.DetectedRegions)
}
