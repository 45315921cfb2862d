package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newElasticTestClient(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client
}

func TestBuildContainmentQuery(t *testing.T) {
	q := buildContainmentQuery(-0.3, 36.1)

	raw, err := json.Marshal(q)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	filters := decoded["query"].(map[string]interface{})["bool"].(map[string]interface{})["filter"].([]interface{})
	assert.Len(t, filters, 5)
	assert.Contains(t, string(raw), `"min_lat":{"lte":-0.3}`)
	assert.Contains(t, string(raw), `"max_lon":{"gte":36.1}`)
}

func TestElasticRegionIndex_FindRegionsContaining(t *testing.T) {
	client := newElasticTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/regions/_search", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"is_active":true`)

		_, _ = w.Write([]byte(`{
			"hits": {"hits": [
				{"_source": {"id": "ke-nakuru", "name": "Nakuru", "level": 2,
					"min_lat": -1.0, "max_lat": 0.5, "min_lon": 35.5, "max_lon": 36.6,
					"parent_region_id": "ke", "is_active": true}},
				{"_source": {"id": "global", "name": "Global", "level": 0,
					"min_lat": -90, "max_lat": 90, "min_lon": -180, "max_lon": 180,
					"is_active": true}}
			]}
		}`))
	})

	index := NewElasticRegionIndex(client, "regions")
	regions, err := index.FindRegionsContaining(context.Background(), -0.3, 36.1)
	require.NoError(t, err)
	require.Len(t, regions, 2)

	require.NotNil(t, regions[0].ParentRegionID)
	assert.Equal(t, "ke", *regions[0].ParentRegionID)
	assert.Nil(t, regions[1].ParentRegionID)
}

func TestElasticRegionIndex_ErrorStatus(t *testing.T) {
	client := newElasticTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"index_not_found_exception"}}`))
	})

	_, err := NewElasticRegionIndex(client, "missing").FindRegionsContaining(context.Background(), 0, 0)
	assert.Error(t, err)
}

func TestIndexedStore_RoutesPointLookups(t *testing.T) {
	client := newElasticTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hits":{"hits":[{"_source":{"id":"ke","name":"Kenya","level":1,
			"min_lat":-4.7,"max_lat":5,"min_lon":33.9,"max_lon":41.9,"is_active":true}}]}}`))
	})

	store := IndexedStore{Store: newKenyaStore(), Index: NewElasticRegionIndex(client, "regions")}
	resolver := NewRegionResolver(store, nopLogger())

	regions, err := resolver.FindRegionsForPoint(context.Background(), -0.3, 36.1)
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, "ke", regions[0].ID)

	hierarchy := HierarchyIDs(resolver.BuildHierarchy(context.Background(), []string{"ke"}))
	assert.Equal(t, []string{"global", "ke"}, hierarchy)
}
