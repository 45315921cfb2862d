package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// maxRegionHits caps one lookup; overlapping bboxes at a point are few.
const maxRegionHits = 100

// ElasticRegionIndex finds regions through an Elasticsearch index whose
// documents mirror the regions table (snake_case fields, numeric bbox).
type ElasticRegionIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticRegionIndex(client *elasticsearch.Client, index string) *ElasticRegionIndex {
	return &ElasticRegionIndex{client: client, index: index}
}

type regionDocument struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Code           string  `json:"code"`
	Level          int     `json:"level"`
	MinLat         float64 `json:"min_lat"`
	MaxLat         float64 `json:"max_lat"`
	MinLon         float64 `json:"min_lon"`
	MaxLon         float64 `json:"max_lon"`
	ParentRegionID string  `json:"parent_region_id"`
	IsActive       bool    `json:"is_active"`
}

func (d regionDocument) toRegion() Region {
	r := Region{
		ID: d.ID, Name: d.Name, Code: d.Code, Level: d.Level,
		MinLat: d.MinLat, MaxLat: d.MaxLat, MinLon: d.MinLon, MaxLon: d.MaxLon,
		IsActive: d.IsActive,
	}
	if d.ParentRegionID != "" {
		p := d.ParentRegionID
		r.ParentRegionID = &p
	}
	return r
}

// buildContainmentQuery returns the bool/filter query selecting active
// regions whose bbox contains the point.
func buildContainmentQuery(lat, lon float64) map[string]interface{} {
	return map[string]interface{}{
		"size": maxRegionHits,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"is_active": true}},
					map[string]interface{}{"range": map[string]interface{}{"min_lat": map[string]interface{}{"lte": lat}}},
					map[string]interface{}{"range": map[string]interface{}{"max_lat": map[string]interface{}{"gte": lat}}},
					map[string]interface{}{"range": map[string]interface{}{"min_lon": map[string]interface{}{"lte": lon}}},
					map[string]interface{}{"range": map[string]interface{}{"max_lon": map[string]interface{}{"gte": lon}}},
				},
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"level": map[string]interface{}{"order": "desc"}},
		},
	}
}

func (e *ElasticRegionIndex) FindRegionsContaining(ctx context.Context, lat, lon float64) ([]Region, error) {
	body, err := json.Marshal(buildContainmentQuery(lat, lon))
	if err != nil {
		return nil, err
	}

	req := esapi.SearchRequest{
		Index: []string{e.index},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return nil, fmt.Errorf("region search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("region search failed: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source regionDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode region search: %w", err)
	}

	out := make([]Region, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source.toRegion())
	}
	return out, nil
}
