package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Schema (managed by the admin service that owns the catalog):
//
//	regions(id, name, code, level, min_lat, max_lat, min_lon, max_lon, parent_region_id, is_active)
//	tool_servers(slug, name, category, tools text[], capabilities text[], is_global,
//	             is_active, is_deployed, endpoint_key, health_status, last_checked_at)
//	region_tool_mappings(region_id, server_slug, priority, is_active)
const (
	regionColumns = `id, name, code, level, min_lat, max_lat, min_lon, max_lon, parent_region_id, is_active`

	serverColumns = `s.slug, s.name, s.category, s.tools, s.capabilities, s.is_global, s.is_active,
	s.is_deployed, s.endpoint_key, s.health_status, s.last_checked_at`

	queryRegionsContaining = `SELECT ` + regionColumns + `
	FROM regions
	WHERE is_active = TRUE
	  AND $1 BETWEEN min_lat AND max_lat
	  AND $2 BETWEEN min_lon AND max_lon
	ORDER BY level DESC`

	queryRegionMappings = `SELECT m.region_id, r.name, m.priority, m.is_active, ` + serverColumns + `
	FROM region_tool_mappings m
	JOIN regions r ON r.id = m.region_id
	JOIN tool_servers s ON s.slug = m.server_slug
	WHERE m.is_active = TRUE AND m.region_id = ANY($1)
	ORDER BY m.priority ASC`

	queryGlobalServers = `SELECT ` + serverColumns + `
	FROM tool_servers s
	WHERE s.is_global = TRUE AND s.is_active = TRUE AND s.is_deployed = TRUE
	ORDER BY s.slug`

	queryActiveServers = `SELECT ` + serverColumns + `
	FROM tool_servers s
	WHERE s.is_active = TRUE AND s.is_deployed = TRUE
	ORDER BY s.slug`

	queryParentRegion = `SELECT p.id, p.name, p.code, p.level, p.min_lat, p.max_lat, p.min_lon, p.max_lon,
	p.parent_region_id, p.is_active
	FROM regions c
	JOIN regions p ON p.id = c.parent_region_id
	WHERE c.id = $1`

	updateHealthStatus = `UPDATE tool_servers SET health_status = $2, last_checked_at = $3 WHERE slug = $1`
)

// PostgresStore reads the catalog from Postgres.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRegion(row rowScanner) (Region, error) {
	var (
		r      Region
		parent sql.NullString
	)
	if err := row.Scan(&r.ID, &r.Name, &r.Code, &r.Level,
		&r.MinLat, &r.MaxLat, &r.MinLon, &r.MaxLon, &parent, &r.IsActive); err != nil {
		return Region{}, err
	}
	if parent.Valid && parent.String != "" {
		p := parent.String
		r.ParentRegionID = &p
	}
	return r, nil
}

// serverDest returns scan targets for serverColumns and a finish func that
// copies nullable columns into s.
func serverDest(s *ToolServer) ([]interface{}, func()) {
	var (
		category    string
		endpointKey sql.NullString
		health      sql.NullString
		checked     sql.NullTime
	)
	dest := []interface{}{
		&s.Slug, &s.Name, &category, pq.Array(&s.Tools), pq.Array(&s.Capabilities),
		&s.IsGlobal, &s.IsActive, &s.IsDeployed, &endpointKey, &health, &checked,
	}
	return dest, func() {
		s.Category = Category(category)
		s.EndpointKey = endpointKey.String
		s.HealthStatus = HealthUnknown
		if health.Valid && health.String != "" {
			s.HealthStatus = HealthStatus(health.String)
		}
		if checked.Valid {
			t := checked.Time
			s.LastCheckedAt = &t
		}
	}
}

func (p *PostgresStore) FindRegionsContaining(ctx context.Context, lat, lon float64) ([]Region, error) {
	rows, err := p.db.QueryContext(ctx, queryRegionsContaining, lat, lon)
	if err != nil {
		return nil, fmt.Errorf("query regions: %w", err)
	}
	defer rows.Close()

	var out []Region
	for rows.Next() {
		r, err := scanRegion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *PostgresStore) FindRegionMappings(ctx context.Context, regionIDs []string) ([]RegionToolMapping, error) {
	if len(regionIDs) == 0 {
		return nil, nil
	}

	rows, err := p.db.QueryContext(ctx, queryRegionMappings, pq.Array(regionIDs))
	if err != nil {
		return nil, fmt.Errorf("query region mappings: %w", err)
	}
	defer rows.Close()

	var out []RegionToolMapping
	for rows.Next() {
		var m RegionToolMapping
		dest, finish := serverDest(&m.Server)
		dest = append([]interface{}{&m.RegionID, &m.RegionName, &m.Priority, &m.IsActive}, dest...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan region mapping: %w", err)
		}
		finish()
		out = append(out, m)
	}
	return out, rows.Err()
}

func (p *PostgresStore) FindGlobalServers(ctx context.Context) ([]ToolServer, error) {
	rows, err := p.db.QueryContext(ctx, queryGlobalServers)
	if err != nil {
		return nil, fmt.Errorf("query global servers: %w", err)
	}
	return scanServers(rows)
}

func (p *PostgresStore) FindActiveServers(ctx context.Context) ([]ToolServer, error) {
	rows, err := p.db.QueryContext(ctx, queryActiveServers)
	if err != nil {
		return nil, fmt.Errorf("query active servers: %w", err)
	}
	return scanServers(rows)
}

func scanServers(rows *sql.Rows) ([]ToolServer, error) {
	defer rows.Close()

	var out []ToolServer
	for rows.Next() {
		var s ToolServer
		dest, finish := serverDest(&s)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan server: %w", err)
		}
		finish()
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *PostgresStore) FindParentRegion(ctx context.Context, regionID string) (*Region, error) {
	r, err := scanRegion(p.db.QueryRowContext(ctx, queryParentRegion, regionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query parent region: %w", err)
	}
	return &r, nil
}

func (p *PostgresStore) UpdateHealthStatus(ctx context.Context, slug string, status HealthStatus, checkedAt time.Time) error {
	if _, err := p.db.ExecContext(ctx, updateHealthStatus, slug, string(status), checkedAt); err != nil {
		return fmt.Errorf("update health status: %w", err)
	}
	return nil
}
