package catalog

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"agri-advisor/internal/common/http"
	"agri-advisor/internal/common/logger"
	"agri-advisor/internal/common/metrics"
)

const healthKeyPrefix = "health:"

// HealthAlerter is notified when a server becomes unhealthy.
type HealthAlerter interface {
	PublishHealthAlert(ctx context.Context, slug string, previous, current HealthStatus) error
}

// ServerSource supplies the servers a monitor round should probe.
type ServerSource func(ctx context.Context) ([]ToolServer, error)

type HealthMonitorConfig struct {
	ProbeTimeout time.Duration
	CacheTTL     time.Duration
}

// HealthMonitor probes tool servers out of band and records the result in the
// store and the cache. It is never consulted on the request path.
type HealthMonitor struct {
	store   Store
	cache   redis.Cmdable
	alerter HealthAlerter
	client  *http.Client
	config  HealthMonitorConfig
	logger  logger.Logger

	mu   sync.Mutex
	last map[string]HealthStatus
}

// NewHealthMonitor builds a monitor. cache and alerter may be nil.
func NewHealthMonitor(store Store, cache redis.Cmdable, alerter HealthAlerter, client *http.Client, cfg HealthMonitorConfig, log logger.Logger) *HealthMonitor {
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	return &HealthMonitor{
		store:   store,
		cache:   cache,
		alerter: alerter,
		client:  client,
		config:  cfg,
		logger:  log.With(map[string]interface{}{"component": "health-monitor"}),
		last:    make(map[string]HealthStatus),
	}
}

// CheckOnce probes every server concurrently and returns the observed
// statuses keyed by slug.
func (m *HealthMonitor) CheckOnce(ctx context.Context, servers []ToolServer) map[string]HealthStatus {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[string]HealthStatus, len(servers))
	)

	for _, s := range servers {
		if s.Endpoint == "" {
			continue
		}
		wg.Add(1)
		go func(s ToolServer) {
			defer wg.Done()
			status := m.probe(ctx, s.Endpoint)
			m.record(ctx, s.Slug, status)

			mu.Lock()
			results[s.Slug] = status
			mu.Unlock()
		}(s)
	}
	wg.Wait()
	return results
}

// Run probes on every tick until ctx is cancelled.
func (m *HealthMonitor) Run(ctx context.Context, interval time.Duration, source ServerSource) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.round(ctx, source)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.round(ctx, source)
		}
	}
}

func (m *HealthMonitor) round(ctx context.Context, source ServerSource) {
	servers, err := source(ctx)
	if err != nil {
		m.logger.Warn("health round skipped", map[string]interface{}{"error": err.Error()})
		return
	}
	statuses := m.CheckOnce(ctx, servers)
	m.logger.Debug("health round complete", map[string]interface{}{"servers": len(statuses)})
}

func (m *HealthMonitor) probe(ctx context.Context, endpoint string) HealthStatus {
	probeCtx, cancel := context.WithTimeout(ctx, m.config.ProbeTimeout)
	defer cancel()

	code, err := m.client.Get(probeCtx, strings.TrimRight(endpoint, "/")+"/health")
	switch {
	case err != nil:
		return HealthUnhealthy
	case code >= 200 && code < 300:
		return HealthHealthy
	case code >= 500:
		return HealthUnhealthy
	default:
		return HealthDegraded
	}
}

func (m *HealthMonitor) record(ctx context.Context, slug string, status HealthStatus) {
	now := time.Now().UTC()
	previous := m.previous(ctx, slug)

	m.mu.Lock()
	m.last[slug] = status
	m.mu.Unlock()

	if status == HealthHealthy {
		metrics.ServerHealth.WithLabelValues(slug).Set(1)
	} else {
		metrics.ServerHealth.WithLabelValues(slug).Set(0)
	}

	if err := m.store.UpdateHealthStatus(ctx, slug, status, now); err != nil {
		m.logger.Warn("failed to persist health status", map[string]interface{}{
			"slug":  slug,
			"error": err.Error(),
		})
	}

	if m.cache != nil {
		if err := m.cache.Set(ctx, healthKeyPrefix+slug, string(status), m.config.CacheTTL).Err(); err != nil {
			m.logger.Warn("failed to cache health status", map[string]interface{}{
				"slug":  slug,
				"error": err.Error(),
			})
		}
	}

	if status == HealthUnhealthy && previous != HealthUnhealthy && m.alerter != nil {
		if err := m.alerter.PublishHealthAlert(ctx, slug, previous, status); err != nil {
			m.logger.Warn("failed to publish health alert", map[string]interface{}{
				"slug":  slug,
				"error": err.Error(),
			})
		}
	}

	if previous != status {
		m.logger.Info("tool server health changed", map[string]interface{}{
			"slug":     slug,
			"previous": string(previous),
			"current":  string(status),
		})
	}
}

// previous returns the last status seen by this process, falling back to
// the cached value written by another replica.
func (m *HealthMonitor) previous(ctx context.Context, slug string) HealthStatus {
	m.mu.Lock()
	prev, ok := m.last[slug]
	m.mu.Unlock()
	if ok {
		return prev
	}

	if m.cache != nil {
		if v, err := m.cache.Get(ctx, healthKeyPrefix+slug).Result(); err == nil && v != "" {
			prev = HealthStatus(v)
		}
	}
	if prev == "" {
		prev = HealthUnknown
	}
	return prev
}

// Status returns the cached status for slug, or HealthUnknown.
func (m *HealthMonitor) Status(ctx context.Context, slug string) HealthStatus {
	m.mu.Lock()
	s, ok := m.last[slug]
	m.mu.Unlock()
	if ok {
		return s
	}
	if m.cache != nil {
		if v, err := m.cache.Get(ctx, healthKeyPrefix+slug).Result(); err == nil && v != "" {
			return HealthStatus(v)
		}
	}
	return HealthUnknown
}
