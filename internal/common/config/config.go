// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App         AppConfig               `mapstructure:"app"`
	Camunda     CamundaConfig           `mapstructure:"camunda"`
	Database    DatabaseConfig          `mapstructure:"database"`
	Workers     map[string]WorkerConfig `mapstructure:"workers"`
	APIs        APIsConfig              `mapstructure:"apis"`
	ToolServers ToolServersConfig       `mapstructure:"tool_servers"`
	Health      HealthConfig            `mapstructure:"health"`
	AWS         AWSConfig               `mapstructure:"aws"`
	Logging     LoggingConfig           `mapstructure:"logging"`
	Tracing     TracingConfig           `mapstructure:"tracing"`
	Server      ServerConfig            `mapstructure:"server"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// ElasticsearchConfig is optional. When RegionIndex is empty region lookups
// go straight to Postgres.
type ElasticsearchConfig struct {
	Addresses   []string `mapstructure:"addresses"`
	Username    string   `mapstructure:"username"`
	Password    string   `mapstructure:"password"`
	RegionIndex string   `mapstructure:"region_index"`
}

// Enabled reports whether the region index should be used.
func (e ElasticsearchConfig) Enabled() bool {
	return len(e.Addresses) > 0 && e.RegionIndex != ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// APIsConfig holds settings for external API integrations.
type APIsConfig struct {
	Classifier struct {
		BaseURL    string `mapstructure:"base_url"`
		Timeout    int    `mapstructure:"timeout"` // milliseconds
		MaxRetries int    `mapstructure:"max_retries"`
		CacheTTL   int    `mapstructure:"cache_ttl"` // milliseconds, 0 disables caching
	} `mapstructure:"classifier"`
}

// ToolServersConfig maps endpoint-resolution keys to base URLs and carries
// the per-call deadlines.
type ToolServersConfig struct {
	Endpoints    map[string]string `mapstructure:"endpoints"`
	Timeout      int               `mapstructure:"timeout"`       // milliseconds
	ImageTimeout int               `mapstructure:"image_timeout"` // milliseconds
	BindingsPath string            `mapstructure:"bindings_path"`
}

// HealthConfig drives the background tool-server probe.
type HealthConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	Interval     int  `mapstructure:"interval"`      // milliseconds
	ProbeTimeout int  `mapstructure:"probe_timeout"` // milliseconds
	CacheTTL     int  `mapstructure:"cache_ttl"`     // milliseconds
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
	SNS    struct {
		Enabled        bool   `mapstructure:"enabled"`
		HealthTopicARN string `mapstructure:"health_topic_arn"`
	} `mapstructure:"sns"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type TracingConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}
