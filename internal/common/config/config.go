// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Remote   RemoteConfig   `mapstructure:"remote"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port            int `mapstructure:"port"`
	ReadTimeout     int `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int `mapstructure:"shutdown_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
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

// --- Engine Configuration ---

// Engine modes.
const (
	EngineModeLocal  = "local"
	EngineModeRemote = "remote"
)

// EngineConfig holds the tunables of the conversational query engine.
type EngineConfig struct {
	// Mode selects how answers are produced: "remote" tries the generation
	// endpoint first and falls back locally, "local" never leaves the process.
	// Read once at startup.
	Mode string `mapstructure:"mode"`

	ResponseCacheTTL     int `mapstructure:"response_cache_ttl"`     // milliseconds
	ResponseCacheMaxSize int `mapstructure:"response_cache_max_size"`
	ContextCacheTTL      int `mapstructure:"context_cache_ttl"` // milliseconds
	ContextCacheMaxSize  int `mapstructure:"context_cache_max_size"`

	MemoryMaxMessages int `mapstructure:"memory_max_messages"`
	MemoryMaxUsers    int `mapstructure:"memory_max_users"`
	MemoryIdleTimeout int `mapstructure:"memory_idle_timeout"` // milliseconds

	AggregationTimeout int `mapstructure:"aggregation_timeout"` // milliseconds
}

// RemoteConfig holds settings for the remote generation endpoint.
type RemoteConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
	MaxRetries int    `mapstructure:"max_retries"`
	RetryDelay int    `mapstructure:"retry_delay"` // milliseconds, grows linearly per attempt
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
