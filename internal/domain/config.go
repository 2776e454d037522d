package domain

import "time"

// Config is the complete runtime configuration, loaded by internal/config.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Dataset    DatasetConfig    `mapstructure:"dataset"`
	Session    SessionConfig    `mapstructure:"session"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Paraphrase ParaphraseConfig `mapstructure:"paraphrase"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatasetConfig points at an external catalogue file. An empty path selects
// the embedded catalogue shipped with the binary.
type DatasetConfig struct {
	Path string `mapstructure:"path"`
}

// SessionConfig bounds the in-memory session registry.
type SessionConfig struct {
	TTL         time.Duration `mapstructure:"ttl"`
	MaxSessions int           `mapstructure:"max_sessions"`
}

// CacheConfig sizes the evaluate memo cache.
type CacheConfig struct {
	EvaluateSize int `mapstructure:"evaluate_size"`
}

// ParaphraseConfig configures the optional cosmetic-summary provider.
// An empty APIKey disables the feature.
type ParaphraseConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxTokens int           `mapstructure:"max_tokens"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
