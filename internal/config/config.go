package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/otc-triage-server/internal/domain"
)

// Manager loads and validates runtime configuration using Viper.
type Manager struct {
	config *domain.Config
}

// NewManager creates a new configuration manager.
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from file, environment and defaults.
func (m *Manager) loadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/otc-triage-server/")

	viper.SetEnvPrefix("OTC_TRIAGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	m.setDefaults()

	// Config file is optional; defaults and environment variables suffice.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

// setDefaults sets default configuration values.
func (m *Manager) setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// Empty path selects the embedded catalogue.
	viper.SetDefault("dataset.path", "")

	viper.SetDefault("session.ttl", "30m")
	viper.SetDefault("session.max_sessions", 10000)

	viper.SetDefault("cache.evaluate_size", 256)

	viper.SetDefault("paraphrase.api_key", "")
	viper.SetDefault("paraphrase.model", "gpt-4o-mini")
	viper.SetDefault("paraphrase.timeout", "10s")
	viper.SetDefault("paraphrase.max_tokens", 300)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

// GetConfig returns the complete configuration.
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// Reload reloads the configuration.
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration.
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Session.MaxSessions <= 0 {
		return fmt.Errorf("invalid session.max_sessions: %d", config.Session.MaxSessions)
	}
	if config.Session.TTL <= 0 {
		return fmt.Errorf("invalid session.ttl: %s", config.Session.TTL)
	}

	if config.Cache.EvaluateSize <= 0 {
		return fmt.Errorf("invalid cache.evaluate_size: %d", config.Cache.EvaluateSize)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}
