// Package config loads and validates the relay service configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Session   SessionConfig   `yaml:"session"`
	Providers ProvidersConfig `yaml:"providers"`
	Store     StoreConfig     `yaml:"store"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig contains the client-facing HTTP/WebSocket server configuration.
type ServerConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// MetricsConfig contains the Prometheus metrics endpoint configuration.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// SessionConfig contains relay session tuning.
type SessionConfig struct {
	// IdleTimeout closes a session when neither side produces a frame for
	// this long. Zero disables the timeout.
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// ProvidersConfig groups the per-vendor upstream settings.
type ProvidersConfig struct {
	Gemini     GeminiConfig     `yaml:"gemini"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	ElevenLabs ElevenLabsConfig `yaml:"elevenlabs"`
}

// GeminiConfig configures the Gemini Live upstream.
type GeminiConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
}

// OpenAIConfig configures the OpenAI Realtime upstream.
type OpenAIConfig struct {
	Endpoint     string  `yaml:"endpoint"`
	Model        string  `yaml:"model"`
	Instructions string  `yaml:"instructions"`
	Temperature  float64 `yaml:"temperature"`
	APIKey       string  `yaml:"api_key"`
}

// ElevenLabsConfig configures the ElevenLabs Agents upstream.
type ElevenLabsConfig struct {
	WSEndpoint string `yaml:"ws_endpoint"`
	APIBase    string `yaml:"api_base"`
	AgentID    string `yaml:"agent_id"`
	APIKey     string `yaml:"api_key"`
}

// StoreConfig configures the transcript store collaborator.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults for fields the config file may omit.
const (
	DefaultGeminiEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1alpha.GenerativeService.BidiGenerateContent"
	DefaultGeminiModel    = "models/gemini-2.0-flash-exp"

	DefaultOpenAIEndpoint = "wss://api.openai.com/v1/realtime"
	DefaultOpenAIModel    = "gpt-4o-realtime-preview-2024-12-17"

	DefaultElevenLabsWSEndpoint = "wss://api.elevenlabs.io/v1/convai/conversation"
	DefaultElevenLabsAPIBase    = "https://api.elevenlabs.io/v1"
)

// Load reads and parses the configuration file, applies environment
// overrides for secrets, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	config.applyDefaults()
	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// applyDefaults fills in endpoint and model defaults.
func (c *Config) applyDefaults() {
	if c.Providers.Gemini.Endpoint == "" {
		c.Providers.Gemini.Endpoint = DefaultGeminiEndpoint
	}
	if c.Providers.Gemini.Model == "" {
		c.Providers.Gemini.Model = DefaultGeminiModel
	}
	if c.Providers.OpenAI.Endpoint == "" {
		c.Providers.OpenAI.Endpoint = DefaultOpenAIEndpoint
	}
	if c.Providers.OpenAI.Model == "" {
		c.Providers.OpenAI.Model = DefaultOpenAIModel
	}
	if c.Providers.OpenAI.Temperature == 0 {
		c.Providers.OpenAI.Temperature = 0.6
	}
	if c.Providers.ElevenLabs.WSEndpoint == "" {
		c.Providers.ElevenLabs.WSEndpoint = DefaultElevenLabsWSEndpoint
	}
	if c.Providers.ElevenLabs.APIBase == "" {
		c.Providers.ElevenLabs.APIBase = DefaultElevenLabsAPIBase
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// applyEnv lets environment variables supply secrets that should not live
// in the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Providers.Gemini.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Providers.OpenAI.APIKey = v
	}
	if v := os.Getenv("ELEVEN_LABS_API_KEY"); v != "" {
		c.Providers.ElevenLabs.APIKey = v
	}
	if v := os.Getenv("RELAY_STORE_DSN"); v != "" {
		c.Store.DSN = v
	}
}

// Validate performs validation of the configuration.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}

	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("session config: %w", err)
	}

	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration.
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}

	if s.Address == "" {
		return fmt.Errorf("address cannot be empty")
	}

	return nil
}

// Validate validates metrics configuration.
func (m *MetricsConfig) Validate() error {
	if m.Enabled {
		if m.Port < 1 || m.Port > 65535 {
			return fmt.Errorf("port must be between 1 and 65535, got %d", m.Port)
		}

		if m.Address == "" {
			return fmt.Errorf("address cannot be empty when metrics are enabled")
		}
	}

	return nil
}

// Validate validates session configuration.
func (s *SessionConfig) Validate() error {
	if s.IdleTimeout < 0 {
		return fmt.Errorf("idle_timeout cannot be negative, got %v", s.IdleTimeout)
	}

	return nil
}

// Validate validates store configuration.
func (s *StoreConfig) Validate() error {
	if s.Enabled && s.DSN == "" {
		return fmt.Errorf("dsn cannot be empty when the store is enabled")
	}

	return nil
}

// Validate validates logging configuration.
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}
