package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
server:
  address: "127.0.0.1"
  port: 8080
`

func TestLoad(t *testing.T) {
	t.Run("minimal config applies defaults", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, minimalConfig))
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.Providers.Gemini.Endpoint != DefaultGeminiEndpoint {
			t.Errorf("gemini endpoint = %q", cfg.Providers.Gemini.Endpoint)
		}
		if cfg.Providers.Gemini.Model != DefaultGeminiModel {
			t.Errorf("gemini model = %q", cfg.Providers.Gemini.Model)
		}
		if cfg.Providers.OpenAI.Model != DefaultOpenAIModel {
			t.Errorf("openai model = %q", cfg.Providers.OpenAI.Model)
		}
		if cfg.Providers.OpenAI.Temperature != 0.6 {
			t.Errorf("openai temperature = %v, want 0.6", cfg.Providers.OpenAI.Temperature)
		}
		if cfg.Providers.ElevenLabs.APIBase != DefaultElevenLabsAPIBase {
			t.Errorf("elevenlabs api base = %q", cfg.Providers.ElevenLabs.APIBase)
		}
		if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
			t.Errorf("logging defaults = %s/%s", cfg.Logging.Level, cfg.Logging.Format)
		}
		if cfg.Session.IdleTimeout != 0 {
			t.Errorf("idle timeout = %v, want 0", cfg.Session.IdleTimeout)
		}
	})

	t.Run("explicit values override defaults", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, `
server:
  address: "0.0.0.0"
  port: 9000
session:
  idle_timeout: 5m
providers:
  openai:
    model: "gpt-4o-realtime-custom"
    temperature: 0.9
logging:
  level: debug
  format: json
`))
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.Server.Port != 9000 {
			t.Errorf("port = %d", cfg.Server.Port)
		}
		if cfg.Session.IdleTimeout != 5*time.Minute {
			t.Errorf("idle timeout = %v", cfg.Session.IdleTimeout)
		}
		if cfg.Providers.OpenAI.Model != "gpt-4o-realtime-custom" {
			t.Errorf("model = %q", cfg.Providers.OpenAI.Model)
		}
		if cfg.Providers.OpenAI.Temperature != 0.9 {
			t.Errorf("temperature = %v", cfg.Providers.OpenAI.Temperature)
		}
	})

	t.Run("environment supplies secrets", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "sk-from-env")
		t.Setenv("ELEVEN_LABS_API_KEY", "xi-from-env")

		cfg, err := Load(writeConfig(t, minimalConfig))
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.Providers.OpenAI.APIKey != "sk-from-env" {
			t.Errorf("openai key = %q", cfg.Providers.OpenAI.APIKey)
		}
		if cfg.Providers.ElevenLabs.APIKey != "xi-from-env" {
			t.Errorf("elevenlabs key = %q", cfg.Providers.ElevenLabs.APIKey)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		if _, err := Load(writeConfig(t, "server: [")); err == nil {
			t.Error("expected error for malformed yaml")
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "invalid port",
			content: `
server:
  address: "0.0.0.0"
  port: 70000
`,
			wantErr: "port",
		},
		{
			name: "empty address",
			content: `
server:
  address: ""
  port: 8080
`,
			wantErr: "address",
		},
		{
			name: "metrics enabled without port",
			content: minimalConfig + `
metrics:
  enabled: true
  address: "0.0.0.0"
  port: 0
`,
			wantErr: "metrics",
		},
		{
			name: "negative idle timeout",
			content: minimalConfig + `
session:
  idle_timeout: -1s
`,
			wantErr: "idle_timeout",
		},
		{
			name: "store enabled without dsn",
			content: minimalConfig + `
store:
  enabled: true
`,
			wantErr: "dsn",
		},
		{
			name: "bad log level",
			content: minimalConfig + `
logging:
  level: verbose
`,
			wantErr: "level",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("RELAY_STORE_DSN", "")
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
