package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"hello-web/internal/logger"
	"hello-web/internal/server"

	"github.com/google/go-cmp/cmp"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	return path
}

func TestLoadFileYAML(t *testing.T) {
	path := writeTemp(t, "config.yaml", `
server:
  address: 0.0.0.0:8080
  threads: 8
  shutdown_password: s3cret
  doc_root: /srv/www
  max_connections: 64
  sleep_delay: 2s
  read_timeout: 3s
metrics:
  address: 127.0.0.1:9100
log:
  level: debug
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	want := &FileConfig{
		Server: ServerConfig{
			Address:          "0.0.0.0:8080",
			Threads:          8,
			ShutdownPassword: "s3cret",
			DocRoot:          "/srv/www",
			MaxConnections:   64,
			SleepDelay:       "2s",
			ReadTimeout:      "3s",
		},
		Metrics: MetricsConfig{Address: "127.0.0.1:9100"},
		Log:     LogConfig{Level: "debug"},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("unexpected config (-want +got):\n%s", diff)
	}
}

func TestLoadFileJSON(t *testing.T) {
	path := writeTemp(t, "config.json", `{
  "server": {
    "address": "127.0.0.1:9000",
    "threads": 2
  },
  "log": {
    "level": "warn"
  }
}`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Address != "127.0.0.1:9000" {
		t.Errorf("expected address '127.0.0.1:9000', got '%s'", cfg.Server.Address)
	}
	if cfg.Server.Threads != 2 {
		t.Errorf("expected threads 2, got %d", cfg.Server.Threads)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("expected level 'warn', got '%s'", cfg.Log.Level)
	}
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := LoadFile("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadFileUnsupportedFormat(t *testing.T) {
	path := writeTemp(t, "config.txt", "test")

	_, err := LoadFile(path)
	if err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestLoadFileInvalidYAML(t *testing.T) {
	path := writeTemp(t, "config.yaml", "server: [unclosed")

	_, err := LoadFile(path)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestToServerConfigDefaults(t *testing.T) {
	cfg := &FileConfig{}

	serverCfg, err := cfg.ToServerConfig()
	if err != nil {
		t.Fatalf("failed to convert config: %v", err)
	}

	if diff := cmp.Diff(server.DefaultConfig(), serverCfg); diff != "" {
		t.Errorf("empty file should yield defaults (-want +got):\n%s", diff)
	}
}

func TestToServerConfig(t *testing.T) {
	cfg := &FileConfig{
		Server: ServerConfig{
			Address:          ":8080",
			Threads:          16,
			ShutdownPassword: "hunter2",
			DocRoot:          "./front",
			MaxConnections:   32,
			SleepDelay:       "100ms",
			ReadTimeout:      "1s",
		},
	}

	serverCfg, err := cfg.ToServerConfig()
	if err != nil {
		t.Fatalf("failed to convert config: %v", err)
	}

	want := server.Config{
		Address:          ":8080",
		Threads:          16,
		ShutdownPassword: "hunter2",
		DocRoot:          "./front",
		MaxConnections:   32,
		SleepDelay:       100 * time.Millisecond,
		ReadTimeout:      time.Second,
	}
	if diff := cmp.Diff(want, serverCfg); diff != "" {
		t.Errorf("unexpected server config (-want +got):\n%s", diff)
	}
}

func TestToServerConfigDisableShutdown(t *testing.T) {
	path := writeTemp(t, "config.yaml", `
server:
  disable_shutdown: true
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	serverCfg, err := cfg.ToServerConfig()
	if err != nil {
		t.Fatalf("failed to convert config: %v", err)
	}
	if serverCfg.ShutdownPassword != "" {
		t.Errorf("expected empty shutdown password, got '%s'", serverCfg.ShutdownPassword)
	}
}

func TestToServerConfigInvalidDuration(t *testing.T) {
	tests := []ServerConfig{
		{SleepDelay: "invalid"},
		{ReadTimeout: "forever"},
		{SleepDelay: "-1s"},
	}

	for _, sc := range tests {
		cfg := &FileConfig{Server: sc}
		if _, err := cfg.ToServerConfig(); err == nil {
			t.Errorf("expected error for %+v", sc)
		}
	}
}

func TestLogLevel(t *testing.T) {
	cfg := &FileConfig{Log: LogConfig{Level: "error"}}

	level, err := cfg.LogLevel()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if level != logger.LevelError {
		t.Errorf("expected ERROR, got %s", level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		config   FileConfig
		hasError bool
	}{
		{
			name:     "valid config",
			config:   FileConfig{},
			hasError: false,
		},
		{
			name: "negative threads",
			config: FileConfig{
				Server: ServerConfig{Threads: -1},
			},
			hasError: true,
		},
		{
			name: "password with shutdown disabled",
			config: FileConfig{
				Server: ServerConfig{ShutdownPassword: "pw", DisableShutdown: true},
			},
			hasError: true,
		},
		{
			name: "negative max connections",
			config: FileConfig{
				Server: ServerConfig{MaxConnections: -5},
			},
			hasError: true,
		},
		{
			name: "invalid sleep delay",
			config: FileConfig{
				Server: ServerConfig{SleepDelay: "soon"},
			},
			hasError: true,
		},
		{
			name: "negative read timeout",
			config: FileConfig{
				Server: ServerConfig{ReadTimeout: "-2s"},
			},
			hasError: true,
		},
		{
			name: "metrics on server address",
			config: FileConfig{
				Server:  ServerConfig{Address: ":8080"},
				Metrics: MetricsConfig{Address: ":8080"},
			},
			hasError: true,
		},
		{
			name: "unknown log level",
			config: FileConfig{
				Log: LogConfig{Level: "chatty"},
			},
			hasError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.hasError && err == nil {
				t.Error("expected validation error")
			}
			if !tt.hasError && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}
