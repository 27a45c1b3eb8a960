package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hello-web/internal/logger"
	"hello-web/internal/server"

	"gopkg.in/yaml.v3"
)

// FileConfig は設定ファイルの構造
type FileConfig struct {
	Server  ServerConfig  `yaml:"server" json:"server"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	Log     LogConfig     `yaml:"log" json:"log"`
}

// ServerConfig はサーバー設定
type ServerConfig struct {
	Address          string `yaml:"address" json:"address"`
	Threads          int    `yaml:"threads" json:"threads"`
	ShutdownPassword string `yaml:"shutdown_password" json:"shutdown_password"`
	DisableShutdown  bool   `yaml:"disable_shutdown" json:"disable_shutdown"`
	DocRoot          string `yaml:"doc_root" json:"doc_root"`
	MaxConnections   int    `yaml:"max_connections" json:"max_connections"`
	SleepDelay       string `yaml:"sleep_delay" json:"sleep_delay"`
	ReadTimeout      string `yaml:"read_timeout" json:"read_timeout"`
}

// MetricsConfig はメトリクス公開の設定（空で無効）
type MetricsConfig struct {
	Address string `yaml:"address" json:"address"`
}

// LogConfig はログ設定
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
}

// LoadFile は設定ファイルを読み込む
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config FileConfig
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}

	return &config, nil
}

// ToServerConfig は FileConfig を server.Config に変換する
func (f *FileConfig) ToServerConfig() (server.Config, error) {
	sc := f.Server

	// デフォルト値の設定
	config := server.DefaultConfig()

	if sc.Address != "" {
		config.Address = sc.Address
	}
	if sc.Threads > 0 {
		config.Threads = sc.Threads
	}
	if sc.ShutdownPassword != "" {
		config.ShutdownPassword = sc.ShutdownPassword
	}
	// 空のパスワードで POST /shutdown を無効にする
	if sc.DisableShutdown {
		config.ShutdownPassword = ""
	}
	if sc.DocRoot != "" {
		config.DocRoot = sc.DocRoot
	}
	if sc.MaxConnections > 0 {
		config.MaxConnections = sc.MaxConnections
	}
	if sc.SleepDelay != "" {
		d, err := parseDuration("sleep_delay", sc.SleepDelay)
		if err != nil {
			return config, err
		}
		config.SleepDelay = d
	}
	if sc.ReadTimeout != "" {
		d, err := parseDuration("read_timeout", sc.ReadTimeout)
		if err != nil {
			return config, err
		}
		config.ReadTimeout = d
	}

	return config, nil
}

// LogLevel は設定されたログレベルを返す
func (f *FileConfig) LogLevel() (logger.Level, error) {
	return logger.ParseLevel(f.Log.Level)
}

// parseDuration は負でない期間をパースする
func parseDuration(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must be non-negative", field)
	}
	return d, nil
}

// Validate は設定を検証する
func (f *FileConfig) Validate() error {
	sc := f.Server

	if sc.Threads < 0 {
		return fmt.Errorf("server.threads must be non-negative")
	}

	if sc.DisableShutdown && sc.ShutdownPassword != "" {
		return fmt.Errorf("server.shutdown_password cannot be set when server.disable_shutdown is true")
	}

	if sc.MaxConnections < 0 {
		return fmt.Errorf("server.max_connections must be non-negative")
	}

	if sc.SleepDelay != "" {
		if _, err := parseDuration("server.sleep_delay", sc.SleepDelay); err != nil {
			return err
		}
	}

	if sc.ReadTimeout != "" {
		if _, err := parseDuration("server.read_timeout", sc.ReadTimeout); err != nil {
			return err
		}
	}

	if f.Metrics.Address != "" && f.Metrics.Address == sc.Address {
		return fmt.Errorf("metrics.address must differ from server.address")
	}

	if _, err := f.LogLevel(); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	return nil
}
