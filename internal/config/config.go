package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Backend    BackendConfig    `yaml:"backend"`
	Session    SessionConfig    `yaml:"session"`
	Audit      AuditConfig      `yaml:"audit"`
	Logging    LoggingConfig    `yaml:"logging"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
}

type ServerConfig struct {
	Host  string      `yaml:"host"`
	Port  int         `yaml:"port"`
	HTTPS HTTPSConfig `yaml:"https"`
}

type HTTPSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// BackendConfig points the console at the gateway's REST API.
type BackendConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// SessionConfig controls where the operator session is persisted.
// When Secret is non-empty the session file is sealed at rest.
type SessionConfig struct {
	Path   string `yaml:"path"`
	Secret string `yaml:"secret"`
}

type AuditConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type PrometheusConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

func (c *LoggingConfig) IsDebug() bool {
	return c.Level == "debug"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return createDefaultConfig(path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)

	cfg, err = ensureSecrets(cfg, path)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8091
	}
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = "http://localhost:8080"
	}
	if cfg.Backend.TimeoutSeconds == 0 {
		cfg.Backend.TimeoutSeconds = 30
	}
	if cfg.Session.Path == "" {
		cfg.Session.Path = "./data/session.json"
	}
	if cfg.Audit.Path == "" {
		cfg.Audit.Path = "./data/console.db"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func createDefaultConfig(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8091,
		},
		Backend: BackendConfig{
			BaseURL:        "http://localhost:8080",
			TimeoutSeconds: 30,
		},
		Session: SessionConfig{
			Path:   "./data/session.json",
			Secret: generateRandomString(32),
		},
		Audit: AuditConfig{
			Path: "./data/console.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}

	if err := saveConfig(cfg, path); err != nil {
		return nil, err
	}

	fmt.Printf("Created default config at %s\n", path)
	return cfg, nil
}

func ensureSecrets(cfg Config, path string) (Config, error) {
	changed := false

	if cfg.Session.Secret == "" {
		cfg.Session.Secret = generateRandomString(32)
		changed = true
	}

	if cfg.Prometheus.Enabled && cfg.Prometheus.Username == "" {
		cfg.Prometheus.Username = "prometheus"
		changed = true
	}

	if cfg.Prometheus.Enabled && cfg.Prometheus.Password == "" {
		cfg.Prometheus.Password = generateRandomString(20)
		changed = true
		fmt.Printf("\n===========================================\n")
		fmt.Printf("  Prometheus credentials generated!\n")
		fmt.Printf("  Username: %s\n", cfg.Prometheus.Username)
		fmt.Printf("  Password: %s\n", cfg.Prometheus.Password)
		fmt.Printf("===========================================\n\n")
	}

	if changed {
		if err := saveConfig(&cfg, path); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

func saveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// SaveConfig exports saveConfig for external use
func SaveConfig(cfg *Config, path string) error {
	return saveConfig(cfg, path)
}

func generateRandomString(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	return hex.EncodeToString(b)[:length]
}
