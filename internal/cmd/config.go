package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the client configuration, loaded from YAML with environment
// overrides applied on top.
type Config struct {
	Server struct {
		BaseURL   string `yaml:"base_url"`
		SocketURL string `yaml:"socket_url"`
	} `yaml:"server"`
	NATS struct {
		Enabled       bool   `yaml:"enabled"`
		URL           string `yaml:"url"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"nats"`
	Overlay struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"overlay"`
	Session struct {
		// Role is one of "admin", "participant", "viewer".
		Role string `yaml:"role"`
		// AccessControlled selects the variant where panels are bound to
		// authenticated users.
		AccessControlled bool   `yaml:"access_controlled"`
		UserID           string `yaml:"user_id"`
		Username         string `yaml:"username"`
		Version          string `yaml:"version"`
	} `yaml:"session"`
	Prefs struct {
		Path string `yaml:"path"`
	} `yaml:"prefs"`
}

func defaultConfig() *Config {
	var cfg Config
	cfg.Server.BaseURL = "http://localhost:5000"
	cfg.Server.SocketURL = "ws://localhost:5000/socket"
	cfg.NATS.URL = "nats://localhost:4222"
	cfg.NATS.SubjectPrefix = "trackrating"
	cfg.Overlay.Addr = "127.0.0.1:8090"
	cfg.Session.Role = "viewer"
	cfg.Session.Version = "1"
	cfg.Prefs.Path = "trackrating_prefs.db"
	return &cfg
}

func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.Server.BaseURL = getEnv("SERVER_BASE_URL", cfg.Server.BaseURL)
	cfg.Server.SocketURL = getEnv("SERVER_SOCKET_URL", cfg.Server.SocketURL)
	cfg.NATS.Enabled = getEnvAsBool("NATS_ENABLED", cfg.NATS.Enabled)
	cfg.NATS.URL = getEnv("NATS_URL", cfg.NATS.URL)
	cfg.NATS.SubjectPrefix = getEnv("NATS_SUBJECT_PREFIX", cfg.NATS.SubjectPrefix)
	cfg.Overlay.Enabled = getEnvAsBool("OVERLAY_ENABLED", cfg.Overlay.Enabled)
	cfg.Overlay.Addr = getEnv("OVERLAY_ADDR", cfg.Overlay.Addr)
	cfg.Session.Role = getEnv("SESSION_ROLE", cfg.Session.Role)
	cfg.Session.AccessControlled = getEnvAsBool("SESSION_ACCESS_CONTROLLED", cfg.Session.AccessControlled)
	cfg.Session.UserID = getEnv("SESSION_USER_ID", cfg.Session.UserID)
	cfg.Session.Username = getEnv("SESSION_USERNAME", cfg.Session.Username)
	cfg.Session.Version = getEnv("SESSION_VERSION", cfg.Session.Version)
	cfg.Prefs.Path = getEnv("PREFS_PATH", cfg.Prefs.Path)

	return cfg, nil
}

func (c *Config) isAdmin() bool {
	return c.Session.Role == "admin"
}

// isModerator reports whether the role may moderate the queue. Judges get
// priority/activate/delete alongside admins; kick and playback commands stay
// admin-only.
func (c *Config) isModerator() bool {
	return c.Session.Role == "admin" || c.Session.Role == "judge"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
