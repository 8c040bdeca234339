package config

import (
	"strings"
	"time"

	"github.com/minangbatik/batikhub/internal/common"
)

const ServerEnvName = "BATIK_SERVER"

// Config holds runtime settings for the batikctl CLI.
type Config struct {
	ServerURL      string
	Token          string
	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.Token = ""
	c.RequestTimeout = 30 * time.Second
}

// Load builds a Config from defaults, the JSON file at path (skipped when
// path is empty) and the environment looked up through getenv. Later sources
// take precedence over earlier ones.
func Load(path string, getenv func(string) string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if path != "" {
		if err := parseJson(cfg, path); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg, getenv)
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if getenv == nil {
		return
	}
	if v := strings.TrimSpace(getenv(ServerEnvName)); v != "" {
		cfg.ServerURL = v
	}
	if v := strings.TrimSpace(getenv(common.TokenEnvName)); v != "" {
		cfg.Token = v
	}
}
