package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/minangbatik/batikhub/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	Server         string         `json:"server"`
	Token          string         `json:"token"`
	RequestTimeout timex.Duration `json:"request_timeout"`
}

// parseJson overlays cfg with the non-empty values of the JSON file at path.
func parseJson(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.Server != "" {
		cfg.ServerURL = jc.Server
	}
	if jc.Token != "" {
		cfg.Token = jc.Token
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	return nil
}
