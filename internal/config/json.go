package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// parseJSON reads a JSON configuration file into a partial
// [StructuredConfig].
func parseJSON(path string) (*StructuredConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg StructuredConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}
	return &cfg, nil
}
