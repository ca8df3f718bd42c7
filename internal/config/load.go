package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML config file, applies environment overrides and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	return &cfg, nil
}

// Default returns the validated zero configuration.
func Default() *Config {
	var cfg Config
	cfg.applyEnv()
	// Only the gemini backend can fail validation and it is not the default.
	_ = cfg.Validate()
	return &cfg
}

func (c *Config) applyEnv() {
	c.HuggingFace.Token = getEnv("HF_TOKEN", c.HuggingFace.Token)
	c.Triton.BaseURL = getEnv("TRITON_BASE_URL", c.Triton.BaseURL)
	c.Triton.CFAccessClientID = getEnv("CF_ACCESS_CLIENT_ID", c.Triton.CFAccessClientID)
	c.Triton.CFAccessSecret = getEnv("CF_ACCESS_CLIENT_SECRET", c.Triton.CFAccessSecret)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)

	if keys := os.Getenv("GEMINI_API_KEYS"); keys != "" {
		c.Gemini.APIKeys = nil
		for _, k := range strings.Split(keys, ",") {
			if k = strings.TrimSpace(k); k != "" {
				c.Gemini.APIKeys = append(c.Gemini.APIKeys, k)
			}
		}
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
