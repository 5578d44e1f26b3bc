package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/tiercache/secret"
)

// EnvConfigPath names the environment variable that points at a config file.
const EnvConfigPath = "TIERCACHE_CONFIG"

// Load reads the YAML file at path, expands ${VAR} references, applies
// defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config data. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	expanded, err := secret.ExpandEnvStrict(string(data))
	if err != nil {
		return nil, fmt.Errorf("expand config: %w", err)
	}

	cfg := &Config{}
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads the file named by TIERCACHE_CONFIG, or the defaults
// when it is unset.
func LoadFromEnv() (*Config, error) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return Load(path)
	}
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
