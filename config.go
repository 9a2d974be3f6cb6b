package factory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the file form of a Factory's configuration. A URI that ends in
// ':', such as "htmlunit:", must be quoted or YAML reads it as a mapping key.
//
//	uri: "log:htmlunit:"
//
// or
//
//	uri: log:sauce-ondemand:?os=Linux&browser=firefox&browser-version=3.
//	starting_url: http://localhost:8080/
//	properties:
//	  embedded_args: -trustAllSSLCertificates
//	environment:
//	  SELENIUM_HOST: localhost
type Config struct {
	URI         string                 `yaml:"uri"`
	StartingURL string                 `yaml:"starting_url"`
	Properties  map[string]interface{} `yaml:"properties"`
	Environment map[string]string      `yaml:"environment"`
}

// LoadConfig reads a YAML Config from path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read factory config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes a YAML Config.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse factory config: %w", err)
	}
	return &cfg, nil
}

// NewFromConfig returns a Factory configured by cfg. Environment entries
// become overrides on top of the process environment, and StartingURL is
// recorded as SELENIUM_STARTING_URL. Options are applied after cfg.
func NewFromConfig(cfg *Config, opts ...Option) *Factory {
	env := &Environment{}
	for k, v := range cfg.Environment {
		env.Set(k, v)
	}
	if cfg.StartingURL != "" {
		env.Set(EnvStartingURL, cfg.StartingURL)
	}

	base := []Option{WithEnvironment(env), WithProperties(cfg.Properties)}
	if cfg.URI != "" {
		base = append(base, WithDriverURI(cfg.URI))
	}
	return New(append(base, opts...)...)
}
