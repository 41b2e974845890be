// Package config loads named cache definitions from YAML.
//
// A file looks like:
//
//	caches:
//	  - name: sessions
//	    capacity: 10000
//	    policy: lru
//	    default_ttl: 30m
//	    cleanup_interval: 1m
//	  - name: thumbnails
//	    capacity: 500
//	    policy: lfu
package config

import (
	"bytes"
	"os"
	"time"

	"github.com/jmgilman/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/tstromberg/evictcache/internal/policy"
)

// CacheSpec describes one named cache.
type CacheSpec struct {
	Name            string        `yaml:"name"`
	Capacity        int           `yaml:"capacity"`
	Policy          policy.Kind   `yaml:"policy"`
	DefaultTTL      time.Duration `yaml:"default_ttl,omitempty"`
	CleanupInterval time.Duration `yaml:"cleanup_interval,omitempty"`
}

// Config is the top-level document.
type Config struct {
	Caches []CacheSpec `yaml:"caches"`
}

// DefaultConfig returns a single LRU cache named "default".
func DefaultConfig() *Config {
	return &Config{
		Caches: []CacheSpec{{
			Name:     "default",
			Capacity: 1024,
			Policy:   policy.LRU,
		}},
	}
}

// Load reads and validates the YAML file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WithContext(
				errors.Wrap(err, errors.CodeNotFound, "config file not found"), "path", path)
		}
		return nil, errors.WithContext(
			errors.Wrap(err, errors.CodeInvalidConfig, "read config file"), "path", path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.WithContext(err, "path", path)
	}
	return cfg, nil
}

// Parse decodes and validates a YAML document. Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "decode cache config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every cache definition and rejects duplicate names.
func (c *Config) Validate() error {
	if len(c.Caches) == 0 {
		return errors.New(errors.CodeInvalidConfig, "no caches defined")
	}

	seen := make(map[string]bool, len(c.Caches))
	for i, cs := range c.Caches {
		if cs.Name == "" {
			return errors.Newf(errors.CodeInvalidConfig, "cache %d: name is required", i)
		}
		if seen[cs.Name] {
			return errors.Newf(errors.CodeInvalidConfig, "cache %q: defined more than once", cs.Name)
		}
		seen[cs.Name] = true

		if cs.Capacity <= 0 {
			return errors.Newf(errors.CodeInvalidConfig, "cache %q: capacity must be positive, got %d", cs.Name, cs.Capacity)
		}
		if !cs.Policy.Valid() {
			return errors.Newf(errors.CodeInvalidConfig, "cache %q: policy is required", cs.Name)
		}
		if cs.DefaultTTL < 0 {
			return errors.Newf(errors.CodeInvalidConfig, "cache %q: default_ttl must not be negative", cs.Name)
		}
		if cs.CleanupInterval < 0 {
			return errors.Newf(errors.CodeInvalidConfig, "cache %q: cleanup_interval must not be negative", cs.Name)
		}
	}
	return nil
}

// Marshal encodes c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "encode cache config")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "encode cache config")
	}
	return buf.Bytes(), nil
}
