package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

// Format is a configuration file encoding.
type Format int

const (
	FormatYAML Format = iota
	FormatTOML
)

// FormatFor picks the encoding from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return 0, fmt.Errorf("config: unsupported file extension %q", filepath.Ext(path))
}

// Load reads configuration from path. An empty path returns defaults.
// Fields missing from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := Decode(data, format, cfg); err != nil {
		return nil, err
	}
	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Decode parses data into cfg. Layers and spawn tables in data replace
// those already in cfg; zero noise fields of a decoded layer take defaults.
func Decode(data []byte, format Format, cfg *Config) error {
	cfg.Layers = nil
	cfg.SpawnTables = nil
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse toml config: %w", err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return fmt.Errorf("parse yaml config: %w", err)
		}
	}
	for i := range cfg.Layers {
		cfg.Layers[i].Noise.fillDefaults()
	}
	return nil
}

// Encode serialises cfg.
func Encode(cfg *Config, format Format) ([]byte, error) {
	if format == FormatTOML {
		data, err := toml.Marshal(*cfg)
		if err != nil {
			return nil, fmt.Errorf("encode toml config: %w", err)
		}
		return data, nil
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode yaml config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml config: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes cfg to path in the format implied by its extension.
func (c *Config) Save(path string) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	data, err := Encode(c, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
