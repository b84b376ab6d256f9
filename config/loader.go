package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultFile is the configuration read when no path is given.
const DefaultFile = "config.yaml"

// RequiredKeys must be present in every configuration file. Their values
// may be empty: mc_weight: "" plots unweighted events.
var RequiredKeys = []string{
	"InputDirectory",
	"TreeName",
	"mc_weight",
	"OutDir",
	"Label",
	"Lumi",
	"Normalise",
	"SelectionCuts",
	"Variables",
	"Processes.Name",
	"Processes.File",
}

// Load reads, defaults and validates the configuration at path.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("could not read config %q: %w", path, err)
	}

	for _, key := range RequiredKeys {
		if !k.Exists(key) {
			return nil, &MissingKeyError{Key: key, Path: path}
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("could not decode config %q: %w", path, err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return &cfg, nil
}
