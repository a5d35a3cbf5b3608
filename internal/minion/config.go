// Package minion reads the parts of a Salt minion configuration the helper needs.
package minion

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath   = "/etc/salt/minion"
	DefaultMaster = "salt"
)

// Masters accepts both the scalar and the list form of the master option.
type Masters []string

func (m *Masters) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*m = Masters{s}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*m = list
		return nil
	default:
		return errors.Errorf("line %d: master must be a string or a list", value.Line)
	}
}

type Config struct {
	Masters Masters `yaml:"master"`
	ID      string  `yaml:"id"`
}

// Load reads the minion config at path and the *.conf files of its minion.d
// directory in lexical order. Later files override earlier ones.
// A missing main file is not an error: Salt's defaults apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if err := merge(cfg, path); err != nil && !os.IsNotExist(errors.Cause(err)) {
		return nil, err
	}

	includes, err := filepath.Glob(filepath.Join(filepath.Dir(path), "minion.d", "*.conf"))
	if err != nil {
		return nil, errors.WithMessage(err, "could not list minion.d")
	}
	for _, include := range includes {
		if err := merge(cfg, include); err != nil {
			return nil, err
		}
	}

	if len(cfg.Masters) == 0 {
		cfg.Masters = Masters{DefaultMaster}
	}

	if cfg.ID == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return nil, errors.WithMessage(err, "could not determine minion id")
		}
		cfg.ID = hostname
	}

	slog.Debug("minion config", "path", path, "masters", cfg.Masters, "id", cfg.ID)
	return cfg, nil
}

func merge(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WithStack(err)
	}

	var next Config
	if err := yaml.Unmarshal(data, &next); err != nil {
		return errors.WithMessagef(err, "could not parse minion config %s", path)
	}

	if len(next.Masters) > 0 {
		cfg.Masters = next.Masters
	}
	if next.ID != "" {
		cfg.ID = next.ID
	}
	return nil
}
