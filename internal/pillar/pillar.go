// Package pillar builds the pillar data handed to an orchestration run.
package pillar

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// None is what the orchestration hooks receive when no pillar pairs were given.
const None = "None"

// ParsePairs turns key=value pairs into a map. The value is everything after
// the first '='. Later pairs override earlier ones.
func ParsePairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	result := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid pillar pair %q, expected key=value", pair)
		}
		result[key] = value
	}
	return result, nil
}

// Value returns the pillar argument for the hooks: the parsed pairs, or None.
func Value(pairs map[string]string) any {
	if len(pairs) == 0 {
		return None
	}
	return pairs
}

// LoadFile reads a YAML pillar file. The top level must be a mapping.
// Non-string keys of nested mappings are turned into strings so the
// result can be sent as JSON.
func LoadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithMessage(err, "could not read pillar file")
	}

	var pillar map[string]any
	if err := yaml.Unmarshal(data, &pillar); err != nil {
		return nil, errors.WithMessagef(err, "could not parse pillar file %s", path)
	}

	for k, v := range pillar {
		pillar[k] = stringKeys(v)
	}
	return pillar, nil
}

func stringKeys(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for k, e := range v {
			v[k] = stringKeys(e)
		}
		return v
	case map[any]any:
		m := make(map[string]any, len(v))
		for k, e := range v {
			m[fmt.Sprint(k)] = stringKeys(e)
		}
		return m
	case []any:
		for i, e := range v {
			v[i] = stringKeys(e)
		}
		return v
	}
	return v
}
