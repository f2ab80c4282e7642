// Package config loads optional YAML configuration files into kong flags.
//
// Keys match flag names with dashes or underscores, either flat or nested by flag prefix:
//
//	postgres-max-conns: 10
//	postgres:
//	  max_conns: 10
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

// YAML is a kong.ConfigurationLoader for YAML documents.
func YAML(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode yaml config: %w", err)
	}

	values = normalize(values)

	var f kong.ResolverFunc = func(context *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
		raw, ok := lookup(values, normalizeKey(flag.Name))
		if !ok {
			return nil, nil
		}
		return raw, nil
	}

	return f, nil
}

// lookup matches name against the keys of values, descending into nested maps when a key is a
// prefix of the remaining name.
func lookup(values map[string]any, name string) (any, bool) {
	if raw, ok := values[name]; ok {
		return raw, true
	}

	for key, raw := range values {
		nested, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		rest, found := strings.CutPrefix(name, key+"_")
		if !found {
			continue
		}
		if v, ok := lookup(nested, rest); ok {
			return v, true
		}
	}

	return nil, false
}

func normalize(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		if nested, ok := v.(map[string]any); ok {
			v = normalize(nested)
		}
		out[normalizeKey(k)] = v
	}
	return out
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.ReplaceAll(k, "-", "_"))
}
