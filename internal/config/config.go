package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	runerrors "github.com/rulerun/rulerun/pkg/errors"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// Config is the read-only key-value mapping supplied to the engine before
// any rule executes. It is loaded once and never mutated.
type Config struct {
	values map[string]Value
}

// New builds a Config from an already converted value map.
func New(values map[string]Value) *Config {
	if values == nil {
		values = map[string]Value{}
	}
	return &Config{values: values}
}

// Load reads and parses a YAML configuration file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, runerrors.NewParseError(path, 0, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, runerrors.NewParseError(path, extractLine(err), err)
	}

	return cfg, nil
}

// Parse converts raw YAML into a Config.
func Parse(data []byte) (*Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	values := make(map[string]Value, len(raw))
	for key, child := range raw {
		converted, err := FromAny(child)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		values[key] = converted
	}

	return New(values), nil
}

// Lookup resolves a dotted key path against the configuration. The boolean
// reports whether every segment of the path was present.
func (c *Config) Lookup(path string) (Value, bool) {
	if c == nil || path == "" {
		return Value{}, false
	}

	segments := strings.Split(path, ".")
	current, ok := c.values[segments[0]]
	if !ok {
		return Value{}, false
	}

	for _, segment := range segments[1:] {
		current, ok = current.Child(segment)
		if !ok {
			return Value{}, false
		}
	}

	return current, true
}

// Keys returns the sorted top-level key set.
func (c *Config) Keys() []string {
	return Map(c.values).Keys()
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	_, scanErr := fmt.Sscanf(matches[1], "%d", &line)
	if scanErr != nil {
		return 0
	}

	return line
}
