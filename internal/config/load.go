// Package config loads the kennelcore YAML configuration with environment
// variable expansion and validates it.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Validator is implemented by configuration types that check themselves.
type Validator interface {
	Validate() error
}

// Load reads filename into target. ${VAR} references are expanded from the
// environment before parsing. target is validated when it implements
// Validator.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", filename, err)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), target); err != nil {
		return fmt.Errorf("parse config file %s: %w", filename, err)
	}
	if v, ok := any(target).(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}
	return nil
}

// LoadOptional behaves like Load but keeps target unchanged when filename is
// empty or does not exist. target is still validated.
func LoadOptional[T any](filename string, target *T) error {
	if filename != "" {
		if _, err := os.Stat(filename); err == nil {
			return Load(filename, target)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat config file %s: %w", filename, err)
		}
	}
	if v, ok := any(target).(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}
	return nil
}
