package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix namespaces every environment variable read by spabooking binaries.
const EnvPrefix = "SPABOOKING_"

// ParseEnv loads configuration from environment variables.
//
// Struct tags are written without EnvPrefix; ParseEnv applies it so config
// structs stay readable and tests can use short keys via ParseEnvWithPrefix.
func ParseEnv(target any) error {
	return ParseEnvWithPrefix(target, EnvPrefix)
}

// ParseEnvWithPrefix loads configuration from environment variables that
// share prefix.
func ParseEnvWithPrefix(target any, prefix string) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: prefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
