// Package config loads probs-runner configuration with Viper.
//
// Sources, in precedence order: environment variables with the PROBS prefix
// (PROBS_ENGINE_EXECUTABLE, PROBS_ASSETS_DIR, ...), a TOML config file, then
// built-in defaults.
package config

import (
	"github.com/kballard/go-shellquote"

	"github.com/probs-lab/probs-runner/errors"
)

// Config is the probs-runner configuration.
type Config struct {
	Engine   EngineConfig   `mapstructure:"engine"`
	Assets   AssetsConfig   `mapstructure:"assets"`
	Endpoint EndpointConfig `mapstructure:"endpoint"`
}

// EngineConfig configures the external engine process.
type EngineConfig struct {
	// Executable is the engine binary name or path.
	Executable string `mapstructure:"executable"`
	// ExtraArgs is a shell-quoted string of extra arguments appended to
	// every engine invocation.
	ExtraArgs string `mapstructure:"extra_args"`
	// StartupTimeoutSeconds bounds the wait for endpoint readiness.
	StartupTimeoutSeconds int `mapstructure:"startup_timeout_seconds"`
	// ShutdownGraceSeconds bounds the wait for the process to exit after
	// being signalled at teardown.
	ShutdownGraceSeconds int `mapstructure:"shutdown_grace_seconds"`
}

// Args parses ExtraArgs into an argument vector.
func (c EngineConfig) Args() ([]string, error) {
	if c.ExtraArgs == "" {
		return nil, nil
	}
	args, err := shellquote.Split(c.ExtraArgs)
	if err != nil {
		return nil, errors.NewConfigurationError("bad engine.extra_args %q: %v", c.ExtraArgs, err)
	}
	return args, nil
}

// AssetsConfig configures the default standard-assets source.
type AssetsConfig struct {
	// Dir is the default assets source used when a call supplies none.
	Dir string `mapstructure:"dir"`
}

// EndpointConfig configures the engine query endpoint.
type EndpointConfig struct {
	// Port is the default endpoint port. Zero keeps the fixed default.
	Port int `mapstructure:"port"`
}
