package config

import (
	"github.com/spf13/viper"
)

// Default engine process bounds.
const (
	DefaultStartupTimeoutSeconds = 60
	DefaultShutdownGraceSeconds  = 10
)

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("engine.executable", "RDFox")
	v.SetDefault("engine.extra_args", "")
	v.SetDefault("engine.startup_timeout_seconds", DefaultStartupTimeoutSeconds)
	v.SetDefault("engine.shutdown_grace_seconds", DefaultShutdownGraceSeconds)

	// No bundled assets default; the assets source must be configured or
	// passed explicitly.
	v.SetDefault("assets.dir", "")

	// Zero keeps the composer's fixed default port.
	v.SetDefault("endpoint.port", 0)
}
