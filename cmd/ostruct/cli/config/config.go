package config

import "time"

// Config represents the ostruct CLI configuration.
// Use mapstructure tags for Viper unmarshaling.
type Config struct {
	Security SecurityConfig `mapstructure:"security"`
	Limits   LimitsConfig   `mapstructure:"limits"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

// SecurityConfig holds trust-boundary settings.
type SecurityConfig struct {
	// AllowedDirs are directories added to the trust boundary beyond the base.
	AllowedDirs []string `mapstructure:"allowed_dirs"`
	// AllowTemp permits attachments under the system temp directories.
	AllowTemp bool `mapstructure:"allow_temp"`
}

// LimitsConfig holds resource-limit settings. Zero values mean defaults.
type LimitsConfig struct {
	MaxSymlinkDepth int           `mapstructure:"max_symlink_depth"`
	MaxConcurrent   int           `mapstructure:"max_concurrent"`
	OpQuota         int           `mapstructure:"op_quota"`
	TimeBudget      time.Duration `mapstructure:"time_budget"`
	MinResponseTime time.Duration `mapstructure:"min_response_time"`
}

// CacheConfig holds upload-cache settings.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}
