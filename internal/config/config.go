package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultOutputDir = "fetched_images"
	DefaultMaxBytes  = 10 * 1024 * 1024
	DefaultDelay     = 600 * time.Millisecond
	DefaultTimeout   = 15 * time.Second
)

// Config holds the fetch settings, loadable from a YAML file, GRABBIT_*
// environment variables or flags.
type Config struct {
	OutputDir string        `mapstructure:"output_dir"`
	MaxBytes  int64         `mapstructure:"max_bytes"`
	Delay     time.Duration `mapstructure:"delay"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
	ProxyURL  string        `mapstructure:"proxy_url"`
	NoIndex   bool          `mapstructure:"no_index"`
}

// Load reads configuration with precedence env > file > defaults. An empty
// path skips the file step.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GRABBIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output_dir", DefaultOutputDir)
	v.SetDefault("max_bytes", DefaultMaxBytes)
	v.SetDefault("delay", DefaultDelay)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("user_agent", "")
	v.SetDefault("proxy_url", "")
	v.SetDefault("no_index", false)
}

func (c Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	if c.MaxBytes <= 0 {
		return fmt.Errorf("max_bytes must be positive, got %d", c.MaxBytes)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay must not be negative, got %s", c.Delay)
	}
	return nil
}
