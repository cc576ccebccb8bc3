package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/vk/anvil/internal/buildlog"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// BuildFile is a build file or a directory holding exactly one.
	BuildFile string   `mapstructure:"buildfile"`
	Targets   []string `mapstructure:"targets"`

	LogFormat string `mapstructure:"log_format"`
	LogLevel  string `mapstructure:"log_level"`
	// OutputLevel is the lowest build output level printed.
	OutputLevel string `mapstructure:"output_level"`
	NoColor     bool   `mapstructure:"no_color"`

	SettingsFile string            `mapstructure:"settings"`
	Framework    string            `mapstructure:"framework"`
	Properties   map[string]string `mapstructure:"properties"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("buildfile", ".")
	v.SetDefault("log_format", "text")
	v.SetDefault("log_level", "warn")
	v.SetDefault("output_level", "Info")
	v.SetDefault("no_color", false)
	v.SetDefault("targets", []string{})
	v.SetDefault("settings", "")
	v.SetDefault("framework", "")
}

// LoadConfig reads configuration from v. An explicit configFile must exist;
// otherwise an anvil.yaml in the working directory is used when present.
// ANVIL_* environment variables override file values.
func LoadConfig(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("anvil")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("ANVIL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the enumerated fields.
func (c *Config) Validate() error {
	c.LogFormat = strings.ToLower(c.LogFormat)
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return errors.New("invalid log-format: must be 'text' or 'json'")
	}

	c.LogLevel = strings.ToLower(c.LogLevel)
	if _, err := parseLogLevel(c.LogLevel); err != nil {
		return err
	}

	if _, err := buildlog.ParseLevel(c.OutputLevel); err != nil {
		return fmt.Errorf("invalid output-level: %w", err)
	}
	if c.BuildFile == "" {
		return errors.New("buildfile cannot be empty")
	}
	return nil
}
