package config

import (
	"fmt"
	"strings"

	"image-editor-go/internal/imageops"

	"github.com/spf13/viper"
)

// Config represents the main configuration structure
type Config struct {
	Compress CompressConfig `mapstructure:"compress"`
	Resize   ResizeConfig   `mapstructure:"resize"`
	Convert  ConvertConfig  `mapstructure:"convert"`
	Batch    BatchConfig    `mapstructure:"batch"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// CompressConfig contains compress settings
type CompressConfig struct {
	DefaultQuality   int  `mapstructure:"default_quality"`
	PreserveMetadata bool `mapstructure:"preserve_metadata"`
}

// ResizeConfig contains resize settings
type ResizeConfig struct {
	DefaultProportion int    `mapstructure:"default_proportion"`
	Filter            string `mapstructure:"filter"`
	Quality           int    `mapstructure:"quality"`
}

// ConvertConfig contains convert settings
type ConvertConfig struct {
	Quality int `mapstructure:"quality"`
}

// BatchConfig contains directory-mode settings
type BatchConfig struct {
	Workers      int  `mapstructure:"workers"`
	ShowProgress bool `mapstructure:"show_progress"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Compress: CompressConfig{
			DefaultQuality:   75,
			PreserveMetadata: false,
		},
		Resize: ResizeConfig{
			DefaultProportion: 2,
			Filter:            "lanczos",
			Quality:           100,
		},
		Convert: ConvertConfig{
			Quality: 75,
		},
		Batch: BatchConfig{
			Workers:      1,
			ShowProgress: false,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			FilePath:   "image-editor.log",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     30,
			Compress:   true,
		},
	}
}

// setDefaults registers every key so that environment variables can
// override keys that are absent from the config file.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("compress.default_quality", cfg.Compress.DefaultQuality)
	v.SetDefault("compress.preserve_metadata", cfg.Compress.PreserveMetadata)
	v.SetDefault("resize.default_proportion", cfg.Resize.DefaultProportion)
	v.SetDefault("resize.filter", cfg.Resize.Filter)
	v.SetDefault("resize.quality", cfg.Resize.Quality)
	v.SetDefault("convert.quality", cfg.Convert.Quality)
	v.SetDefault("batch.workers", cfg.Batch.Workers)
	v.SetDefault("batch.show_progress", cfg.Batch.ShowProgress)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.file_path", cfg.Logging.FilePath)
	v.SetDefault("logging.max_size", cfg.Logging.MaxSize)
	v.SetDefault("logging.max_backups", cfg.Logging.MaxBackups)
	v.SetDefault("logging.max_age", cfg.Logging.MaxAge)
	v.SetDefault("logging.compress", cfg.Logging.Compress)
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()
	v := viper.New()
	setDefaults(v, config)

	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config file in current directory and home directory
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.image-editor")
		v.AddConfigPath("/etc/image-editor")
	}

	// Enable environment variable support
	v.SetEnvPrefix("IMAGE_EDITOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Try to read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if q := c.Compress.DefaultQuality; q < 1 || q > 95 {
		return fmt.Errorf("compress.default_quality must be between 1 and 95, got %d", q)
	}
	if c.Resize.DefaultProportion < 1 {
		return fmt.Errorf("resize.default_proportion must be positive, got %d", c.Resize.DefaultProportion)
	}
	if q := c.Resize.Quality; q < 1 || q > 100 {
		return fmt.Errorf("resize.quality must be between 1 and 100, got %d", q)
	}
	if q := c.Convert.Quality; q < 1 || q > 100 {
		return fmt.Errorf("convert.quality must be between 1 and 100, got %d", q)
	}
	if _, err := imageops.ParseFilter(c.Resize.Filter); err != nil {
		return err
	}

	if c.Batch.Workers <= 0 {
		c.Batch.Workers = 1
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	c.Logging.Format = strings.ToLower(c.Logging.Format)
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("invalid log format: %s (valid: text, json)", c.Logging.Format)
	}

	return nil
}

// ProcessorOptions returns the imaging options derived from the configuration.
func (c *Config) ProcessorOptions() imageops.Options {
	filter, err := imageops.ParseFilter(c.Resize.Filter)
	if err != nil {
		filter = imageops.DefaultOptions().Filter
	}
	return imageops.Options{
		ConvertQuality: c.Convert.Quality,
		ResizeQuality:  c.Resize.Quality,
		Filter:         filter,
	}
}
