package gtfsedit

import (
	"fmt"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
	"log/slog"
	"os"
)

type Config struct {
	LogLevel       string              `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	KeepOtherFiles *bool               `yaml:"keep_other_files"`
	DateColumns    map[string][]string `yaml:"date_columns" validate:"omitempty,dive,keys,required,endkeys,dive,required"`
}

func DefaultConfig() *Config {
	keep := true
	return &Config{LogLevel: "info", KeepOtherFiles: &keep}
}

// LoadConfig reads a YAML config file. Unset fields take their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.KeepOtherFiles == nil {
		cfg.KeepOtherFiles = DefaultConfig().KeepOtherFiles
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func (c *Config) LoadOpts() *LoadOpts {
	return &LoadOpts{
		KeepOtherFiles:   c.KeepOtherFiles != nil && *c.KeepOtherFiles,
		ExtraDateColumns: c.DateColumns,
	}
}
