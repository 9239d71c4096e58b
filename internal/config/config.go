// Package config loads the service configuration from an optional YAML
// file with environment variable overrides.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds every runtime setting of the service.
type Config struct {
	HTTP struct {
		Addr string `yaml:"addr" env:"HTTP_ADDR" envDefault:":8000"`
	} `yaml:"http"`

	DB struct {
		Path string `yaml:"path" env:"DB_PATH" envDefault:"epivision.db"`
	} `yaml:"db"`

	Detector struct {
		ModelPath  string  `yaml:"model_path" env:"DETECTOR_MODEL_PATH" envDefault:"models/model_EPI.onnx"`
		Confidence float64 `yaml:"confidence" env:"DETECTOR_CONFIDENCE" envDefault:"0.5"`
	} `yaml:"detector"`

	Stream struct {
		Width       int `yaml:"width" env:"STREAM_WIDTH" envDefault:"640"`
		Height      int `yaml:"height" env:"STREAM_HEIGHT" envDefault:"480"`
		JPEGQuality int `yaml:"jpeg_quality" env:"STREAM_JPEG_QUALITY" envDefault:"80"`
	} `yaml:"stream"`

	Log struct {
		Level      string `yaml:"level" env:"LOG_LEVEL" envDefault:"info"`
		File       string `yaml:"file" env:"LOG_FILE"`
		MaxSizeMB  int    `yaml:"max_size_mb" env:"LOG_MAX_SIZE_MB" envDefault:"50"`
		MaxBackups int    `yaml:"max_backups" env:"LOG_MAX_BACKUPS" envDefault:"3"`
		MaxAgeDays int    `yaml:"max_age_days" env:"LOG_MAX_AGE_DAYS" envDefault:"14"`
	} `yaml:"log"`
}

// Load reads the YAML file at path (skipped when path is empty), then
// applies environment variables on top.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	return cfg, nil
}
