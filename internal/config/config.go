package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Models
	OnnxRuntimeLibPath string `envconfig:"ONNXRUNTIME_LIB_PATH" default:"/usr/lib/libonnxruntime.so"`
	FireModelPath      string `envconfig:"FIRE_MODEL_PATH" default:"models/fire_detection.onnx"`
	PersonModelPath    string `envconfig:"PERSON_MODEL_PATH" default:"models/yolo11n.onnx"`
	PoseModelPath      string `envconfig:"POSE_MODEL_PATH" default:"models/yolo11n-pose.onnx"`

	// Analysis
	SampleIntervalSeconds float64 `envconfig:"SAMPLE_INTERVAL_SECONDS" default:"0.5"`
	MaxFramesPerSession   int     `envconfig:"MAX_FRAMES_PER_SESSION" default:"0"`

	// Alerts
	AlertCooldownSeconds int `envconfig:"ALERT_COOLDOWN_SECONDS" default:"30"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.SampleIntervalSeconds <= 0 {
		return nil, fmt.Errorf("load config: SAMPLE_INTERVAL_SECONDS must be positive")
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
