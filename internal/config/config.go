// Package config loads the FormCoach application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Camera     CameraConfig     `yaml:"camera"`
	Database   DatabaseConfig   `yaml:"database"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Voice      VoiceConfig      `yaml:"voice"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

type CameraConfig struct {
	DeviceID        int     `yaml:"device_id"`
	MotionThreshold float64 `yaml:"motion_threshold"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type EvaluationConfig struct {
	MinVisibility      float64 `yaml:"min_visibility"`
	FeedbackIntervalMs int64   `yaml:"feedback_interval_ms"`
	FlushThreshold     int     `yaml:"flush_threshold"`
	DwellMs            int64   `yaml:"dwell_ms"`
}

type VoiceConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Command   string `yaml:"command"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Camera: CameraConfig{DeviceID: 0, MotionThreshold: 1.0},
		Database: DatabaseConfig{
			Path: filepath.Join(home, ".formcoach", "formcoach.db"),
		},
		Evaluation: EvaluationConfig{},
		Voice:      VoiceConfig{Command: "say", TimeoutMs: 5000},
	}
}

// Load reads config from a YAML file, then applies environment variable
// overrides. Env vars use the prefix FORMCOACH_ and underscore-separated
// paths:
//
//	FORMCOACH_SERVER_ADDR, FORMCOACH_SERVER_STATIC_DIR,
//	FORMCOACH_CAMERA_DEVICE_ID, FORMCOACH_DB_PATH,
//	FORMCOACH_VOICE_ENABLED, FORMCOACH_VOICE_COMMAND
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FORMCOACH_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("FORMCOACH_SERVER_STATIC_DIR"); v != "" {
		cfg.Server.StaticDir = v
	}
	if v := os.Getenv("FORMCOACH_CAMERA_DEVICE_ID"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			cfg.Camera.DeviceID = id
		}
	}
	if v := os.Getenv("FORMCOACH_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("FORMCOACH_VOICE_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Voice.Enabled = enabled
		}
	}
	if v := os.Getenv("FORMCOACH_VOICE_COMMAND"); v != "" {
		cfg.Voice.Command = v
	}
}

func (c *Config) validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Camera.DeviceID < 0 {
		return fmt.Errorf("camera.device_id must not be negative")
	}
	if c.Evaluation.MinVisibility < 0 || c.Evaluation.MinVisibility > 1 {
		return fmt.Errorf("evaluation.min_visibility must be between 0 and 1")
	}
	return nil
}
