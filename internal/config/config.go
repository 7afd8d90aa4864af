// Package config loads service configuration from a YAML file with
// TOLLGATE_-prefixed environment overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Camera     CameraConfig     `mapstructure:"camera"`
	Probes     ProbesConfig     `mapstructure:"probes"`
	Drowsiness DrowsinessConfig `mapstructure:"drowsiness"`
	Plate      PlateConfig      `mapstructure:"plate"`
	Workflow   WorkflowConfig   `mapstructure:"workflow"`
	Paths      PathsConfig      `mapstructure:"paths"`
	Auth       AuthConfig       `mapstructure:"auth"`
	LogLevel   string           `mapstructure:"log_level"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	// DSN is the postgres connection string. Empty disables persistence;
	// the lane still runs with file logging only.
	DSN string `mapstructure:"dsn"`
}

type CameraConfig struct {
	Index       int    `mapstructure:"index"`
	Model       string `mapstructure:"model"`
	Width       int    `mapstructure:"width"`
	Height      int    `mapstructure:"height"`
	FPS         int    `mapstructure:"fps"`
	ReadRetries int    `mapstructure:"read_retries"`
}

type ProbesConfig struct {
	EyeEndpoint   string        `mapstructure:"eye_endpoint"`
	PlateEndpoint string        `mapstructure:"plate_endpoint"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type DrowsinessConfig struct {
	// WindowSeconds is the analysis duration; the frame window is
	// WindowSeconds * camera FPS.
	WindowSeconds      float64 `mapstructure:"window_seconds"`
	DrowsyThreshold    float64 `mapstructure:"drowsy_threshold"`
	CountUnknownFrames bool    `mapstructure:"count_unknown_frames"`
}

// WindowFrames derives the window capacity from the configured duration and
// the expected frame rate.
func (c DrowsinessConfig) WindowFrames(fps int) int {
	frames := int(c.WindowSeconds * float64(fps))
	if frames < 1 {
		frames = 1
	}
	return frames
}

type PlateConfig struct {
	RequiredConfirmations int      `mapstructure:"required_confirmations"`
	MinConfidence         float64  `mapstructure:"min_confidence"`
	Patterns              []string `mapstructure:"patterns"`
}

type WorkflowConfig struct {
	FaceFrameBudget  int `mapstructure:"face_frame_budget"`
	PlateFrameBudget int `mapstructure:"plate_frame_budget"`
}

type PathsConfig struct {
	AuthorizedPlates string `mapstructure:"authorized_plates"`
	ViolationLog     string `mapstructure:"violation_log"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("camera.index", 0)
	v.SetDefault("camera.width", 640)
	v.SetDefault("camera.height", 480)
	v.SetDefault("camera.fps", 30)
	v.SetDefault("camera.read_retries", 3)
	v.SetDefault("probes.timeout", 2*time.Second)
	v.SetDefault("drowsiness.window_seconds", 3.0)
	v.SetDefault("drowsiness.drowsy_threshold", 0.3)
	v.SetDefault("drowsiness.count_unknown_frames", true)
	v.SetDefault("plate.required_confirmations", 2)
	v.SetDefault("plate.min_confidence", 0.4)
	v.SetDefault("plate.patterns", []string{
		`^[A-Z]{2}[0-9]{2}[A-Z]{2}[0-9]{4}$`,
		`^[A-Z]{3}[0-9]{4}$`,
		`^[0-9]{2}[A-Z]{2}[0-9]{4}$`,
		`^[A-Z]{2}[0-9]{4}$`,
		`^[0-9]{3}[A-Z]{3}$`,
	})
	v.SetDefault("workflow.face_frame_budget", 150)
	v.SetDefault("workflow.plate_frame_budget", 150)
	v.SetDefault("paths.authorized_plates", "data/authorized_plates.txt")
	v.SetDefault("paths.violation_log", "logs/violations.log")
	v.SetDefault("log_level", "info")
}

// Load reads configuration from path (optional; "" means defaults plus
// environment only).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TOLLGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Drowsiness.DrowsyThreshold < 0 || c.Drowsiness.DrowsyThreshold > 1 {
		return fmt.Errorf("drowsiness.drowsy_threshold must be in [0,1], got %v", c.Drowsiness.DrowsyThreshold)
	}
	if c.Drowsiness.WindowSeconds <= 0 {
		return fmt.Errorf("drowsiness.window_seconds must be positive, got %v", c.Drowsiness.WindowSeconds)
	}
	if c.Plate.RequiredConfirmations <= 0 {
		return fmt.Errorf("plate.required_confirmations must be positive, got %d", c.Plate.RequiredConfirmations)
	}
	if c.Camera.FPS <= 0 {
		return fmt.Errorf("camera.fps must be positive, got %d", c.Camera.FPS)
	}
	if c.Workflow.FaceFrameBudget <= 0 || c.Workflow.PlateFrameBudget <= 0 {
		return fmt.Errorf("workflow frame budgets must be positive")
	}
	return nil
}
