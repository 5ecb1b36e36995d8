// Package config loads the usbcam settings: a YAML file, then
// USBCAM_* environment overrides, then validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/adamlouis/usbcam"
	"gopkg.in/yaml.v3"
)

// Config holds every setting of the command line tool.
type Config struct {
	Device  DeviceConfig  `yaml:"device"`
	Display DisplayConfig `yaml:"display"`
	Log     LogConfig     `yaml:"log"`
}

// DeviceConfig is the stream mode requested from the camera.
type DeviceConfig struct {
	Path   string  `yaml:"path"`
	Format string  `yaml:"format"` // MJPEG, YUYV or H.264
	Width  uint32  `yaml:"width"`
	Height uint32  `yaml:"height"`
	FPS    float32 `yaml:"fps"`
}

type DisplayConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

type LogConfig struct {
	File        string `yaml:"file"`
	MaxBytes    int    `yaml:"max_bytes"`
	BackupCount int    `yaml:"backup_count"`
	Stderr      bool   `yaml:"stderr"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Path:   "/dev/video0",
			Format: "MJPEG",
			Width:  640,
			Height: 480,
			FPS:    30,
		},
		Display: DisplayConfig{
			PollInterval: 30 * time.Millisecond,
		},
		Log: LogConfig{
			MaxBytes:    1 << 20,
			BackupCount: 3,
			Stderr:      true,
		},
	}
}

// Load reads path over the defaults and applies the environment. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Device.Path = getEnvOrDefault("USBCAM_DEVICE", c.Device.Path)
	c.Device.Format = getEnvOrDefault("USBCAM_FORMAT", c.Device.Format)
	c.Log.File = getEnvOrDefault("USBCAM_LOG_FILE", c.Log.File)

	var err error
	if c.Device.Width, err = getEnvAsUint32OrDefault("USBCAM_WIDTH", c.Device.Width); err != nil {
		return err
	}
	if c.Device.Height, err = getEnvAsUint32OrDefault("USBCAM_HEIGHT", c.Device.Height); err != nil {
		return err
	}
	if v := os.Getenv("USBCAM_FPS"); v != "" {
		fps, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("config: USBCAM_FPS: %w", err)
		}
		c.Device.FPS = float32(fps)
	}
	return nil
}

// Validate checks that the settings describe a stream the engine can
// start.
func (c *Config) Validate() error {
	if c.Device.Path == "" {
		return errors.New("config: device path is empty")
	}
	if _, ok := usbcam.LookupFormat(c.Device.Format); !ok {
		return fmt.Errorf("config: unsupported format %q", c.Device.Format)
	}
	if c.Device.Width == 0 || c.Device.Height == 0 {
		return fmt.Errorf("config: invalid size %dx%d", c.Device.Width, c.Device.Height)
	}
	if c.Device.FPS < 1 || c.Device.FPS > 240 {
		return fmt.Errorf("config: invalid frame rate %v", c.Device.FPS)
	}
	if c.Display.PollInterval < time.Millisecond || c.Display.PollInterval > time.Second {
		return fmt.Errorf("config: invalid poll interval %v", c.Display.PollInterval)
	}
	if c.Log.MaxBytes < 0 || c.Log.BackupCount < 0 {
		return errors.New("config: log rotation settings must not be negative")
	}
	return nil
}

// StreamConfig is the stream request for the configured device.
func (c *Config) StreamConfig() usbcam.StreamConfig {
	return usbcam.StreamConfig{
		DevicePath: c.Device.Path,
		FormatName: c.Device.Format,
		Width:      c.Device.Width,
		Height:     c.Device.Height,
		FrameRate:  c.Device.FPS,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsUint32OrDefault(key string, defaultValue uint32) (uint32, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return uint32(n), nil
}
