// SPDX-License-Identifier: EPL-2.0

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ik5/audconv/convert"
)

// Config represents the complete service configuration
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Conversion ConversionConfig `yaml:"conversion"`
	EngineA    EngineAConfig    `yaml:"engine_a"`
	EngineB    EngineBConfig    `yaml:"engine_b"`
	Logging    LoggingConfig    `yaml:"logging"`
	Discovery  DiscoveryConfig  `yaml:"discovery"`
}

// HTTPConfig contains HTTP API server configuration
type HTTPConfig struct {
	Address      string `yaml:"address"`
	Port         int    `yaml:"port"`
	ReadTimeout  int    `yaml:"read_timeout"`  // seconds
	WriteTimeout int    `yaml:"write_timeout"` // seconds
	// MaxConcurrent bounds conversions running at the same time.
	MaxConcurrent int  `yaml:"max_concurrent"`
	Metrics       bool `yaml:"metrics"`
}

// ConversionConfig contains the orchestrator limits and encoder defaults
type ConversionConfig struct {
	MaxInputSize     int64   `yaml:"max_input_size"` // bytes
	MP3Bitrate       int     `yaml:"mp3_bitrate"`    // kbps
	AACBitrate       int     `yaml:"aac_bitrate"`    // kbps
	CompressionLevel int     `yaml:"compression_level"`
	OggQuality       float64 `yaml:"ogg_quality"`
}

// EngineAConfig configures the native engine
type EngineAConfig struct {
	// FFmpeg enables AAC output and the fallback decoder. Empty means
	// lookup on PATH.
	FFmpeg string `yaml:"ffmpeg"`
}

// EngineBConfig configures the ffmpeg command line engine
type EngineBConfig struct {
	FFmpeg      string `yaml:"ffmpeg"`
	DownloadURL string `yaml:"download_url"`
	CacheDir    string `yaml:"cache_dir"`
	ScratchDir  string `yaml:"scratch_dir"`
	// Preload resolves the binary at startup instead of on first use.
	Preload bool `yaml:"preload"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// DiscoveryConfig controls the mDNS advertisement of the HTTP service
type DiscoveryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Instance string `yaml:"instance"`
	Service  string `yaml:"service"`
}

// Default returns a configuration that validates as is.
func Default() *Config {
	d := convert.DefaultConfig()

	return &Config{
		HTTP: HTTPConfig{
			Address:       "0.0.0.0",
			Port:          8080,
			ReadTimeout:   60,
			WriteTimeout:  300,
			MaxConcurrent: 4,
			Metrics:       true,
		},
		Conversion: ConversionConfig{
			MaxInputSize:     d.MaxInputSize,
			MP3Bitrate:       d.MP3Bitrate,
			AACBitrate:       d.AACBitrate,
			CompressionLevel: d.CompressionLevel,
			OggQuality:       d.OggQuality,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Discovery: DiscoveryConfig{
			Instance: "audconv",
			Service:  "_audconv._tcp",
		},
	}
}

// Load reads the configuration file on top of Default and validates it
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate performs validation of every section
func (c *Config) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Conversion.Validate(); err != nil {
		return fmt.Errorf("conversion config: %w", err)
	}

	if err := c.EngineB.Validate(); err != nil {
		return fmt.Errorf("engine_b config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := c.Discovery.Validate(); err != nil {
		return fmt.Errorf("discovery config: %w", err)
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Port < 1 || h.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", h.Port)
	}

	if h.ReadTimeout < 0 || h.WriteTimeout < 0 {
		return fmt.Errorf("timeouts cannot be negative, got read %d, write %d", h.ReadTimeout, h.WriteTimeout)
	}

	if h.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be at least 1, got %d", h.MaxConcurrent)
	}

	return nil
}

// Validate validates the conversion limits and encoder defaults
func (c *ConversionConfig) Validate() error {
	if c.MaxInputSize < 1 {
		return fmt.Errorf("max_input_size must be positive, got %d", c.MaxInputSize)
	}

	return c.Converter().Validate()
}

// Validate validates the CLI engine configuration
func (e *EngineBConfig) Validate() error {
	if e.DownloadURL != "" && e.FFmpeg != "" {
		return fmt.Errorf("ffmpeg and download_url are mutually exclusive")
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	// Anything besides stdout and stderr is a file path.
	if l.Output == "" {
		return fmt.Errorf("output cannot be empty")
	}

	return nil
}

// Validate validates discovery configuration
func (d *DiscoveryConfig) Validate() error {
	if !d.Enabled {
		return nil
	}

	if d.Instance == "" {
		return fmt.Errorf("instance cannot be empty when discovery is enabled")
	}

	if d.Service == "" {
		return fmt.Errorf("service cannot be empty when discovery is enabled")
	}

	return nil
}

// Converter maps the section onto the orchestrator configuration. Logger,
// metrics and routing are left for the caller.
func (c *ConversionConfig) Converter() convert.Config {
	return convert.Config{
		MaxInputSize:     c.MaxInputSize,
		MP3Bitrate:       c.MP3Bitrate,
		AACBitrate:       c.AACBitrate,
		CompressionLevel: c.CompressionLevel,
		OggQuality:       c.OggQuality,
	}
}

// ListenAddress returns address:port
func (h *HTTPConfig) ListenAddress() string {
	return fmt.Sprintf("%s:%d", h.Address, h.Port)
}

// GetReadTimeout returns the read timeout as a time.Duration
func (h *HTTPConfig) GetReadTimeout() time.Duration {
	return time.Duration(h.ReadTimeout) * time.Second
}

// GetWriteTimeout returns the write timeout as a time.Duration
func (h *HTTPConfig) GetWriteTimeout() time.Duration {
	return time.Duration(h.WriteTimeout) * time.Second
}
