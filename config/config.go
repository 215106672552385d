package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Stream input formats
const (
	FormatText = "text"
	FormatSSE  = "sse"
)

// DefaultConfigFile is read from the working directory when no path is given
const DefaultConfigFile = "tagstream.yaml"

// LoggingConfig controls the logrus logger
type LoggingConfig struct {
	Dir     string `yaml:"dir" json:"dir"`          // Directory for tagstream.jsonl; empty logs to stderr
	Level   string `yaml:"level" json:"level"`      // logrus level name
	LokiURL string `yaml:"loki_url" json:"loki_url"` // Push entries to Loki when set
}

// RenderConfig controls terminal rendering
type RenderConfig struct {
	WordWrap int    `yaml:"word_wrap" json:"word_wrap"` // Column to wrap Markdown at
	Style    string `yaml:"style" json:"style"`         // glamour style name ("auto", "dark", "light", "notty", "ascii")
}

// StreamConfig controls how incoming model output is read and re-parsed
type StreamConfig struct {
	Format             string        `yaml:"format" json:"format"`                 // "text" or "sse"
	ChunkSize          int           `yaml:"chunk_size" json:"chunk_size"`         // Bytes per read for text input
	MinReparseInterval time.Duration `yaml:"min_reparse_interval" json:"min_reparse_interval"` // Throttle between re-parses; 0 re-parses every chunk
}

// Config represents the tagstream configuration
type Config struct {
	Port    string        `yaml:"port" json:"port"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Render  RenderConfig  `yaml:"render" json:"render"`
	Stream  StreamConfig  `yaml:"stream" json:"stream"`
}

// GetDefaultConfig returns a default configuration
func GetDefaultConfig() *Config {
	return &Config{
		Port: "3457",
		Logging: LoggingConfig{
			Dir:   "",     // stderr by default
			Level: "info", // Default to INFO level
		},
		Render: RenderConfig{
			WordWrap: 100,
			Style:    "auto",
		},
		Stream: StreamConfig{
			Format:             FormatText,
			ChunkSize:          64,
			MinReparseInterval: 0, // re-parse on every chunk
		},
	}
}

// LoadConfig builds the configuration from defaults, then the yaml file at
// path (DefaultConfigFile when empty; a missing file is not an error), then
// the .env file, then the process environment.
func LoadConfig(path string) (*Config, error) {
	cfg := GetDefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	if err := cfg.loadYAML(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) || explicit {
			return nil, err
		}
		logrus.Debugf("%s not found, using defaults", path)
	}

	envVars, err := loadEnvFile(".env")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	for _, key := range envKeys {
		if value, ok := os.LookupEnv(key); ok && value != "" {
			envVars[key] = value
		}
	}
	if err := cfg.applyEnv(envVars); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	logrus.Debugf("Loaded configuration from %s", path)
	return nil
}

var envKeys = []string{
	"PORT",
	"LOG_DIR",
	"LOG_LEVEL",
	"LOKI_URL",
	"RENDER_WORD_WRAP",
	"RENDER_STYLE",
	"STREAM_FORMAT",
	"STREAM_CHUNK_SIZE",
	"STREAM_MIN_REPARSE_MS",
}

func (c *Config) applyEnv(envVars map[string]string) error {
	if port, exists := envVars["PORT"]; exists && port != "" {
		c.Port = port
	}
	if dir, exists := envVars["LOG_DIR"]; exists {
		c.Logging.Dir = dir
	}
	if level, exists := envVars["LOG_LEVEL"]; exists && level != "" {
		c.Logging.Level = strings.ToLower(level)
	}
	if lokiURL, exists := envVars["LOKI_URL"]; exists {
		c.Logging.LokiURL = lokiURL
	}
	if wrap, exists := envVars["RENDER_WORD_WRAP"]; exists && wrap != "" {
		n, err := strconv.Atoi(wrap)
		if err != nil {
			return fmt.Errorf("RENDER_WORD_WRAP must be an integer: %w", err)
		}
		c.Render.WordWrap = n
	}
	if style, exists := envVars["RENDER_STYLE"]; exists && style != "" {
		c.Render.Style = style
	}
	if format, exists := envVars["STREAM_FORMAT"]; exists && format != "" {
		c.Stream.Format = strings.ToLower(format)
	}
	if size, exists := envVars["STREAM_CHUNK_SIZE"]; exists && size != "" {
		n, err := strconv.Atoi(size)
		if err != nil {
			return fmt.Errorf("STREAM_CHUNK_SIZE must be an integer: %w", err)
		}
		c.Stream.ChunkSize = n
	}
	if ms, exists := envVars["STREAM_MIN_REPARSE_MS"]; exists && ms != "" {
		n, err := strconv.Atoi(ms)
		if err != nil {
			return fmt.Errorf("STREAM_MIN_REPARSE_MS must be an integer: %w", err)
		}
		c.Stream.MinReparseInterval = time.Duration(n) * time.Millisecond
	}
	return nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port must be set")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("port must be numeric, got %q", c.Port)
	}
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if c.Render.WordWrap < 0 {
		return fmt.Errorf("render word wrap must not be negative")
	}
	switch c.Stream.Format {
	case FormatText, FormatSSE:
	default:
		return fmt.Errorf("stream format must be %q or %q, got %q", FormatText, FormatSSE, c.Stream.Format)
	}
	if c.Stream.ChunkSize <= 0 {
		return fmt.Errorf("stream chunk size must be positive")
	}
	if c.Stream.MinReparseInterval < 0 {
		return fmt.Errorf("stream min reparse interval must not be negative")
	}
	return nil
}

// loadEnvFile loads KEY=VALUE pairs from path
func loadEnvFile(path string) (map[string]string, error) {
	envVars := make(map[string]string)

	file, err := os.Open(path)
	if err != nil {
		return envVars, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove comments from value
		if commentIndex := strings.Index(value, "#"); commentIndex != -1 {
			value = strings.TrimSpace(value[:commentIndex])
		}

		envVars[key] = value
	}

	return envVars, scanner.Err()
}
