// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/cluster-analysis/internal/clusters"
	"github.com/ironsheep/cluster-analysis/internal/recognize"
)

// Config holds service configuration
type Config struct {
	// HTTP server
	Addr          string
	MaxBodyBytes  int64
	MaxPixels     int
	MaxConcurrent int

	// Logging
	LogLevel  string
	LogFormat string

	// Analysis
	DefaultDirection   string
	Policy             string
	AlphaThreshold     int
	ColorTolerance     float64
	LuminanceThreshold int
	Background         string // "#RRGGBB", empty samples the border
	Connectivity       int
	MinArea            int
	LineOverlap        float64

	// Recognition
	TessdataPrefix string
	OCRLanguage    string
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Variables that already hold a non-empty value are kept, and
// missing files are not an error.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		vars, err := godotenv.Read(f)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
		for k, v := range vars {
			if os.Getenv(k) != "" {
				continue
			}
			if err := os.Setenv(k, v); err != nil {
				return fmt.Errorf("failed to set %s: %w", k, err)
			}
		}
	}
	return nil
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var e envReader

	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":" + getEnvOrDefault("PORT", "8080")
	}

	cfg := &Config{
		Addr:               addr,
		MaxBodyBytes:       e.int64("CLUSTER_MAX_BODY_BYTES", 10<<20), // 10MB
		MaxPixels:          e.int("CLUSTER_MAX_PIXELS", 16<<20), // 16 megapixels
		MaxConcurrent:      e.int("CLUSTER_MAX_CONCURRENT", 4),
		LogLevel:           getEnvOrDefault("CLUSTER_LOG_LEVEL", "info"),
		LogFormat:          getEnvOrDefault("CLUSTER_LOG_FORMAT", "text"),
		DefaultDirection:   getEnvOrDefault("CLUSTER_DEFAULT_DIRECTION", string(clusters.DefaultDirection)),
		Policy:             getEnvOrDefault("CLUSTER_POLICY", string(clusters.PolicyContrast)),
		AlphaThreshold:     e.int("CLUSTER_ALPHA_THRESHOLD", 0),
		ColorTolerance:     e.float("CLUSTER_COLOR_TOLERANCE", 0.1),
		LuminanceThreshold: e.int("CLUSTER_LUMINANCE_THRESHOLD", 128),
		Background:         os.Getenv("CLUSTER_BACKGROUND"),
		Connectivity:       e.int("CLUSTER_CONNECTIVITY", 8),
		MinArea:            e.int("CLUSTER_MIN_AREA", 1),
		LineOverlap:        e.float("CLUSTER_LINE_OVERLAP", 0),
		TessdataPrefix:     os.Getenv("CLUSTER_TESSDATA_PREFIX"),
		OCRLanguage:        getEnvOrDefault("CLUSTER_OCR_LANGUAGE", "eng"),
	}
	if e.err != nil {
		return nil, e.err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("ADDR or PORT is required")
	}

	if c.MaxBodyBytes < 1 {
		return fmt.Errorf("CLUSTER_MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes)
	}

	if c.MaxPixels < 1 {
		return fmt.Errorf("CLUSTER_MAX_PIXELS must be positive, got %d", c.MaxPixels)
	}

	if c.MaxConcurrent < 1 || c.MaxConcurrent > 1024 {
		return fmt.Errorf("CLUSTER_MAX_CONCURRENT must be between 1 and 1024, got %d", c.MaxConcurrent)
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("CLUSTER_LOG_LEVEL: %w", err)
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("CLUSTER_LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}

	if d := clusters.Direction(c.DefaultDirection); !d.Valid() {
		return fmt.Errorf("CLUSTER_DEFAULT_DIRECTION must be ltr or rtl, got %q", c.DefaultDirection)
	}

	switch clusters.Policy(c.Policy) {
	case clusters.PolicyContrast, clusters.PolicyLuminance:
	default:
		return fmt.Errorf("CLUSTER_POLICY must be contrast or luminance, got %q", c.Policy)
	}

	if c.AlphaThreshold < 0 || c.AlphaThreshold > 255 {
		return fmt.Errorf("CLUSTER_ALPHA_THRESHOLD must be between 0 and 255, got %d", c.AlphaThreshold)
	}

	if c.ColorTolerance < 0 {
		return fmt.Errorf("CLUSTER_COLOR_TOLERANCE must not be negative, got %g", c.ColorTolerance)
	}

	if c.LuminanceThreshold < 0 || c.LuminanceThreshold > 255 {
		return fmt.Errorf("CLUSTER_LUMINANCE_THRESHOLD must be between 0 and 255, got %d", c.LuminanceThreshold)
	}

	if c.Background != "" {
		if _, err := colorful.Hex(c.Background); err != nil {
			return fmt.Errorf("CLUSTER_BACKGROUND must be a #RRGGBB color, got %q", c.Background)
		}
	}

	if c.Connectivity != 4 && c.Connectivity != 8 {
		return fmt.Errorf("CLUSTER_CONNECTIVITY must be 4 or 8, got %d", c.Connectivity)
	}

	if c.MinArea < 1 {
		return fmt.Errorf("CLUSTER_MIN_AREA must be at least 1, got %d", c.MinArea)
	}

	if c.LineOverlap < 0 || c.LineOverlap >= 1 {
		return fmt.Errorf("CLUSTER_LINE_OVERLAP must be in [0, 1), got %g", c.LineOverlap)
	}

	return nil
}

// AnalysisOptions converts the analysis settings into pipeline options.
// The configuration is expected to have passed Validate.
func (c *Config) AnalysisOptions() clusters.Options {
	opts := clusters.DefaultOptions()

	opts.Classifier.Policy = clusters.Policy(c.Policy)
	opts.Classifier.AlphaThreshold = uint8(c.AlphaThreshold)
	opts.Classifier.ColorTolerance = c.ColorTolerance
	opts.Classifier.LuminanceThreshold = uint8(c.LuminanceThreshold)
	if c.Background != "" {
		if bg, err := colorful.Hex(c.Background); err == nil {
			r, g, b := bg.RGB255()
			opts.Classifier.Background = &color.NRGBA{R: r, G: g, B: b, A: 255}
		}
	}

	opts.Connectivity = clusters.Connectivity(c.Connectivity)
	opts.MinClusterArea = c.MinArea
	opts.Order.DefaultDirection = clusters.Direction(c.DefaultDirection)
	opts.Order.LineOverlap = c.LineOverlap

	return opts
}

// RecognizeOptions returns the glyph recognition settings.
func (c *Config) RecognizeOptions() recognize.Options {
	opts := recognize.DefaultOptions()
	opts.TessdataPrefix = c.TessdataPrefix
	if c.OCRLanguage != "" {
		opts.Language = c.OCRLanguage
	}
	return opts
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// envReader parses numeric variables and keeps the first parse error.
type envReader struct {
	err error
}

func (e *envReader) int(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		e.fail(key, valueStr)
		return defaultValue
	}
	return value
}

func (e *envReader) int64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		e.fail(key, valueStr)
		return defaultValue
	}
	return value
}

func (e *envReader) float(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		e.fail(key, valueStr)
		return defaultValue
	}
	return value
}

func (e *envReader) fail(key, value string) {
	if e.err == nil {
		e.err = fmt.Errorf("%s: invalid number %q", key, value)
	}
}
