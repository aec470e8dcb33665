// Package config loads the image labeler settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Translation strategies.
const (
	TranslateJoined   = "joined"
	TranslatePerLabel = "per-label"
)

// Image body encodings.
const (
	EncodingAuto   = "auto"
	EncodingRaw    = "raw"
	EncodingBase64 = "base64"
)

type Config struct {
	Environment string
	LogLevel    string
	ServiceName string

	Detection   DetectionConfig
	Translation TranslationConfig
	Fetch       FetchConfig
	Image       ImageConfig
	Telemetry   TelemetryConfig
}

type DetectionConfig struct {
	MinConfidence float64
	MaxLabels     int32
}

type TranslationConfig struct {
	SourceLang      string
	TargetLang      string
	SourceDelimiter string
	TargetDelimiter string
	Mode            string
}

type FetchConfig struct {
	Timeout  time.Duration
	MaxBytes int64
	Encoding string
}

type ImageConfig struct {
	MaxDimension int
	JPEGQuality  int
}

type TelemetryConfig struct {
	OTLPEndpoint string
}

// Load reads an optional .env file and then the process environment.
// It returns whether a .env file was found so callers can log it once
// they have a logger. Numeric and duration values that do not parse are
// reported as errors rather than replaced by their defaults.
func Load() (*Config, bool, error) {
	dotenv := godotenv.Load() == nil

	var p envParser
	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "prod"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		ServiceName: getEnv("SERVICE_NAME", "image-labeler"),
		Detection: DetectionConfig{
			MinConfidence: p.asFloat("MIN_CONFIDENCE", 80),
			MaxLabels:     int32(p.asInt("MAX_LABELS", 0)), // 0 means no limit
		},
		Translation: TranslationConfig{
			SourceLang:      getEnv("SOURCE_LANG", "en"),
			TargetLang:      getEnv("TARGET_LANG", "pt"),
			SourceDelimiter: getEnvRaw("SOURCE_DELIMITER", " and "),
			TargetDelimiter: getEnvRaw("TARGET_DELIMITER", " e "),
			Mode:            strings.ToLower(getEnv("TRANSLATE_MODE", TranslateJoined)),
		},
		Fetch: FetchConfig{
			Timeout:  p.asDuration("FETCH_TIMEOUT", 10*time.Second),
			MaxBytes: p.asInt64("MAX_IMAGE_BYTES", 15*1024*1024), // 15MB
			Encoding: strings.ToLower(getEnv("IMAGE_ENCODING", EncodingAuto)),
		},
		Image: ImageConfig{
			MaxDimension: p.asInt("MAX_DIMENSION", 4096),
			JPEGQuality:  p.asInt("JPEG_QUALITY", 85),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		},
	}

	if len(p.errs) > 0 {
		return nil, dotenv, errors.Join(p.errs...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, dotenv, err
	}
	return cfg, dotenv, nil
}

// Validate checks the settings are usable.
func (c *Config) Validate() error {
	if c.Translation.SourceLang == "" {
		return fmt.Errorf("SOURCE_LANG is required")
	}
	if c.Translation.TargetLang == "" {
		return fmt.Errorf("TARGET_LANG is required")
	}
	if c.Translation.SourceLang == c.Translation.TargetLang {
		return fmt.Errorf("SOURCE_LANG and TARGET_LANG must be different")
	}
	if c.Translation.SourceDelimiter == "" || c.Translation.TargetDelimiter == "" {
		return fmt.Errorf("SOURCE_DELIMITER and TARGET_DELIMITER must not be empty")
	}
	switch c.Translation.Mode {
	case TranslateJoined, TranslatePerLabel:
	default:
		return fmt.Errorf("unknown TRANSLATE_MODE %q", c.Translation.Mode)
	}
	switch c.Fetch.Encoding {
	case EncodingAuto, EncodingRaw, EncodingBase64:
	default:
		return fmt.Errorf("unknown IMAGE_ENCODING %q", c.Fetch.Encoding)
	}
	if c.Detection.MinConfidence < 0 || c.Detection.MinConfidence > 100 {
		return fmt.Errorf("MIN_CONFIDENCE must be within [0, 100], got %v", c.Detection.MinConfidence)
	}
	if c.Detection.MaxLabels < 0 {
		return fmt.Errorf("MAX_LABELS must not be negative")
	}
	if c.Fetch.MaxBytes <= 0 {
		return fmt.Errorf("MAX_IMAGE_BYTES must be positive")
	}
	if c.Image.JPEGQuality < 1 || c.Image.JPEGQuality > 100 {
		return fmt.Errorf("JPEG_QUALITY must be within [1, 100]")
	}
	if c.Image.MaxDimension <= 0 {
		return fmt.Errorf("MAX_DIMENSION must be positive")
	}
	return nil
}

// IsDev reports whether the function runs in the development environment.
func (c *Config) IsDev() bool {
	return c.Environment == "dev"
}

func getEnv(key, defaultVal string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultVal
}

// getEnvRaw keeps surrounding whitespace, which is significant for delimiters.
func getEnvRaw(key, defaultVal string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultVal
}

// envParser reads typed values and remembers every value that failed to parse.
type envParser struct {
	errs []error
}

func (p *envParser) asInt(key string, defaultVal int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultVal
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid integer %q", key, value))
		return defaultVal
	}
	return intVal
}

func (p *envParser) asInt64(key string, defaultVal int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultVal
	}
	intVal, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid integer %q", key, value))
		return defaultVal
	}
	return intVal
}

func (p *envParser) asFloat(key string, defaultVal float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultVal
	}
	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid number %q", key, value))
		return defaultVal
	}
	return floatVal
}

func (p *envParser) asDuration(key string, defaultVal time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultVal
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid duration %q", key, value))
		return defaultVal
	}
	return duration
}
