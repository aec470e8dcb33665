package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"ENVIRONMENT", "LOG_LEVEL", "SOURCE_LANG", "TARGET_LANG", "SOURCE_DELIMITER",
		"TARGET_DELIMITER", "MIN_CONFIDENCE", "MAX_LABELS", "TRANSLATE_MODE",
		"IMAGE_ENCODING", "FETCH_TIMEOUT", "MAX_IMAGE_BYTES",
	} {
		t.Setenv(key, "")
	}

	cfg, _, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "en", cfg.Translation.SourceLang)
	assert.Equal(t, "pt", cfg.Translation.TargetLang)
	assert.Equal(t, " and ", cfg.Translation.SourceDelimiter)
	assert.Equal(t, " e ", cfg.Translation.TargetDelimiter)
	assert.Equal(t, TranslateJoined, cfg.Translation.Mode)
	assert.Equal(t, 80.0, cfg.Detection.MinConfidence)
	assert.Equal(t, int32(0), cfg.Detection.MaxLabels)
	assert.Equal(t, EncodingAuto, cfg.Fetch.Encoding)
	assert.Equal(t, 10*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, "prod", cfg.Environment)
	assert.False(t, cfg.IsDev())
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		key      string
		value    string
		errorMsg string
	}{
		{"MIN_CONFIDENCE", "eighty", `MIN_CONFIDENCE: invalid number "eighty"`},
		{"MAX_LABELS", "lots", `MAX_LABELS: invalid integer "lots"`},
		{"MAX_IMAGE_BYTES", "15MB", `MAX_IMAGE_BYTES: invalid integer "15MB"`},
		{"FETCH_TIMEOUT", "10", `FETCH_TIMEOUT: invalid duration "10"`},
		{"JPEG_QUALITY", "high", `JPEG_QUALITY: invalid integer "high"`},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			cfg, _, err := Load()
			assert.Nil(t, cfg)
			assert.EqualError(t, err, tt.errorMsg)
		})
	}
}

func TestLoadReportsEveryInvalidValue(t *testing.T) {
	t.Setenv("MIN_CONFIDENCE", "eighty")
	t.Setenv("FETCH_TIMEOUT", "soon")

	_, _, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MIN_CONFIDENCE")
	assert.Contains(t, err.Error(), "FETCH_TIMEOUT")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "dev")
	t.Setenv("MAX_LABELS", "25")
	t.Setenv("TARGET_LANG", "es")
	t.Setenv("TARGET_DELIMITER", " y ")
	t.Setenv("MIN_CONFIDENCE", "90.5")
	t.Setenv("TRANSLATE_MODE", "PER-LABEL")
	t.Setenv("FETCH_TIMEOUT", "3s")
	t.Setenv("IMAGE_ENCODING", "raw")

	cfg, _, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "es", cfg.Translation.TargetLang)
	assert.Equal(t, " y ", cfg.Translation.TargetDelimiter)
	assert.Equal(t, 90.5, cfg.Detection.MinConfidence)
	assert.Equal(t, TranslatePerLabel, cfg.Translation.Mode)
	assert.Equal(t, 3*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, EncodingRaw, cfg.Fetch.Encoding)
	assert.Equal(t, int32(25), cfg.Detection.MaxLabels)
	assert.True(t, cfg.IsDev())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Detection: DetectionConfig{MinConfidence: 80, MaxLabels: 10},
			Translation: TranslationConfig{
				SourceLang: "en", TargetLang: "pt",
				SourceDelimiter: " and ", TargetDelimiter: " e ",
				Mode: TranslateJoined,
			},
			Fetch: FetchConfig{Timeout: time.Second, MaxBytes: 1024, Encoding: EncodingAuto},
			Image: ImageConfig{MaxDimension: 1024, JPEGQuality: 85},
		}
	}

	tests := []struct {
		name     string
		mutate   func(*Config)
		errorMsg string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing source", func(c *Config) { c.Translation.SourceLang = "" }, "SOURCE_LANG is required"},
		{"missing target", func(c *Config) { c.Translation.TargetLang = "" }, "TARGET_LANG is required"},
		{"same languages", func(c *Config) { c.Translation.TargetLang = "en" }, "SOURCE_LANG and TARGET_LANG must be different"},
		{"empty delimiter", func(c *Config) { c.Translation.TargetDelimiter = "" }, "SOURCE_DELIMITER and TARGET_DELIMITER must not be empty"},
		{"bad mode", func(c *Config) { c.Translation.Mode = "batch" }, `unknown TRANSLATE_MODE "batch"`},
		{"bad encoding", func(c *Config) { c.Fetch.Encoding = "hex" }, `unknown IMAGE_ENCODING "hex"`},
		{"confidence too high", func(c *Config) { c.Detection.MinConfidence = 101 }, "MIN_CONFIDENCE must be within [0, 100], got 101"},
		{"unlimited labels", func(c *Config) { c.Detection.MaxLabels = 0 }, ""},
		{"negative labels", func(c *Config) { c.Detection.MaxLabels = -1 }, "MAX_LABELS must not be negative"},
		{"bad quality", func(c *Config) { c.Image.JPEGQuality = 0 }, "JPEG_QUALITY must be within [1, 100]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.errorMsg)
		})
	}
}
