package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
)

// AppName names the per-user directories and the env prefix.
const AppName = "food-helper"

// Probe modes for the auto-eat loop.
const (
	ProbeBrightness = "brightness"
	ProbeTemplate   = "template"
)

var (
	json     = jsoniter.ConfigCompatibleWithStandardLibrary
	validate = validator.New()
)

// Config holds runtime configuration for detection, probing and app behavior.
// Fields may be loaded from a JSON file, overridden by the environment and
// then by command-line flags.
type Config struct {
	Debug   bool   `json:"debug"`
	DataDir string `json:"data_dir" validate:"required"`
	LogDir  string `json:"log_dir" validate:"required"`

	// Frame differencer
	DiffThreshold int `json:"diff_threshold" validate:"gte=0,lte=255"`
	MinRegionArea int `json:"min_region_area" validate:"gte=0"`

	// Template matcher
	MatchThreshold float64 `json:"match_threshold" validate:"gt=0,lte=1"`
	MatchStride    int     `json:"match_stride" validate:"gte=1"`
	MatchRefine    bool    `json:"match_refine"`

	// Presence probe / auto-eat
	BrightnessThreshold float64 `json:"brightness_threshold" validate:"gte=0,lte=255"`
	ProbeMode           string  `json:"probe_mode" validate:"oneof=brightness template"`
	ProbeIntervalMs     int     `json:"probe_interval_ms" validate:"gte=200,lte=10000"`
	EatKey              string  `json:"eat_key" validate:"required"`
	EatCooldownMs       int     `json:"eat_cooldown_ms" validate:"gte=0"`
	FoodTemplate        string  `json:"food_template"`

	// Detection run
	CompareDelayMs int `json:"compare_delay_ms" validate:"gte=0"`

	// UI
	PreviewIntervalMs int    `json:"preview_interval_ms" validate:"gte=50"`
	FoodRegion        string `json:"food_region" validate:"required"`
	EffectsRegion     string `json:"effects_region" validate:"required"`

	TemplateCacheSize int `json:"template_cache_size" validate:"gte=1"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:               false,
		DataDir:             filepath.Join(xdg.DataHome, AppName),
		LogDir:              filepath.Join(xdg.StateHome, AppName, "logs"),
		DiffThreshold:       30,
		MinRegionArea:       100,
		MatchThreshold:      0.85,
		MatchStride:         1,
		MatchRefine:         true,
		BrightnessThreshold: 10,
		ProbeMode:           ProbeBrightness,
		ProbeIntervalMs:     5000,
		EatKey:              "E",
		EatCooldownMs:       5000,
		CompareDelayMs:      5000,
		PreviewIntervalMs:   500,
		FoodRegion:          "food_slot",
		EffectsRegion:       "effects_area",
		TemplateCacheSize:   32,
	}
}

// DefaultPath is the location of the config file when none is given.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.json")
}

// Validate clamps numeric values to safe ranges and then checks the
// remaining constraints. It returns an error only for values it cannot fix.
func (c *Config) Validate() error {
	d := DefaultConfig()
	if c.DataDir == "" {
		c.DataDir = d.DataDir
	}
	if c.LogDir == "" {
		c.LogDir = d.LogDir
	}
	if c.DiffThreshold < 0 || c.DiffThreshold > 255 {
		c.DiffThreshold = d.DiffThreshold
	}
	if c.MinRegionArea < 0 {
		c.MinRegionArea = d.MinRegionArea
	}
	if c.MatchThreshold <= 0 || c.MatchThreshold > 1 {
		c.MatchThreshold = d.MatchThreshold
	}
	if c.MatchStride <= 0 {
		c.MatchStride = d.MatchStride
	}
	if c.BrightnessThreshold < 0 || c.BrightnessThreshold > 255 {
		c.BrightnessThreshold = d.BrightnessThreshold
	}
	c.ProbeMode = strings.ToLower(strings.TrimSpace(c.ProbeMode))
	if c.ProbeMode == "" {
		c.ProbeMode = d.ProbeMode
	}
	if c.ProbeIntervalMs < 200 {
		c.ProbeIntervalMs = 200
	} else if c.ProbeIntervalMs > 10000 {
		c.ProbeIntervalMs = 10000
	}
	c.EatKey = strings.TrimSpace(c.EatKey)
	if c.EatKey == "" {
		c.EatKey = d.EatKey
	}
	if c.EatCooldownMs < 0 {
		c.EatCooldownMs = d.EatCooldownMs
	}
	if c.CompareDelayMs < 0 {
		c.CompareDelayMs = d.CompareDelayMs
	}
	if c.PreviewIntervalMs < 50 {
		c.PreviewIntervalMs = d.PreviewIntervalMs
	}
	if c.FoodRegion == "" {
		c.FoodRegion = d.FoodRegion
	}
	if c.EffectsRegion == "" {
		c.EffectsRegion = d.EffectsRegion
	}
	if c.TemplateCacheSize <= 0 {
		c.TemplateCacheSize = d.TemplateCacheSize
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ProbeInterval is the auto-eat tick period.
func (c *Config) ProbeInterval() time.Duration {
	return time.Duration(c.ProbeIntervalMs) * time.Millisecond
}

// EatCooldown is the hold-off after a key press.
func (c *Config) EatCooldown() time.Duration {
	return time.Duration(c.EatCooldownMs) * time.Millisecond
}

// CompareDelay is the wait between the before and after capture.
func (c *Config) CompareDelay() time.Duration {
	return time.Duration(c.CompareDelayMs) * time.Millisecond
}

// PreviewInterval is the live preview refresh period.
func (c *Config) PreviewInterval() time.Duration {
	return time.Duration(c.PreviewIntervalMs) * time.Millisecond
}

// Load attempts to read configuration from the given JSON file path. If the file does not
// exist it returns DefaultConfig(). On JSON error it returns defaults with the error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
