package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const envPrefix = "FOODHELPER_"

// ApplyEnv loads envFile (if present) into the process environment and then
// overrides fields from FOODHELPER_* variables. Unparseable values are
// reported and skipped.
func ApplyEnv(c *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}
	var errs []error
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		v, ok := lookup(name)
		if !ok {
			return
		}
		i, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
			return
		}
		*dst = i
	}
	float := func(name string, dst *float64) {
		v, ok := lookup(name)
		if !ok {
			return
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
			return
		}
		*dst = f
	}
	if v, ok := lookup("DEBUG"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sDEBUG: %w", envPrefix, err))
		} else {
			c.Debug = b
		}
	}
	str("DATA_DIR", &c.DataDir)
	str("LOG_DIR", &c.LogDir)
	str("EAT_KEY", &c.EatKey)
	str("PROBE_MODE", &c.ProbeMode)
	str("FOOD_TEMPLATE", &c.FoodTemplate)
	num("DIFF_THRESHOLD", &c.DiffThreshold)
	num("MIN_REGION_AREA", &c.MinRegionArea)
	num("PROBE_INTERVAL_MS", &c.ProbeIntervalMs)
	num("COMPARE_DELAY_MS", &c.CompareDelayMs)
	float("MATCH_THRESHOLD", &c.MatchThreshold)
	float("BRIGHTNESS_THRESHOLD", &c.BrightnessThreshold)
	return errors.Join(errs...)
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}
