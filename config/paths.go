package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths lists the on-disk layout under DataDir.
type Paths struct {
	Root      string
	Templates string
	Food      string
	Effects   string
	Blacklist string
	Temp      string
	Diff      string
	Settings  string
}

// Paths resolves the data layout for this configuration.
func (c *Config) Paths() Paths {
	root := c.DataDir
	tpl := filepath.Join(root, "templates")
	temp := filepath.Join(tpl, "temp")
	return Paths{
		Root:      root,
		Templates: tpl,
		Food:      filepath.Join(tpl, "food"),
		Effects:   filepath.Join(tpl, "effects"),
		Blacklist: filepath.Join(tpl, "blacklist"),
		Temp:      temp,
		Diff:      filepath.Join(temp, "diff"),
		Settings:  filepath.Join(root, "config", "settings.json"),
	}
}

// EnsureDirs creates every directory the app writes into.
func (p Paths) EnsureDirs() error {
	for _, dir := range []string{p.Food, p.Effects, p.Blacklist, p.Diff, filepath.Dir(p.Settings)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create %s: %w", dir, err)
		}
	}
	return nil
}
