package view

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/soocke/food-helper-go/config"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// ConfigPanel is the settings form. ApplyChanges writes the parsed values
// back into the bound *config.Config and saves it.
type ConfigPanel interface {
	Build(startRow int) (endRow int)
	SetEditable(enabled bool)
	ApplyChanges() error
}

type configPanel struct {
	cfg       *config.Config
	cfgPath   string
	logger    *slog.Logger
	onApplied func(*config.Config)
	applyBtn  *ButtonWidget
	widgets   map[string]*TextWidget
}

// NewConfigPanel creates the form bound to cfg. onApplied runs after a
// successful save.
func NewConfigPanel(cfg *config.Config, cfgPath string, onApplied func(*config.Config), logger *slog.Logger) ConfigPanel {
	return &configPanel{cfg: cfg, cfgPath: cfgPath, onApplied: onApplied, logger: logger, widgets: make(map[string]*TextWidget)}
}

func (v *configPanel) Build(startRow int) (row int) {
	c := v.cfg
	row = startRow
	makeRow := func(id, label, value string) {
		lbl := Label(Txt(label), Anchor("w"))
		Grid(lbl, Row(row), Column(0), Sticky("w"), Padx("0.4m"), Pady("0.15m"))
		w := Text(Height(1), Width(16))
		Grid(w, Row(row), Column(1), Sticky("we"), Padx("0.4m"), Pady("0.15m"))
		w.Delete("1.0", END)
		w.Insert("1.0", value)
		v.widgets[id] = w
		row++
	}
	makeRow("diffThreshold", "Diff Threshold (0-255)", strconv.Itoa(c.DiffThreshold))
	makeRow("minRegionArea", "Min Region Area", strconv.Itoa(c.MinRegionArea))
	makeRow("matchThreshold", "Match Threshold", fmt.Sprintf("%.2f", c.MatchThreshold))
	makeRow("matchRefine", "Match Refine (true/false)", strconv.FormatBool(c.MatchRefine))
	makeRow("brightnessThreshold", "Brightness Threshold", fmt.Sprintf("%.1f", c.BrightnessThreshold))
	makeRow("probeMode", "Probe Mode (brightness/template)", c.ProbeMode)
	makeRow("probeIntervalMs", "Probe Interval ms", strconv.Itoa(c.ProbeIntervalMs))
	makeRow("eatKey", "Eat Key (e.g. E or F3)", c.EatKey)
	makeRow("eatCooldownMs", "Eat Cooldown ms", strconv.Itoa(c.EatCooldownMs))
	makeRow("compareDelayMs", "Compare Delay ms", strconv.Itoa(c.CompareDelayMs))
	v.applyBtn = Button(Txt("Apply Changes"), Command(func() { _ = v.ApplyChanges() }))
	Grid(v.applyBtn, Row(row), Column(0), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	row++
	return row
}

func (v *configPanel) SetEditable(enabled bool) {
	state := "disabled"
	if enabled {
		state = "normal"
	}
	for _, w := range v.widgets {
		if w != nil {
			w.Configure(State(state))
		}
	}
	if v.applyBtn != nil {
		v.applyBtn.Configure(State(state))
	}
}

func (v *configPanel) fields() map[string]string {
	out := make(map[string]string, len(v.widgets))
	for id, w := range v.widgets {
		out[id] = textOf(w)
	}
	return out
}

func (v *configPanel) ApplyChanges() error {
	if v.cfg == nil {
		return nil
	}
	cfg := *v.cfg
	applyFields(&cfg, v.fields())
	if err := cfg.Validate(); err != nil {
		if v.logger != nil {
			v.logger.Warn("config rejected", "error", err)
		}
		return err
	}
	*v.cfg = cfg
	if err := v.cfg.Save(v.cfgPath); err != nil {
		if v.logger != nil {
			v.logger.Error("config save failed", "error", err)
		}
		return err
	}
	if v.logger != nil {
		v.logger.Info("config saved", "path", v.cfgPath)
	}
	if v.onApplied != nil {
		v.onApplied(v.cfg)
	}
	return nil
}

// applyFields parses form values into cfg. Blank or unparsable fields keep
// their current value.
func applyFields(cfg *config.Config, f map[string]string) {
	assignInt := func(id string, dst *int) {
		if i, ok := parseIntField(f[id]); ok {
			*dst = i
		}
	}
	assignFloat := func(id string, dst *float64) {
		if x, ok := parseFloatField(f[id]); ok {
			*dst = x
		}
	}
	assignString := func(id string, dst *string) {
		if s := strings.TrimSpace(f[id]); s != "" {
			*dst = s
		}
	}
	assignInt("diffThreshold", &cfg.DiffThreshold)
	assignInt("minRegionArea", &cfg.MinRegionArea)
	assignFloat("matchThreshold", &cfg.MatchThreshold)
	if b, ok := parseBoolLoose(f["matchRefine"]); ok {
		cfg.MatchRefine = b
	}
	assignFloat("brightnessThreshold", &cfg.BrightnessThreshold)
	assignString("probeMode", &cfg.ProbeMode)
	assignInt("probeIntervalMs", &cfg.ProbeIntervalMs)
	assignString("eatKey", &cfg.EatKey)
	assignInt("eatCooldownMs", &cfg.EatCooldownMs)
	assignInt("compareDelayMs", &cfg.CompareDelayMs)
}

func textOf(w *TextWidget) string {
	if w == nil {
		return ""
	}
	return strings.TrimSpace(strings.Join(w.Get("1.0", END), ""))
}

func setText(w *TextWidget, s string) {
	if w == nil {
		return
	}
	w.Delete("1.0", END)
	w.Insert("1.0", s)
}

func parseFloatField(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func parseIntField(s string) (int, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return i, true
}

func parseBoolLoose(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y", "on", "t":
		return true, true
	case "false", "0", "no", "n", "off", "f":
		return false, true
	default:
		return false, false
	}
}
