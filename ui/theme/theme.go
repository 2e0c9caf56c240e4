package theme

// Palette and ttk styles for the food helper window.

import (
	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Palette defines the semantic colors used across widgets.
type Palette struct {
	AppBg   string
	Surface string
	Primary string
	Danger  string
	Accent  string
	Warn    string
	Text    string
}

var (
	light = Palette{
		AppBg:   "#f7f9fb",
		Surface: "#ffffff",
		Primary: "#2563eb",
		Danger:  "#dc2626",
		Accent:  "#10b981",
		Warn:    "#d97706",
		Text:    "#1e293b",
	}
	dark = Palette{
		AppBg:   "#0f172a",
		Surface: "#1e293b",
		Primary: "#3b82f6",
		Danger:  "#ef4444",
		Accent:  "#10b981",
		Warn:    "#f59e0b",
		Text:    "#f1f5f9",
	}
)

// Style names used with Style("primary.TButton") etc.
const (
	StylePrimaryButton = "primary.TButton"
	StyleDangerButton  = "danger.TButton"
	StyleStateLabel    = "state.TLabel"
	StyleEatLabel      = "eat.TLabel"
)

var darkMode bool

// Current returns the palette in use.
func Current() Palette {
	if darkMode {
		return dark
	}
	return light
}

// InitStyles activates the base theme and configures the named styles.
func InitStyles(useDark bool) {
	darkMode = useDark
	p := Current()
	_ = ActivateTheme("azure light")
	App.Configure(Background(p.AppBg))

	StyleConfigure(StylePrimaryButton, Background(p.Primary), Foreground("white"), Padding("4p 3p"), Borderwidth(1), Relief("ridge"))
	StyleConfigure(StyleDangerButton, Background(p.Danger), Foreground("white"), Padding("4p 3p"), Borderwidth(1), Relief("ridge"))
	StyleConfigure(StyleStateLabel, Foreground("white"), Background(p.Accent), Padding("4p 2p"), Borderwidth(1), Relief("groove"))
	StyleConfigure(StyleEatLabel, Foreground(p.Text), Background(p.Surface), Padding("2p 1p"))
}
