package templates

import (
	"fmt"
	"image"
	"strings"
)

// Category groups templates into separate collections.
type Category string

const (
	CategoryFood    Category = "food"
	CategoryEffects Category = "effects"
)

// Categories lists every known category.
var Categories = []Category{CategoryFood, CategoryEffects}

// ParseCategory accepts a category name case-insensitively.
func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryFood:
		return CategoryFood, nil
	case CategoryEffects:
		return CategoryEffects, nil
	}
	return "", fmt.Errorf("templates: unknown category %q", s)
}

// Template is a saved screen area plus the file name of its cropped PNG.
// X and Y are screen coordinates.
type Template struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width" validate:"gt=0"`
	Height int    `json:"height" validate:"gt=0"`
	Label  string `json:"label" validate:"required"`
	Name   string `json:"name" validate:"required"`
	File   string `json:"template" validate:"required"`
}

// Key implements store.Record.
func (t Template) Key() string { return t.Name }

// Rect returns the screen rectangle of the template.
func (t Template) Rect() image.Rectangle {
	return image.Rect(t.X, t.Y, t.X+t.Width, t.Y+t.Height)
}

// SafeName lower-cases label and replaces spaces with underscores.
func SafeName(label string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(label)), " ", "_")
}

// FileName is the deterministic PNG name for a template of the given size.
func FileName(cat Category, label string, w, h int) string {
	if cat == CategoryFood {
		return fmt.Sprintf("effect_%s_%dx%d.png", SafeName(label), w, h)
	}
	return fmt.Sprintf("%s_%dx%d.png", SafeName(label), w, h)
}

// NamedFileName is the PNG name for a template the user named explicitly.
func NamedFileName(name string) string {
	return "effect_" + SafeName(name) + ".png"
}

// blacklistEntry records a template removed from its category.
type blacklistEntry struct {
	Template
	Category Category `json:"category" validate:"required"`
}

// Key implements store.Record.
func (b blacklistEntry) Key() string { return string(b.Category) + ":" + b.Name }
