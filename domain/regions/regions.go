package regions

import (
	"image"
	"log/slog"

	"github.com/soocke/food-helper-go/domain/store"
)

// Well-known region labels.
const (
	LabelFoodSlot    = "food_slot"
	LabelEffectsArea = "effects_area"
)

// Region is a named screen rectangle.
type Region struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width" validate:"gt=0"`
	Height int    `json:"height" validate:"gt=0"`
	Label  string `json:"label" validate:"required"`
}

// Key implements store.Record.
func (r Region) Key() string { return r.Label }

// Rect returns the screen rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// FromRect builds a Region from a screen rectangle.
func FromRect(label string, rect image.Rectangle) Region {
	rect = rect.Canon()
	return Region{X: rect.Min.X, Y: rect.Min.Y, Width: rect.Dx(), Height: rect.Dy(), Label: label}
}

// Service persists region settings as a JSON object keyed by label.
type Service struct {
	col *store.Collection[Region]
}

// NewService opens the settings file at path.
func NewService(path string, logger *slog.Logger) (*Service, error) {
	col, err := store.Open[Region](path, store.LayoutObject, logger)
	if err != nil {
		return nil, err
	}
	return &Service{col: col}, nil
}

// Save stores r, replacing any region with the same label.
func (s *Service) Save(r Region) error { return s.col.Upsert(r) }

// Get returns the region with label.
func (s *Service) Get(label string) (Region, bool) { return s.col.Get(label) }

// All returns a snapshot of every region.
func (s *Service) All() []Region { return s.col.List() }

// Delete removes label.
func (s *Service) Delete(label string) error {
	_, err := s.col.Delete(label)
	return err
}
