package model

import (
	"image"
	"sync"
)

// RegionModel holds the region currently edited in the UI. The preview
// poller reads it from its own goroutine.
type RegionModel struct {
	mu    sync.RWMutex
	label string
	rect  image.Rectangle
}

func NewRegionModel(label string) *RegionModel { return &RegionModel{label: label} }

// SetRect stores r in screen coordinates. Rectangles without area clear it.
func (m *RegionModel) SetRect(r image.Rectangle) {
	if m == nil {
		return
	}
	r = r.Canon()
	if r.Dx() <= 0 || r.Dy() <= 0 {
		r = image.Rectangle{}
	}
	m.mu.Lock()
	m.rect = r
	m.mu.Unlock()
}

// Rect returns the current rectangle and whether it is set.
func (m *RegionModel) Rect() (image.Rectangle, bool) {
	if m == nil {
		return image.Rectangle{}, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rect, !m.rect.Empty()
}

func (m *RegionModel) SetLabel(label string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.label = label
	m.mu.Unlock()
}

func (m *RegionModel) Label() string {
	if m == nil {
		return ""
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.label
}
