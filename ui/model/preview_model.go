package model

import "sync/atomic"

// PreviewModel tracks whether the live preview is on. The zero value is off.
type PreviewModel struct{ enabled atomic.Bool }

// Enabled reports whether the preview is on.
func (m *PreviewModel) Enabled() bool {
	if m == nil {
		return false
	}
	return m.enabled.Load()
}

// SetEnabled stores the flag.
func (m *PreviewModel) SetEnabled(b bool) {
	if m == nil {
		return
	}
	m.enabled.Store(b)
}
