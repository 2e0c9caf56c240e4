package model

import "github.com/soocke/food-helper-go/domain/detect"

// ReviewItem is one change crop waiting for a decision.
type ReviewItem struct {
	Candidate detect.Candidate
	File      string // crop PNG on disk, may be empty
}

// ReviewModel is the queue of crops shown after a detection run. Only the
// UI goroutine touches it.
type ReviewModel struct {
	items []ReviewItem
	pos   int
}

// Load replaces the queue with the candidates of res.
func (m *ReviewModel) Load(res detect.Result) {
	if m == nil {
		return
	}
	m.items = m.items[:0]
	m.pos = 0
	for i, c := range res.Candidates {
		it := ReviewItem{Candidate: c}
		if i < len(res.Artifacts.Changes) {
			it.File = res.Artifacts.Changes[i]
		}
		m.items = append(m.items, it)
	}
}

// Current returns the item under review.
func (m *ReviewModel) Current() (ReviewItem, bool) {
	if m == nil || m.pos >= len(m.items) {
		return ReviewItem{}, false
	}
	return m.items[m.pos], true
}

// Advance moves to the next item and reports whether one remains.
func (m *ReviewModel) Advance() bool {
	if m == nil {
		return false
	}
	if m.pos < len(m.items) {
		m.pos++
	}
	return m.pos < len(m.items)
}

// Position returns the 1-based index of the current item and the total.
func (m *ReviewModel) Position() (int, int) {
	if m == nil {
		return 0, 0
	}
	return min(m.pos+1, len(m.items)), len(m.items)
}

// Clear drops the queue.
func (m *ReviewModel) Clear() {
	if m == nil {
		return
	}
	m.items = nil
	m.pos = 0
}
