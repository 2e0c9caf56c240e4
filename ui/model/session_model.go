package model

import (
	"time"
)

// SessionModel tracks how long auto-eat has been running in the current
// session and across the whole app run, plus how often it ate.
// The zero value is ready to use.
type SessionModel struct {
	active   bool
	start    time.Time
	last     time.Duration
	total    time.Duration
	sessions int
	eats     int
}

func NewSessionModel() *SessionModel { return &SessionModel{} }

// OnTick folds the current auto-eat state into the model. eats is the
// cumulative count reported by the loop.
func (m *SessionModel) OnTick(running bool, eats int, now time.Time) {
	if m == nil {
		return
	}
	if eats > m.eats {
		m.eats = eats
	}
	switch {
	case running && !m.active:
		m.active = true
		m.start = now
		m.last = 0
		m.sessions++
	case running:
		m.last = now.Sub(m.start)
	case m.active:
		m.last = now.Sub(m.start)
		m.total += m.last
		m.active = false
	}
}

// Values returns the current session duration and the total including the
// running session.
func (m *SessionModel) Values() (session, total time.Duration) {
	if m == nil {
		return 0, 0
	}
	session = m.last
	total = m.total
	if m.active {
		total += session
	}
	return
}

// Eats is the number of eat presses seen.
func (m *SessionModel) Eats() int {
	if m == nil {
		return 0
	}
	return m.eats
}

// Sessions counts how many times auto-eat was started.
func (m *SessionModel) Sessions() int {
	if m == nil {
		return 0
	}
	return m.sessions
}
