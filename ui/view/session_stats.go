package view

import (
	"fmt"
	"time"

	//lint:ignore ST1001 Dot import for concise Tk widget DSL.
	. "modernc.org/tk9.0"
)

// SessionStats shows auto-eat session and total durations and the eat count.
type SessionStats interface {
	SetSession(d time.Duration)
	SetTotal(d time.Duration)
	SetEats(n int)
}

type sessionStats struct {
	sessionLbl *LabelWidget
	totalLbl   *LabelWidget
	eatsLbl    *LabelWidget
	eats       int
}

// NewSessionStats grids the three labels inside parent starting at
// (row, startCol).
func NewSessionStats(parent *FrameWidget, row, startCol int) SessionStats {
	s := &sessionStats{sessionLbl: Label(Width(14)), totalLbl: Label(Width(14)), eatsLbl: Label(Width(10)), eats: -1}
	for i, l := range []*LabelWidget{s.sessionLbl, s.totalLbl, s.eatsLbl} {
		if parent != nil {
			Grid(l, In(parent), Row(row), Column(startCol+i), Sticky("w"), Padx("0.2m"))
		} else {
			Grid(l, Row(row), Column(startCol+i), Sticky("w"), Padx("0.2m"))
		}
	}
	s.SetSession(0)
	s.SetTotal(0)
	s.SetEats(0)
	return s
}

func (s *sessionStats) SetSession(d time.Duration) {
	if s == nil || s.sessionLbl == nil {
		return
	}
	s.sessionLbl.Configure(Txt("Session: " + formatClock(d)))
}

func (s *sessionStats) SetTotal(d time.Duration) {
	if s == nil || s.totalLbl == nil {
		return
	}
	s.totalLbl.Configure(Txt("Total: " + formatClock(d)))
}

func (s *sessionStats) SetEats(n int) {
	if s == nil || s.eatsLbl == nil || n == s.eats {
		return
	}
	s.eats = n
	s.eatsLbl.Configure(Txt(fmt.Sprintf("Eats: %d", n)))
}

// formatClock renders d as mm:ss, or h:mm:ss past one hour.
func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	seconds := int(d.Seconds())
	h, m, sec := seconds/3600, seconds/60%60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%02d:%02d", m, sec)
}
