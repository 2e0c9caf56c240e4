package presenter

import "time"

// Loop drives the presenters from the Tk timer. The zero value is usable.
type Loop struct {
	Session  *SessionPresenter
	Detect   *DetectPresenter
	AutoEat  *AutoEatPresenter
	Preview  *PreviewPresenter
	Schedule func()
}

func NewLoop(sess *SessionPresenter, det *DetectPresenter, eat *AutoEatPresenter, prev *PreviewPresenter, schedule func()) *Loop {
	return &Loop{Session: sess, Detect: det, AutoEat: eat, Preview: prev, Schedule: schedule}
}

func (l *Loop) Tick() {
	if l == nil {
		return
	}
	now := time.Now()
	l.Detect.Tick(now)
	l.AutoEat.Tick(now)
	l.Session.Tick(now)
	l.Preview.ProcessFrame()
	if l.Schedule != nil {
		l.Schedule()
	}
}
