package presenter

import (
	"time"

	"github.com/soocke/food-helper-go/domain/autoeat"
	"github.com/soocke/food-helper-go/ui/model"
)

// EaterState reports whether auto-eat runs and its counters.
type EaterState interface {
	Running() bool
	Status() autoeat.Status
}

// SessionView displays session and total durations plus the eat count.
type SessionView interface {
	SetSession(session, total time.Duration, eats int)
}

// SessionPresenter feeds the session model from the auto-eat loop.
type SessionPresenter struct {
	sess  *model.SessionModel
	eater EaterState
	view  SessionView
}

func NewSessionPresenter(sess *model.SessionModel, eater EaterState, view SessionView) *SessionPresenter {
	return &SessionPresenter{sess: sess, eater: eater, view: view}
}

// Tick advances the model and pushes values to the view.
func (p *SessionPresenter) Tick(now time.Time) {
	if p == nil || p.sess == nil || p.eater == nil || p.view == nil {
		return
	}
	p.sess.OnTick(p.eater.Running(), p.eater.Status().Eats, now)
	s, t := p.sess.Values()
	p.view.SetSession(s, t, p.sess.Eats())
}
