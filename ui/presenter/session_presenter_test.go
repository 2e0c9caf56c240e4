package presenter

import (
	"testing"
	"time"

	"github.com/soocke/food-helper-go/domain/autoeat"
	"github.com/soocke/food-helper-go/ui/model"
)

type mockSessionView struct {
	session, total time.Duration
	eats           int
	calls          int
}

func (v *mockSessionView) SetSession(s, t time.Duration, eats int) {
	v.session, v.total, v.eats = s, t, eats
	v.calls++
}

func TestSessionPresenter_Tick(t *testing.T) {
	eater := &mockEater{}
	view := &mockSessionView{}
	sm := model.NewSessionModel()
	p := NewSessionPresenter(sm, eater, view)

	t0 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	eater.running = true
	p.Tick(t0)
	eater.status = autoeat.Status{Running: true, Eats: 2}
	p.Tick(t0.Add(40 * time.Second))
	if view.session != 40*time.Second || view.total != 40*time.Second || view.eats != 2 {
		t.Fatalf("unexpected values %+v", view)
	}
	eater.running = false
	p.Tick(t0.Add(60 * time.Second))
	if view.session != time.Minute || view.total != time.Minute || sm.Sessions() != 1 {
		t.Fatalf("unexpected values after stop %+v", view)
	}
}

func TestLoop_NilPresentersAreSkipped(t *testing.T) {
	scheduled := 0
	l := NewLoop(nil, nil, nil, nil, func() { scheduled++ })
	l.Tick()
	if scheduled != 1 {
		t.Fatalf("schedule not called")
	}
	var nilLoop *Loop
	nilLoop.Tick()
}

func TestLoop_TicksPresenters(t *testing.T) {
	eater := &mockEater{running: true}
	view := &mockSessionView{}
	sess := NewSessionPresenter(model.NewSessionModel(), eater, view)
	l := NewLoop(sess, nil, nil, nil, nil)
	l.Tick()
	l.Tick()
	if view.calls != 2 {
		t.Fatalf("session presenter ticked %d times", view.calls)
	}
}
