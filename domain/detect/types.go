package detect

import (
	"image"

	"github.com/soocke/food-helper-go/domain/vision"
)

// DefaultCandidateLabel labels the suggested template of a run.
const DefaultCandidateLabel = "food effect"

// State enumerates the phases of a detection run.
type State int

const (
	StateIdle State = iota
	StateAwaitingBefore
	StateAwaitingAfter
	StateComparing
	StateDone
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingBefore:
		return "awaiting_before"
	case StateAwaitingAfter:
		return "awaiting_after"
	case StateComparing:
		return "comparing"
	case StateDone:
		return "done"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends a run.
func (s State) Terminal() bool {
	return s == StateDone || s == StateCancelled || s == StateFailed
}

// Active reports whether a run is in flight.
func (s State) Active() bool { return s != StateIdle && !s.Terminal() }

// Candidate is one changed area of a run.
type Candidate struct {
	Region vision.ChangeRegion // capture-local
	Screen image.Rectangle     // screen coordinates
	Image  *image.NRGBA        // crop of the after frame
}

// Result is the outcome of the latest run.
type Result struct {
	RunID      string
	Rect       image.Rectangle
	Before     *image.RGBA
	After      *image.RGBA
	Diff       vision.DiffResult
	Candidates []Candidate
	Artifacts  Artifacts
	Err        error
}

// Suggested returns the first candidate, which is proposed as the food
// effect template.
func (r Result) Suggested() (Candidate, bool) {
	if len(r.Candidates) == 0 {
		return Candidate{}, false
	}
	return r.Candidates[0], true
}

// Listener is called on every state transition from the session goroutine.
type Listener func(prev, next State)

// Contract is the session surface used by presenters.
type Contract interface {
	Begin(rect image.Rectangle)
	ConfirmAte()
	Cancel()
	Close()
	Current() State
	Result() Result
	AddListener(Listener)
}
