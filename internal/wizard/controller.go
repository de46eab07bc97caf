// Package wizard drives the user through the ordered steps of a flow.
// Positions are ephemeral UI state and are never persisted.
package wizard

import (
	"errors"
	"fmt"

	"github.com/iliyamo/staywizard/internal/model"
)

var (
	// ErrIncomplete is wrapped by IncompleteError.
	ErrIncomplete = errors.New("wizard: current position is incomplete")
	// ErrAtFirst is returned by Retreat on the first position.
	ErrAtFirst = errors.New("wizard: already at the first position")
	// ErrOutOfRange is returned by JumpTo for indexes outside the step list.
	ErrOutOfRange = errors.New("wizard: step index out of range")
	// ErrJumpAhead is returned by JumpTo past the furthest validated step.
	ErrJumpAhead = errors.New("wizard: cannot jump past the furthest validated step")
	// ErrInvalidTransition is returned for events the current state does not accept.
	ErrInvalidTransition = errors.New("wizard: transition not allowed")
	// ErrNotReady is wrapped by NotReadyError.
	ErrNotReady = errors.New("wizard: flow is not ready to submit")
)

// IncompleteError lists what the current position still needs.
type IncompleteError struct {
	Position Position
	Unmet    []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("wizard: step %d.%d incomplete: %v", e.Position.Step, e.Position.Substep, e.Unmet)
}

func (e *IncompleteError) Unwrap() error { return ErrIncomplete }

// NotReadyError refuses a submit.  Unmet lists the requirements of the
// first incomplete position; it is empty when every step is complete but
// the wizard has not reached the final position yet.
type NotReadyError struct {
	Position Position
	Unmet    []string
}

func (e *NotReadyError) Error() string {
	if len(e.Unmet) == 0 {
		return fmt.Sprintf("wizard: at step %d.%d, not on the final step", e.Position.Step, e.Position.Substep)
	}
	return fmt.Sprintf("wizard: step %d.%d incomplete: %v", e.Position.Step, e.Position.Substep, e.Unmet)
}

func (e *NotReadyError) Unwrap() error { return ErrNotReady }

// Position is a (step, substep) pair.  Substep is zero for simple steps.
type Position struct {
	Step    int `json:"step"`
	Substep int `json:"substep"`
}

// Phase tags the wizard state.
type Phase int

const (
	// Editing covers every position before the final one.
	Editing Phase = iota
	// Confirming is the final "ready to submit" position.
	Confirming
)

func (p Phase) String() string {
	if p == Confirming {
		return "confirming"
	}
	return "editing"
}

// State is the tagged wizard state.
type State struct {
	Phase    Phase    `json:"-"`
	Position Position `json:"position"`
}

// Event is a navigation request.
type Event int

const (
	EventAdvance Event = iota
	EventRetreat
	EventJump
)

// transitions lists the events each phase accepts.  Advancing out of the
// confirmation step is a submit, which the wizard does not own.
var transitions = map[Phase]map[Event]bool{
	Editing:    {EventAdvance: true, EventRetreat: true, EventJump: true},
	Confirming: {EventRetreat: true, EventJump: true},
}

// Controller is the step/substep state machine of one flow.  It is not
// safe for concurrent use; callers serialise access per flow.
type Controller struct {
	steps    []Step
	state    State
	furthest int
}

// New returns a Controller positioned on the first step of steps.
func New(steps []Step) *Controller {
	if len(steps) == 0 {
		panic("wizard: empty step list")
	}
	c := &Controller{steps: steps}
	c.state = c.stateAt(Position{})
	return c
}

// NewForKind returns a Controller using the step list of kind.
func NewForKind(kind model.Kind) *Controller { return New(StepsFor(kind)) }

// State returns the current state.
func (c *Controller) State() State { return c.state }

// Position returns the current position.
func (c *Controller) Position() Position { return c.state.Position }

// Steps returns the step list.
func (c *Controller) Steps() []Step { return c.steps }

// Furthest returns the index of the furthest step reached through Advance.
func (c *Controller) Furthest() int { return c.furthest }

// Current returns the current step and substep.
func (c *Controller) Current() (Step, Substep) {
	st := c.steps[c.state.Position.Step]
	return st, st.Substeps[c.state.Position.Substep]
}

// Unmet returns the requirements of the current position that d does not meet.
func (c *Controller) Unmet(d model.Draft) []string {
	_, sub := c.Current()
	return sub.Complete(d)
}

// CheckReady returns nil when the wizard sits on the final position and
// d meets the predicate of every position, the final one included.
// Otherwise it returns a *NotReadyError.
func (c *Controller) CheckReady(d model.Draft) error {
	if pos, unmet, ok := c.firstIncomplete(len(c.steps), d); ok {
		return &NotReadyError{Position: pos, Unmet: unmet}
	}
	if c.state.Phase != Confirming {
		return &NotReadyError{Position: c.state.Position}
	}
	return nil
}

// ReadyToSubmit reports whether CheckReady passes.
func (c *Controller) ReadyToSubmit(d model.Draft) bool { return c.CheckReady(d) == nil }

// Advance moves to the next position when the current one is complete.
// Otherwise the position is unchanged and an *IncompleteError lists what
// is missing.
func (c *Controller) Advance(d model.Draft) (Position, error) {
	if err := c.accept(EventAdvance); err != nil {
		return c.state.Position, err
	}
	if unmet := c.Unmet(d); len(unmet) > 0 {
		return c.state.Position, &IncompleteError{Position: c.state.Position, Unmet: unmet}
	}
	pos := c.state.Position
	if pos.Substep+1 < len(c.steps[pos.Step].Substeps) {
		pos.Substep++
	} else {
		pos = Position{Step: pos.Step + 1}
	}
	c.state = c.stateAt(pos)
	if pos.Step > c.furthest {
		c.furthest = pos.Step
	}
	return pos, nil
}

// Retreat moves to the previous position.  Leaving a step backwards lands
// on the last substep of the previous step.
func (c *Controller) Retreat() (Position, error) {
	if err := c.accept(EventRetreat); err != nil {
		return c.state.Position, err
	}
	pos := c.state.Position
	switch {
	case pos.Substep > 0:
		pos.Substep--
	case pos.Step > 0:
		prev := pos.Step - 1
		pos = Position{Step: prev, Substep: len(c.steps[prev].Substeps) - 1}
	default:
		return pos, ErrAtFirst
	}
	c.state = c.stateAt(pos)
	return pos, nil
}

// JumpTo moves to the first substep of step index.  Only steps at or
// before the furthest validated step can be reached this way, and every
// step before index must still be complete for d: data cleared after a
// step was validated blocks jumping past it.
func (c *Controller) JumpTo(index int, d model.Draft) (Position, error) {
	if err := c.accept(EventJump); err != nil {
		return c.state.Position, err
	}
	if index < 0 || index >= len(c.steps) {
		return c.state.Position, fmt.Errorf("%w: %d", ErrOutOfRange, index)
	}
	if index > c.furthest {
		return c.state.Position, fmt.Errorf("%w: %d > %d", ErrJumpAhead, index, c.furthest)
	}
	if at, unmet, ok := c.firstIncomplete(index, d); ok {
		return c.state.Position, &IncompleteError{Position: at, Unmet: unmet}
	}
	pos := Position{Step: index}
	c.state = c.stateAt(pos)
	return pos, nil
}

// firstIncomplete finds the first position in the steps before limit
// whose predicate d does not meet.
func (c *Controller) firstIncomplete(limit int, d model.Draft) (Position, []string, bool) {
	for i := 0; i < limit && i < len(c.steps); i++ {
		for j, sub := range c.steps[i].Substeps {
			if unmet := sub.Complete(d); len(unmet) > 0 {
				return Position{Step: i, Substep: j}, unmet, true
			}
		}
	}
	return Position{}, nil, false
}

func (c *Controller) accept(ev Event) error {
	if !transitions[c.state.Phase][ev] {
		return fmt.Errorf("%w: %s", ErrInvalidTransition, c.state.Phase)
	}
	return nil
}

func (c *Controller) stateAt(pos Position) State {
	phase := Editing
	if pos.Step == len(c.steps)-1 {
		phase = Confirming
	}
	return State{Phase: phase, Position: pos}
}
