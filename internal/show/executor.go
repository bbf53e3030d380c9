package show

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lumenstage/lumen/internal/engineerr"
)

// ButtonMode determines the function of an executor's button.
type ButtonMode string

const (
	// ButtonModeGo advances the executor's sequence to the next cue on a
	// rising edge of the button.
	ButtonModeGo ButtonMode = "Go"
	// ButtonModeFlash is reserved; an executor in this mode fails
	// ManageState with ErrUnsupportedMode rather than behaving like Go.
	ButtonModeFlash ButtonMode = "Flash"
)

// FaderMode determines the function of an executor's fader.
type FaderMode string

const (
	// FaderModeMaster feeds the fader level into the executor's master
	// level each frame.
	FaderModeMaster FaderMode = "Master"
	// FaderModeSpeed is reserved; an executor in this mode fails
	// ManageState with ErrUnsupportedMode rather than behaving like
	// Master.
	FaderModeSpeed FaderMode = "Speed"
)

// Button is an executor's edge-triggered button. WasPressed latches a
// press until the executor engine consumes it; CurrentlyPressed tracks
// the physical state.
type Button struct {
	Mode             ButtonMode
	WasPressed       bool
	CurrentlyPressed bool
}

// Press latches the rising edge and marks the button held.
func (b *Button) Press() {
	b.WasPressed = true
	b.CurrentlyPressed = true
}

// Release marks the button no longer held. The latched edge survives
// until the next ManageState consumes it.
func (b *Button) Release() {
	b.CurrentlyPressed = false
}

func (b *Button) resetState() {
	b.WasPressed = false
}

// Fader is an executor's level control.
type Fader struct {
	Mode  FaderMode
	Level float64
}

// SetLevel clamps level into [0,1] and stores it.
func (f *Fader) SetLevel(level float64) {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	f.Level = level
}

// Executor binds a sequence to a button and fader, advancing through the
// sequence's cues on Go and scaling its output by the master level.
type Executor struct {
	Button      Button
	Fader       Fader
	SequenceID  *ObjectID
	MasterLevel float64

	activeCueIndex *int
}

// NewExecutor returns an Executor with default Go/Master controls, full
// master level, and no sequence.
func NewExecutor() *Executor {
	return &Executor{
		Button:      Button{Mode: ButtonModeGo},
		Fader:       Fader{Mode: FaderModeMaster, Level: 1},
		MasterLevel: 1,
	}
}

// ActiveCueIndex returns the index of the active cue within the
// executor's sequence, if a cue is active.
func (e *Executor) ActiveCueIndex() (int, bool) {
	if e.activeCueIndex == nil {
		return 0, false
	}
	return *e.activeCueIndex, true
}

// Sequence returns the sequence this executor is linked to, logging a
// warning when the link is dangling.
func (e *Executor) Sequence(s *Show) (*Sequence, bool) {
	if e.SequenceID == nil {
		return nil, false
	}
	seq, err := s.Sequences.Get(*e.SequenceID)
	if err != nil {
		log.Printf("executor: sequence %s not found", e.SequenceID)
		return nil, false
	}
	return seq, true
}

// setActiveCueIndex clamps index into the sequence, wrapping past the end
// back to 0.
func (e *Executor) setActiveCueIndex(index int, s *Show) {
	seq, ok := e.Sequence(s)
	if !ok || seq.Len() == 0 {
		return
	}
	if index > seq.Len()-1 {
		index = 0
	}
	e.activeCueIndex = &index
}

// ClearActiveCue deactivates the executor's cue.
func (e *Executor) ClearActiveCue() {
	e.activeCueIndex = nil
}

// ActiveCue returns the cue the executor currently activates, if any.
func (e *Executor) ActiveCue(s *Show) (ObjectID, *Cue, bool) {
	if e.activeCueIndex == nil {
		return ObjectID{}, nil, false
	}
	seq, ok := e.Sequence(s)
	if !ok {
		return ObjectID{}, nil, false
	}
	cueID, ok := seq.CueAt(*e.activeCueIndex)
	if !ok {
		return ObjectID{}, nil, false
	}
	cue, err := s.Cues.Get(cueID)
	if err != nil {
		return ObjectID{}, nil, false
	}
	return cueID, cue, true
}

// ManageState runs the executor's per-frame state machine: consume a
// latched Go press, cache the master level from the fader, and reset the
// button edge. Called once per frame before the pipeline resolves. The
// edge reset always happens, even when a control sits in a reserved mode:
// a reserved button or fader reports ErrUnsupportedMode without stopping
// the other control or leaving a stale press to replay next frame.
func (e *Executor) ManageState(s *Show, now time.Time) error {
	buttonErr := e.manageButton(s, now)
	faderErr := e.manageFader()
	e.Button.resetState()
	return errors.Join(buttonErr, faderErr)
}

func (e *Executor) manageButton(s *Show, now time.Time) error {
	switch e.Button.Mode {
	case ButtonModeGo:
		if e.Button.WasPressed {
			e.Go(s, now)
		}
		return nil
	default:
		return fmt.Errorf("button mode %q: %w", e.Button.Mode, engineerr.ErrUnsupportedMode)
	}
}

func (e *Executor) manageFader() error {
	switch e.Fader.Mode {
	case FaderModeMaster:
		e.MasterLevel = e.Fader.Level
		return nil
	default:
		return fmt.Errorf("fader mode %q: %w", e.Fader.Mode, engineerr.ErrUnsupportedMode)
	}
}

// Go advances to the next cue, wrapping past the end of the sequence, and
// records fade timers: fade-in for the newly current cue, fade-out for the
// previously current one.
func (e *Executor) Go(s *Show, now time.Time) {
	seq, ok := e.Sequence(s)
	if !ok || seq.Len() == 0 {
		return
	}

	if prevID, prevCue, ok := e.ActiveCue(s); ok {
		seq.StartFadeOut(prevID, prevCue, now)
	}

	newIndex := 0
	if e.activeCueIndex != nil {
		newIndex = *e.activeCueIndex + 1
	}
	e.setActiveCueIndex(newIndex, s)

	if newID, newCue, ok := e.ActiveCue(s); ok {
		seq.StartFadeIn(newID, newCue, now)
	}
}
