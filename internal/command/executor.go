package command

import (
	"fmt"

	"github.com/lumenstage/lumen/internal/engineerr"
	"github.com/lumenstage/lumen/internal/patch"
	"github.com/lumenstage/lumen/internal/pubsub"
	"github.com/lumenstage/lumen/internal/show"
)

// ExecutorButtonSetMode changes the function of an executor's button.
type ExecutorButtonSetMode struct {
	ID   show.ObjectID
	Mode show.ButtonMode
}

func (c ExecutorButtonSetMode) Apply(s *show.Show) ([]pubsub.Event, error) {
	ex, err := s.Executors.Get(c.ID)
	if err != nil {
		return nil, err
	}
	switch c.Mode {
	case show.ButtonModeGo, show.ButtonModeFlash:
	default:
		return nil, fmt.Errorf("button mode %q: %w", c.Mode, engineerr.ErrUnsupportedMode)
	}
	ex.Button.Mode = c.Mode
	return nil, nil
}

// ExecutorButtonPress latches a button press: the rising edge survives
// until the executor engine consumes it on the next frame.
type ExecutorButtonPress struct {
	ID show.ObjectID
}

func (c ExecutorButtonPress) Apply(s *show.Show) ([]pubsub.Event, error) {
	ex, err := s.Executors.Get(c.ID)
	if err != nil {
		return nil, err
	}
	ex.Button.Press()
	return nil, nil
}

// ExecutorButtonRelease marks the button no longer held without clearing
// the latched edge.
type ExecutorButtonRelease struct {
	ID show.ObjectID
}

func (c ExecutorButtonRelease) Apply(s *show.Show) ([]pubsub.Event, error) {
	ex, err := s.Executors.Get(c.ID)
	if err != nil {
		return nil, err
	}
	ex.Button.Release()
	return nil, nil
}

// ExecutorFaderSetMode changes the function of an executor's fader.
type ExecutorFaderSetMode struct {
	ID   show.ObjectID
	Mode show.FaderMode
}

func (c ExecutorFaderSetMode) Apply(s *show.Show) ([]pubsub.Event, error) {
	ex, err := s.Executors.Get(c.ID)
	if err != nil {
		return nil, err
	}
	switch c.Mode {
	case show.FaderModeMaster, show.FaderModeSpeed:
	default:
		return nil, fmt.Errorf("fader mode %q: %w", c.Mode, engineerr.ErrUnsupportedMode)
	}
	ex.Fader.Mode = c.Mode
	return nil, nil
}

// ExecutorFaderSetLevel sets the fader level, clamped into [0,1].
type ExecutorFaderSetLevel struct {
	ID    show.ObjectID
	Level float64
}

func (c ExecutorFaderSetLevel) Apply(s *show.Show) ([]pubsub.Event, error) {
	ex, err := s.Executors.Get(c.ID)
	if err != nil {
		return nil, err
	}
	ex.Fader.SetLevel(c.Level)
	return nil, nil
}

// ExecutorSetSequence links an executor to a sequence.
type ExecutorSetSequence struct {
	ID         show.ObjectID
	SequenceID show.ObjectID
}

func (c ExecutorSetSequence) Apply(s *show.Show) ([]pubsub.Event, error) {
	ex, err := s.Executors.Get(c.ID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Sequences.Get(c.SequenceID); err != nil {
		return nil, err
	}
	seqID := c.SequenceID
	ex.SequenceID = &seqID
	ex.ClearActiveCue()
	return nil, nil
}

// ExecutorClear unlinks an executor from its sequence and deactivates its
// cue.
type ExecutorClear struct {
	ID show.ObjectID
}

func (c ExecutorClear) Apply(s *show.Show) ([]pubsub.Event, error) {
	ex, err := s.Executors.Get(c.ID)
	if err != nil {
		return nil, err
	}
	ex.SequenceID = nil
	ex.ClearActiveCue()
	return nil, nil
}

// Go presses and releases an executor's button in one frame: the latched
// edge advances the sequence on the next tick.
type Go struct {
	ID show.ObjectID
}

func (c Go) Apply(s *show.Show) ([]pubsub.Event, error) {
	ex, err := s.Executors.Get(c.ID)
	if err != nil {
		return nil, err
	}
	ex.Button.Press()
	ex.Button.Release()
	return nil, nil
}

// PresetStore captures the programmer's current values into the preset,
// keeping only attributes of the preset's own feature group.
type PresetStore struct {
	ID show.ObjectID
}

func (c PresetStore) Apply(s *show.Show) ([]pubsub.Event, error) {
	preset, err := s.Presets.Get(c.ID)
	if err != nil {
		return nil, err
	}
	stored := show.StoreFromValues(preset.FeatureGroup, s.Programmer.Values())
	preset.Content = stored.Content
	return nil, nil
}

// PresetClear empties a preset's values, keeping its feature group.
type PresetClear struct {
	ID show.ObjectID
}

func (c PresetClear) Apply(s *show.Show) ([]pubsub.Event, error) {
	preset, err := s.Presets.Get(c.ID)
	if err != nil {
		return nil, err
	}
	preset.Content = &show.SelectiveContent{Values: map[show.SelectiveKey]patch.AttributeValue{}}
	return nil, nil
}
