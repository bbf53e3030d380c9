package command

import (
	"fmt"

	"github.com/lumenstage/lumen/internal/engineerr"
	"github.com/lumenstage/lumen/internal/patch"
	"github.com/lumenstage/lumen/internal/pubsub"
	"github.com/lumenstage/lumen/internal/show"
)

// Create stores a fresh object of ID's kind under ID. Pool, when
// non-zero, binds the object to a user-facing pool slot, overwriting any
// previous binding. FeatureGroup is required for presets and ignored for
// every other kind.
type Create struct {
	ID           show.ObjectID
	Name         string
	Pool         show.PoolID
	FeatureGroup patch.FeatureGroup
}

func (c Create) Apply(s *show.Show) ([]pubsub.Event, error) {
	var err error
	switch c.ID.Kind {
	case show.KindFixtureGroup:
		err = s.Groups.Create(c.ID, c.Name, show.NewFixtureGroup(), c.Pool)
	case show.KindPreset:
		if c.FeatureGroup == "" {
			return nil, fmt.Errorf("preset %s needs a feature group: %w", c.ID, engineerr.ErrIncompatibleFeatureGroup)
		}
		preset := &show.Preset{FeatureGroup: c.FeatureGroup, Content: &show.SelectiveContent{Values: map[show.SelectiveKey]patch.AttributeValue{}}}
		err = s.Presets.Create(c.ID, c.Name, preset, c.Pool)
	case show.KindCue:
		err = s.Cues.Create(c.ID, c.Name, show.NewCue(0, 0), c.Pool)
	case show.KindSequence:
		err = s.Sequences.Create(c.ID, c.Name, show.NewSequence(), c.Pool)
	case show.KindExecutor:
		err = s.Executors.Create(c.ID, c.Name, show.NewExecutor(), c.Pool)
	default:
		err = fmt.Errorf("object %s: %w", c.ID, engineerr.ErrWrongKind)
	}
	if err != nil {
		return nil, err
	}
	return []pubsub.Event{{Kind: pubsub.EventObjectAdded, ObjectID: c.ID.String()}}, nil
}

// Remove deletes an object of any kind, along with its pool binding.
type Remove struct {
	ID show.ObjectID
}

func (c Remove) Apply(s *show.Show) ([]pubsub.Event, error) {
	var err error
	switch c.ID.Kind {
	case show.KindFixtureGroup:
		err = s.Groups.Remove(c.ID)
	case show.KindPreset:
		err = s.Presets.Remove(c.ID)
	case show.KindCue:
		err = s.Cues.Remove(c.ID)
	case show.KindSequence:
		err = s.Sequences.Remove(c.ID)
	case show.KindExecutor:
		err = s.Executors.Remove(c.ID)
	default:
		err = fmt.Errorf("object %s: %w", c.ID, engineerr.ErrWrongKind)
	}
	if err != nil {
		return nil, err
	}
	return []pubsub.Event{{Kind: pubsub.EventObjectRemoved, ObjectID: c.ID.String()}}, nil
}

// Rename changes an object's display name.
type Rename struct {
	ID   show.ObjectID
	Name string
}

func (c Rename) Apply(s *show.Show) ([]pubsub.Event, error) {
	var err error
	switch c.ID.Kind {
	case show.KindFixtureGroup:
		err = s.Groups.Rename(c.ID, c.Name)
	case show.KindPreset:
		err = s.Presets.Rename(c.ID, c.Name)
	case show.KindCue:
		err = s.Cues.Rename(c.ID, c.Name)
	case show.KindSequence:
		err = s.Sequences.Rename(c.ID, c.Name)
	case show.KindExecutor:
		err = s.Executors.Rename(c.ID, c.Name)
	default:
		err = fmt.Errorf("object %s: %w", c.ID, engineerr.ErrWrongKind)
	}
	if err != nil {
		return nil, err
	}
	return nil, nil
}

// GroupAdd appends a fixture to a group.
type GroupAdd struct {
	ID  show.ObjectID
	FID patch.FixtureID
}

func (c GroupAdd) Apply(s *show.Show) ([]pubsub.Event, error) {
	group, err := s.Groups.Get(c.ID)
	if err != nil {
		return nil, err
	}
	group.Add(c.FID)
	return nil, nil
}

// GroupReplaceAt overwrites the fixture at an index in a group.
type GroupReplaceAt struct {
	ID    show.ObjectID
	Index int
	FID   patch.FixtureID
}

func (c GroupReplaceAt) Apply(s *show.Show) ([]pubsub.Event, error) {
	group, err := s.Groups.Get(c.ID)
	if err != nil {
		return nil, err
	}
	if !group.ReplaceAt(c.Index, c.FID) {
		return nil, fmt.Errorf("group index %d: %w", c.Index, engineerr.ErrOutOfRange)
	}
	return nil, nil
}

// GroupRemove deletes the first occurrence of a fixture from a group.
type GroupRemove struct {
	ID  show.ObjectID
	FID patch.FixtureID
}

func (c GroupRemove) Apply(s *show.Show) ([]pubsub.Event, error) {
	group, err := s.Groups.Get(c.ID)
	if err != nil {
		return nil, err
	}
	if !group.Remove(c.FID) {
		return nil, fmt.Errorf("fixture %d not in group %s: %w", c.FID, c.ID, engineerr.ErrUnknownID)
	}
	return nil, nil
}

// GroupRemoveAt deletes the fixture at an index in a group.
type GroupRemoveAt struct {
	ID    show.ObjectID
	Index int
}

func (c GroupRemoveAt) Apply(s *show.Show) ([]pubsub.Event, error) {
	group, err := s.Groups.Get(c.ID)
	if err != nil {
		return nil, err
	}
	if !group.RemoveAt(c.Index) {
		return nil, fmt.Errorf("group index %d: %w", c.Index, engineerr.ErrOutOfRange)
	}
	return nil, nil
}

// GroupClear empties a group.
type GroupClear struct {
	ID show.ObjectID
}

func (c GroupClear) Apply(s *show.Show) ([]pubsub.Event, error) {
	group, err := s.Groups.Get(c.ID)
	if err != nil {
		return nil, err
	}
	group.Clear()
	return nil, nil
}

// SequenceAdd appends a cue to a sequence.
type SequenceAdd struct {
	ID    show.ObjectID
	CueID show.ObjectID
}

func (c SequenceAdd) Apply(s *show.Show) ([]pubsub.Event, error) {
	seq, err := s.Sequences.Get(c.ID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Cues.Get(c.CueID); err != nil {
		return nil, err
	}
	seq.Add(c.CueID)
	return nil, nil
}

// SequenceReplaceAt overwrites the cue at an index in a sequence.
type SequenceReplaceAt struct {
	ID    show.ObjectID
	Index int
	CueID show.ObjectID
}

func (c SequenceReplaceAt) Apply(s *show.Show) ([]pubsub.Event, error) {
	seq, err := s.Sequences.Get(c.ID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Cues.Get(c.CueID); err != nil {
		return nil, err
	}
	if !seq.ReplaceAt(c.Index, c.CueID) {
		return nil, fmt.Errorf("sequence index %d: %w", c.Index, engineerr.ErrOutOfRange)
	}
	return nil, nil
}

// SequenceRemove deletes the first occurrence of a cue from a sequence.
type SequenceRemove struct {
	ID    show.ObjectID
	CueID show.ObjectID
}

func (c SequenceRemove) Apply(s *show.Show) ([]pubsub.Event, error) {
	seq, err := s.Sequences.Get(c.ID)
	if err != nil {
		return nil, err
	}
	if !seq.Remove(c.CueID) {
		return nil, fmt.Errorf("cue %s not in sequence %s: %w", c.CueID, c.ID, engineerr.ErrUnknownID)
	}
	return nil, nil
}

// SequenceRemoveAt deletes the cue at an index in a sequence.
type SequenceRemoveAt struct {
	ID    show.ObjectID
	Index int
}

func (c SequenceRemoveAt) Apply(s *show.Show) ([]pubsub.Event, error) {
	seq, err := s.Sequences.Get(c.ID)
	if err != nil {
		return nil, err
	}
	if !seq.RemoveAt(c.Index) {
		return nil, fmt.Errorf("sequence index %d: %w", c.Index, engineerr.ErrOutOfRange)
	}
	return nil, nil
}

// SequenceClear empties a sequence's cue list.
type SequenceClear struct {
	ID show.ObjectID
}

func (c SequenceClear) Apply(s *show.Show) ([]pubsub.Event, error) {
	seq, err := s.Sequences.Get(c.ID)
	if err != nil {
		return nil, err
	}
	seq.Clear()
	return nil, nil
}

// CueAdd appends a recipe to a cue.
type CueAdd struct {
	ID     show.ObjectID
	Recipe show.Recipe
}

func (c CueAdd) Apply(s *show.Show) ([]pubsub.Event, error) {
	cue, err := s.Cues.Get(c.ID)
	if err != nil {
		return nil, err
	}
	if err := validateRecipe(c.Recipe); err != nil {
		return nil, err
	}
	cue.Add(c.Recipe)
	return nil, nil
}

// CueReplaceAt overwrites the recipe at an index in a cue.
type CueReplaceAt struct {
	ID     show.ObjectID
	Index  int
	Recipe show.Recipe
}

func (c CueReplaceAt) Apply(s *show.Show) ([]pubsub.Event, error) {
	cue, err := s.Cues.Get(c.ID)
	if err != nil {
		return nil, err
	}
	if err := validateRecipe(c.Recipe); err != nil {
		return nil, err
	}
	if !cue.ReplaceAt(c.Index, c.Recipe) {
		return nil, fmt.Errorf("cue index %d: %w", c.Index, engineerr.ErrOutOfRange)
	}
	return nil, nil
}

// CueRemoveAt deletes the recipe at an index in a cue.
type CueRemoveAt struct {
	ID    show.ObjectID
	Index int
}

func (c CueRemoveAt) Apply(s *show.Show) ([]pubsub.Event, error) {
	cue, err := s.Cues.Get(c.ID)
	if err != nil {
		return nil, err
	}
	if !cue.RemoveAt(c.Index) {
		return nil, fmt.Errorf("cue index %d: %w", c.Index, engineerr.ErrOutOfRange)
	}
	return nil, nil
}

// CueClear empties a cue's recipe list.
type CueClear struct {
	ID show.ObjectID
}

func (c CueClear) Apply(s *show.Show) ([]pubsub.Event, error) {
	cue, err := s.Cues.Get(c.ID)
	if err != nil {
		return nil, err
	}
	cue.Clear()
	return nil, nil
}

// validateRecipe checks a recipe's references are of the right kinds.
// Dangling references are allowed (the resolver skips them with a
// warning); wrong kinds are rejected outright.
func validateRecipe(r show.Recipe) error {
	if r.FixtureGroup.Kind != show.KindFixtureGroup {
		return fmt.Errorf("recipe group %s: %w", r.FixtureGroup, engineerr.ErrWrongKind)
	}
	if r.Preset.Kind != show.KindPreset {
		return fmt.Errorf("recipe preset %s: %w", r.Preset, engineerr.ErrWrongKind)
	}
	return nil
}
