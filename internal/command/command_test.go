package command

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/lumenstage/lumen/internal/dmx"
	"github.com/lumenstage/lumen/internal/engineerr"
	"github.com/lumenstage/lumen/internal/gdtf"
	"github.com/lumenstage/lumen/internal/patch"
	"github.com/lumenstage/lumen/internal/pubsub"
	"github.com/lumenstage/lumen/internal/show"
)

func dimmerDescription(id uuid.UUID) *gdtf.Description {
	return &gdtf.Description{
		TypeID: id,
		Name:   "Test Dimmer",
		Modes: []gdtf.DmxMode{{
			Name: "Standard",
			Channels: []gdtf.DmxChannel{{
				Offset:  []uint16{1},
				Default: 0,
				Logical: []gdtf.LogicalChannel{{
					Functions:       []gdtf.ChannelFunction{{Name: "Intensity", Attribute: "Dimmer"}},
					InitialFunction: 0,
				}},
			}},
		}},
	}
}

func newShowWithGdtf(t *testing.T) (*show.Show, uuid.UUID) {
	t.Helper()
	s := show.New()
	typeID := uuid.New()
	s.Patch.LoadGdtf(dimmerDescription(typeID))
	return s, typeID
}

func addr(t *testing.T, universe, channel int) dmx.Address {
	t.Helper()
	uni, err := dmx.NewUniverseID(universe)
	require.NoError(t, err)
	ch, err := dmx.NewChannel(channel)
	require.NoError(t, err)
	return dmx.Address{Universe: uni, Channel: ch}
}

func apply(t *testing.T, s *show.Show, cmd Command) []pubsub.Event {
	t.Helper()
	events, err := cmd.Apply(s)
	require.NoError(t, err)
	return events
}

func TestPatchAddAndRemove(t *testing.T) {
	s, typeID := newShowWithGdtf(t)

	events := apply(t, s, PatchAdd{FID: 1, Address: addr(t, 1, 1), TypeID: typeID, DmxMode: "Standard"})
	require.Len(t, events, 1)
	require.Equal(t, pubsub.EventFixturesChanged, events[0].Kind)

	_, ok := s.Patch.Fixture(1)
	require.True(t, ok)

	_, err := PatchAdd{FID: 1, Address: addr(t, 1, 1), TypeID: typeID, DmxMode: "Standard"}.Apply(s)
	if !errors.Is(err, engineerr.ErrDuplicateID) {
		t.Errorf("duplicate PatchAdd err = %v, want ErrDuplicateID", err)
	}

	apply(t, s, PatchRemove{FID: 1})
	_, ok = s.Patch.Fixture(1)
	require.False(t, ok)
}

func TestPatchAddUnknownType(t *testing.T) {
	s := show.New()
	_, err := PatchAdd{FID: 1, Address: addr(t, 1, 1), TypeID: uuid.New(), DmxMode: "Standard"}.Apply(s)
	if !errors.Is(err, engineerr.ErrUnknownFixtureType) {
		t.Errorf("err = %v, want ErrUnknownFixtureType", err)
	}
}

func TestProgrammerCommands(t *testing.T) {
	s, typeID := newShowWithGdtf(t)
	apply(t, s, PatchAdd{FID: 1, Address: addr(t, 1, 1), TypeID: typeID, DmxMode: "Standard"})

	apply(t, s, Select{FID: 1})
	require.True(t, s.Programmer.IsSelected(1))

	apply(t, s, ProgrammerSetAttribute{FID: 1, Attribute: "Dimmer", Value: 1.5})
	values := s.Programmer.Values()
	require.Len(t, values, 1)
	require.InDelta(t, 1.0, float64(values[0].Value), 1e-9, "value clamps to 1.0")

	apply(t, s, ProgrammerSetAddress{Address: addr(t, 1, 1), Value: 128})

	apply(t, s, ProgrammerClear{})
	require.False(t, s.Programmer.IsSelected(1))
	require.Empty(t, s.Programmer.Values())
}

func TestProgrammerSetAttributeUnknownFixture(t *testing.T) {
	s := show.New()
	_, err := ProgrammerSetAttribute{FID: 9, Attribute: "Dimmer", Value: 1}.Apply(s)
	if !errors.Is(err, engineerr.ErrUnknownID) {
		t.Errorf("err = %v, want ErrUnknownID", err)
	}
}

func TestCreateRemoveRename(t *testing.T) {
	s := show.New()
	id := show.NewObjectID(show.KindFixtureGroup)

	events := apply(t, s, Create{ID: id, Name: "wash"})
	require.Len(t, events, 1)
	require.Equal(t, pubsub.EventObjectAdded, events[0].Kind)
	require.Equal(t, id.String(), events[0].ObjectID)

	apply(t, s, Rename{ID: id, Name: "front wash"})
	name, ok := s.Groups.Name(id)
	require.True(t, ok)
	require.Equal(t, "front wash", name)

	events = apply(t, s, Remove{ID: id})
	require.Equal(t, pubsub.EventObjectRemoved, events[0].Kind)
	_, err := s.Groups.Get(id)
	if !errors.Is(err, engineerr.ErrUnknownID) {
		t.Errorf("Get after Remove err = %v, want ErrUnknownID", err)
	}
}

func TestCreatePresetNeedsFeatureGroup(t *testing.T) {
	s := show.New()
	id := show.NewObjectID(show.KindPreset)

	_, err := Create{ID: id, Name: "red"}.Apply(s)
	if !errors.Is(err, engineerr.ErrIncompatibleFeatureGroup) {
		t.Errorf("err = %v, want ErrIncompatibleFeatureGroup", err)
	}

	apply(t, s, Create{ID: id, Name: "red", FeatureGroup: patch.FeatureColor})
	preset, err := s.Presets.Get(id)
	require.NoError(t, err)
	require.Equal(t, patch.FeatureColor, preset.FeatureGroup)
}

func TestGroupCommands(t *testing.T) {
	s := show.New()
	id := show.NewObjectID(show.KindFixtureGroup)
	apply(t, s, Create{ID: id, Name: ""})

	apply(t, s, GroupAdd{ID: id, FID: 1})
	apply(t, s, GroupAdd{ID: id, FID: 2})
	apply(t, s, GroupReplaceAt{ID: id, Index: 1, FID: 3})

	group, err := s.Groups.Get(id)
	require.NoError(t, err)
	require.Equal(t, []patch.FixtureID{1, 3}, group.Fixtures)

	_, err = GroupReplaceAt{ID: id, Index: 9, FID: 4}.Apply(s)
	if !errors.Is(err, engineerr.ErrOutOfRange) {
		t.Errorf("out-of-range ReplaceAt err = %v, want ErrOutOfRange", err)
	}
	// The failed command left the group untouched.
	require.Equal(t, []patch.FixtureID{1, 3}, group.Fixtures)

	apply(t, s, GroupRemoveAt{ID: id, Index: 0})
	require.Equal(t, []patch.FixtureID{3}, group.Fixtures)
	apply(t, s, GroupClear{ID: id})
	require.Empty(t, group.Fixtures)
}

func TestSequenceAndCueCommands(t *testing.T) {
	s := show.New()
	seqID := show.NewObjectID(show.KindSequence)
	cueID := show.NewObjectID(show.KindCue)
	groupID := show.NewObjectID(show.KindFixtureGroup)
	presetID := show.NewObjectID(show.KindPreset)

	apply(t, s, Create{ID: seqID})
	apply(t, s, Create{ID: cueID})
	apply(t, s, Create{ID: groupID})
	apply(t, s, Create{ID: presetID, FeatureGroup: patch.FeatureDimmer})

	// A sequence only accepts existing cues.
	_, err := SequenceAdd{ID: seqID, CueID: show.NewObjectID(show.KindCue)}.Apply(s)
	if !errors.Is(err, engineerr.ErrUnknownID) {
		t.Errorf("SequenceAdd with unknown cue err = %v, want ErrUnknownID", err)
	}

	apply(t, s, SequenceAdd{ID: seqID, CueID: cueID})
	seq, err := s.Sequences.Get(seqID)
	require.NoError(t, err)
	require.Equal(t, 1, seq.Len())

	recipe := show.Recipe{FixtureGroup: groupID, Preset: presetID}
	apply(t, s, CueAdd{ID: cueID, Recipe: recipe})
	cue, err := s.Cues.Get(cueID)
	require.NoError(t, err)
	require.Len(t, cue.Recipes, 1)

	// Recipes with swapped kinds are rejected.
	_, err = CueAdd{ID: cueID, Recipe: show.Recipe{FixtureGroup: presetID, Preset: groupID}}.Apply(s)
	if !errors.Is(err, engineerr.ErrWrongKind) {
		t.Errorf("CueAdd with swapped kinds err = %v, want ErrWrongKind", err)
	}

	apply(t, s, CueRemoveAt{ID: cueID, Index: 0})
	require.Empty(t, cue.Recipes)

	apply(t, s, SequenceClear{ID: seqID})
	require.Equal(t, 0, seq.Len())
}

func TestExecutorCommands(t *testing.T) {
	s := show.New()
	exID := show.NewObjectID(show.KindExecutor)
	seqID := show.NewObjectID(show.KindSequence)
	apply(t, s, Create{ID: exID})
	apply(t, s, Create{ID: seqID})

	apply(t, s, ExecutorSetSequence{ID: exID, SequenceID: seqID})
	ex, err := s.Executors.Get(exID)
	require.NoError(t, err)
	require.NotNil(t, ex.SequenceID)

	apply(t, s, ExecutorFaderSetLevel{ID: exID, Level: 2})
	require.InDelta(t, 1.0, ex.Fader.Level, 1e-9, "level clamps")

	apply(t, s, ExecutorButtonPress{ID: exID})
	require.True(t, ex.Button.WasPressed)
	require.True(t, ex.Button.CurrentlyPressed)

	apply(t, s, ExecutorButtonRelease{ID: exID})
	require.True(t, ex.Button.WasPressed, "release keeps the latched edge")
	require.False(t, ex.Button.CurrentlyPressed)

	_, err = ExecutorButtonSetMode{ID: exID, Mode: "Bump"}.Apply(s)
	if !errors.Is(err, engineerr.ErrUnsupportedMode) {
		t.Errorf("unknown button mode err = %v, want ErrUnsupportedMode", err)
	}

	apply(t, s, ExecutorClear{ID: exID})
	require.Nil(t, ex.SequenceID)
}

func TestGoEqualsPressAndRelease(t *testing.T) {
	s := show.New()
	exID := show.NewObjectID(show.KindExecutor)
	apply(t, s, Create{ID: exID})

	apply(t, s, Go{ID: exID})
	ex, err := s.Executors.Get(exID)
	require.NoError(t, err)
	require.True(t, ex.Button.WasPressed)
	require.False(t, ex.Button.CurrentlyPressed)
}

func TestPresetStoreCapturesProgrammer(t *testing.T) {
	s, typeID := newShowWithGdtf(t)
	apply(t, s, PatchAdd{FID: 1, Address: addr(t, 1, 1), TypeID: typeID, DmxMode: "Standard"})

	presetID := show.NewObjectID(show.KindPreset)
	apply(t, s, Create{ID: presetID, FeatureGroup: patch.FeatureDimmer})

	apply(t, s, ProgrammerSetAttribute{FID: 1, Attribute: "Dimmer", Value: 0.5})

	apply(t, s, PresetStore{ID: presetID})
	preset, err := s.Presets.Get(presetID)
	require.NoError(t, err)
	content, ok := preset.Content.(*show.SelectiveContent)
	require.True(t, ok)
	require.Len(t, content.Values, 1)
	require.InDelta(t, 0.5, float64(content.Values[show.SelectiveKey{Fixture: 1, Attribute: "Dimmer"}]), 1e-9)

	apply(t, s, PresetClear{ID: presetID})
	content, ok = preset.Content.(*show.SelectiveContent)
	require.True(t, ok)
	require.Empty(t, content.Values)
}

func TestPresetStoreFiltersFeatureGroup(t *testing.T) {
	s, typeID := newShowWithGdtf(t)
	apply(t, s, PatchAdd{FID: 1, Address: addr(t, 1, 1), TypeID: typeID, DmxMode: "Standard"})

	presetID := show.NewObjectID(show.KindPreset)
	apply(t, s, Create{ID: presetID, FeatureGroup: patch.FeatureColor})

	// A dimmer value never lands in a color preset.
	apply(t, s, ProgrammerSetAttribute{FID: 1, Attribute: "Dimmer", Value: 0.5})
	apply(t, s, PresetStore{ID: presetID})

	preset, err := s.Presets.Get(presetID)
	require.NoError(t, err)
	content, ok := preset.Content.(*show.SelectiveContent)
	require.True(t, ok)
	require.Empty(t, content.Values)
}

func TestCommandsAgainstUnknownObjects(t *testing.T) {
	s := show.New()
	missing := show.NewObjectID(show.KindExecutor)

	for _, cmd := range []Command{
		ExecutorButtonPress{ID: missing},
		ExecutorFaderSetLevel{ID: missing, Level: 0.5},
		Go{ID: missing},
	} {
		if _, err := cmd.Apply(s); !errors.Is(err, engineerr.ErrUnknownID) {
			t.Errorf("%T err = %v, want ErrUnknownID", cmd, err)
		}
	}
}

// Failed commands leave no partial state behind: an unknown sequence on
// ExecutorSetSequence keeps the executor's previous link.
func TestExecutorSetSequenceTransactional(t *testing.T) {
	s := show.New()
	exID := show.NewObjectID(show.KindExecutor)
	seqID := show.NewObjectID(show.KindSequence)
	apply(t, s, Create{ID: exID})
	apply(t, s, Create{ID: seqID})
	apply(t, s, ExecutorSetSequence{ID: exID, SequenceID: seqID})

	_, err := ExecutorSetSequence{ID: exID, SequenceID: show.NewObjectID(show.KindSequence)}.Apply(s)
	if !errors.Is(err, engineerr.ErrUnknownID) {
		t.Errorf("err = %v, want ErrUnknownID", err)
	}

	ex, err := s.Executors.Get(exID)
	require.NoError(t, err)
	require.NotNil(t, ex.SequenceID)
	require.Equal(t, seqID, *ex.SequenceID)
}
