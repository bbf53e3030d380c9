package showfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/lumenstage/lumen/internal/engineerr"
	"github.com/lumenstage/lumen/internal/gdtf"
	"github.com/lumenstage/lumen/internal/show"
)

const patchYaml = `- fid: 1
  universe: 1
  channel: 1
  gdtf_type_id: %s
  dmx_mode: Standard
`

const objectsYaml = `groups:
  - id: %s
    name: All Dimmers
    pool: 1
    fixtures: [1]
dimmer_presets:
  - id: %s
    name: Full
    universal:
      Dimmer: 1.0
cues:
  - id: %s
    name: Look 1
    fade_in: PT2S
    fade_out: PT0.5S
    recipes:
      - group: %s
        preset: %s
sequences:
  - id: %s
    name: Main
    cues: [%s]
executors:
  - id: %s
    name: Exec 1
    pool: 1
    sequence: %s
    fader_level: 1.0
`

const protocolsYaml = `sacn:
  - name: stage left
    destination_ip: 239.255.0.1
    priority: 100
    preview_data: false
    universes: [1]
`

func writeShowfile(t *testing.T, typeID uuid.UUID) (string, map[string]uuid.UUID) {
	t.Helper()
	dir := t.TempDir()

	ids := map[string]uuid.UUID{
		"group":    uuid.New(),
		"preset":   uuid.New(),
		"cue":      uuid.New(),
		"sequence": uuid.New(),
		"executor": uuid.New(),
	}

	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write("patch.yaml", fmt.Sprintf(patchYaml, typeID))
	write("objects.yaml", fmt.Sprintf(objectsYaml,
		ids["group"], ids["preset"], ids["cue"], ids["group"], ids["preset"],
		ids["sequence"], ids["cue"], ids["executor"], ids["sequence"]))
	write("protocols.yaml", protocolsYaml)
	return dir, ids
}

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

func TestLoadAndApply(t *testing.T) {
	typeID := uuid.New()
	dir, ids := writeShowfile(t, typeID)

	sf, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, sf.Patch, 1)
	require.Len(t, sf.Objects.Groups, 1)
	require.Len(t, sf.Objects.DimmerPresets, 1)
	require.Len(t, sf.Protocols.Sacn, 1)

	loader := gdtf.NewStaticLoader()
	loader.Register(dimmerDescription(typeID))

	s, err := sf.Apply(context.Background(), loader)
	require.NoError(t, err)

	_, ok := s.Patch.Fixture(1)
	require.True(t, ok)

	groupID := show.ObjectID{Kind: show.KindFixtureGroup, UUID: ids["group"]}
	group, err := s.Groups.Get(groupID)
	require.NoError(t, err)
	require.Len(t, group.Fixtures, 1)

	name, ok := s.Groups.Name(groupID)
	require.True(t, ok)
	require.Equal(t, "All Dimmers", name)

	_, poolHit, ok := s.Groups.ByPool(1)
	require.True(t, ok)
	require.Equal(t, groupID, poolHit)

	cue, err := s.Cues.Get(show.ObjectID{Kind: show.KindCue, UUID: ids["cue"]})
	require.NoError(t, err)
	require.Equal(t, 2*time.Second, cue.FadeIn)
	require.Equal(t, 500*time.Millisecond, cue.FadeOut)
	require.Len(t, cue.Recipes, 1)

	seq, err := s.Sequences.Get(show.ObjectID{Kind: show.KindSequence, UUID: ids["sequence"]})
	require.NoError(t, err)
	require.Equal(t, 1, seq.Len())

	ex, err := s.Executors.Get(show.ObjectID{Kind: show.KindExecutor, UUID: ids["executor"]})
	require.NoError(t, err)
	require.NotNil(t, ex.SequenceID)
	require.InDelta(t, 1.0, ex.Fader.Level, 1e-9)
}

func TestApplyFailsOnMissingGdtf(t *testing.T) {
	typeID := uuid.New()
	dir, _ := writeShowfile(t, typeID)

	sf, err := Load(dir)
	require.NoError(t, err)

	_, err = sf.Apply(context.Background(), gdtf.NewStaticLoader())
	if !errors.Is(err, engineerr.ErrGdtfParse) {
		t.Errorf("Apply without the description err = %v, want ErrGdtfParse", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(t.TempDir())
	if !errors.Is(err, engineerr.ErrShowfileRead) {
		t.Errorf("Load on empty dir err = %v, want ErrShowfileRead", err)
	}
}

func TestSourceConfigs(t *testing.T) {
	typeID := uuid.New()
	dir, _ := writeShowfile(t, typeID)
	sf, err := Load(dir)
	require.NoError(t, err)

	sources, err := sf.SourceConfigs()
	require.NoError(t, err)
	require.Len(t, sources, 1)
	require.Equal(t, "stage left", sources[0].Name)
	require.Equal(t, "239.255.0.1", sources[0].DestinationIP)
	require.EqualValues(t, 100, sources[0].Priority)
	require.Len(t, sources[0].Universes, 1)
}

func TestSourceConfigsRejectsBadPriority(t *testing.T) {
	sf := &Showfile{Protocols: Protocols{Sacn: []SourceEntry{{Name: "x", Priority: 201}}}}
	_, err := sf.SourceConfigs()
	if !errors.Is(err, engineerr.ErrOutOfRange) {
		t.Errorf("priority 201 err = %v, want ErrOutOfRange", err)
	}
}

func TestBuildPresetRejectsMixedShapes(t *testing.T) {
	entry := PresetEntry{
		ID:        uuid.NewString(),
		Universal: map[string]float64{"Dimmer": 1},
		Selective: []SelectiveValue{{FID: 1, Attribute: "Dimmer", Value: 1}},
	}
	_, err := buildPreset("Dimmer", entry)
	if !errors.Is(err, engineerr.ErrShowfileRead) {
		t.Errorf("mixed shapes err = %v, want ErrShowfileRead", err)
	}
}

func TestParseFade(t *testing.T) {
	d, err := parseFade("")
	require.NoError(t, err)
	require.Equal(t, time.Duration(0), d)

	d, err = parseFade("PT1.5S")
	require.NoError(t, err)
	require.Equal(t, 1500*time.Millisecond, d)

	if _, err := parseFade("2 seconds"); err == nil {
		t.Error("non-ISO-8601 duration should fail")
	}
}
