// Package showfile loads a show from its on-disk directory: patch.yaml,
// objects.yaml, protocols.yaml, and a gdtf_files/ directory of fixture
// descriptions referenced by UUID. The directory is consumed once at
// startup and never hot-reloaded.
package showfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sosodev/duration"
	"gopkg.in/yaml.v3"

	"github.com/lumenstage/lumen/internal/dmx"
	"github.com/lumenstage/lumen/internal/engineerr"
	"github.com/lumenstage/lumen/internal/gdtf"
	"github.com/lumenstage/lumen/internal/patch"
	"github.com/lumenstage/lumen/internal/sacn"
	"github.com/lumenstage/lumen/internal/show"
)

// PatchEntry is one patched fixture in patch.yaml.
type PatchEntry struct {
	FID        uint32 `yaml:"fid"`
	Universe   int    `yaml:"universe"`
	Channel    int    `yaml:"channel"`
	GdtfTypeID string `yaml:"gdtf_type_id"`
	DmxMode    string `yaml:"dmx_mode"`
}

// GroupEntry is one fixture group in objects.yaml.
type GroupEntry struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Pool     uint32   `yaml:"pool,omitempty"`
	Fixtures []uint32 `yaml:"fixtures"`
}

// GlobalValue scopes a preset value to a fixture type.
type GlobalValue struct {
	FixtureType string  `yaml:"fixture_type"`
	Attribute   string  `yaml:"attribute"`
	Value       float64 `yaml:"value"`
}

// SelectiveValue scopes a preset value to a single fixture.
type SelectiveValue struct {
	FID       uint32  `yaml:"fid"`
	Attribute string  `yaml:"attribute"`
	Value     float64 `yaml:"value"`
}

// PresetEntry is one preset in objects.yaml. At most one of Universal,
// Global, or Selective is populated; an entry with none loads as an empty
// Selective preset.
type PresetEntry struct {
	ID        string             `yaml:"id"`
	Name      string             `yaml:"name"`
	Pool      uint32             `yaml:"pool,omitempty"`
	Universal map[string]float64 `yaml:"universal,omitempty"`
	Global    []GlobalValue      `yaml:"global,omitempty"`
	Selective []SelectiveValue   `yaml:"selective,omitempty"`
}

// RecipeEntry is one (group, preset) binding in a cue.
type RecipeEntry struct {
	Group  string `yaml:"group"`
	Preset string `yaml:"preset"`
}

// CueEntry is one cue in objects.yaml. Fade durations are ISO-8601
// strings ("PT2S"), empty meaning zero.
type CueEntry struct {
	ID      string        `yaml:"id"`
	Name    string        `yaml:"name"`
	Pool    uint32        `yaml:"pool,omitempty"`
	FadeIn  string        `yaml:"fade_in,omitempty"`
	FadeOut string        `yaml:"fade_out,omitempty"`
	Recipes []RecipeEntry `yaml:"recipes"`
}

// SequenceEntry is one sequence in objects.yaml: an ordered list of cue
// ids.
type SequenceEntry struct {
	ID   string   `yaml:"id"`
	Name string   `yaml:"name"`
	Pool uint32   `yaml:"pool,omitempty"`
	Cues []string `yaml:"cues"`
}

// ExecutorEntry is one executor in objects.yaml.
type ExecutorEntry struct {
	ID         string  `yaml:"id"`
	Name       string  `yaml:"name"`
	Pool       uint32  `yaml:"pool,omitempty"`
	Sequence   string  `yaml:"sequence,omitempty"`
	ButtonMode string  `yaml:"button_mode,omitempty"`
	FaderMode  string  `yaml:"fader_mode,omitempty"`
	FaderLevel float64 `yaml:"fader_level"`
}

// Objects is the decoded objects.yaml: flat lists per object kind, with
// one preset list per feature group.
type Objects struct {
	Groups []GroupEntry `yaml:"groups"`

	DimmerPresets   []PresetEntry `yaml:"dimmer_presets"`
	PositionPresets []PresetEntry `yaml:"position_presets"`
	GoboPresets     []PresetEntry `yaml:"gobo_presets"`
	ColorPresets    []PresetEntry `yaml:"color_presets"`
	BeamPresets     []PresetEntry `yaml:"beam_presets"`
	FocusPresets    []PresetEntry `yaml:"focus_presets"`
	ControlPresets  []PresetEntry `yaml:"control_presets"`
	ShapersPresets  []PresetEntry `yaml:"shapers_presets"`
	VideoPresets    []PresetEntry `yaml:"video_presets"`

	Cues      []CueEntry      `yaml:"cues"`
	Sequences []SequenceEntry `yaml:"sequences"`
	Executors []ExecutorEntry `yaml:"executors"`
}

// SourceEntry is one sACN source in protocols.yaml.
type SourceEntry struct {
	Name          string   `yaml:"name"`
	DestinationIP string   `yaml:"destination_ip"`
	Priority      int      `yaml:"priority"`
	PreviewData   bool     `yaml:"preview_data"`
	Universes     []uint16 `yaml:"universes"`
}

// Protocols is the decoded protocols.yaml.
type Protocols struct {
	Sacn []SourceEntry `yaml:"sacn"`
}

// Showfile is a fully decoded show directory, not yet applied to a Show.
type Showfile struct {
	Dir       string
	Patch     []PatchEntry
	Objects   Objects
	Protocols Protocols
}

// Load reads and decodes the three YAML files under dir.
func Load(dir string) (*Showfile, error) {
	sf := &Showfile{Dir: dir}
	if err := readYaml(filepath.Join(dir, "patch.yaml"), &sf.Patch); err != nil {
		return nil, err
	}
	if err := readYaml(filepath.Join(dir, "objects.yaml"), &sf.Objects); err != nil {
		return nil, err
	}
	if err := readYaml(filepath.Join(dir, "protocols.yaml"), &sf.Protocols); err != nil {
		return nil, err
	}
	return sf, nil
}

func readYaml(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%s: %v: %w", path, err, engineerr.ErrShowfileRead)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: %v: %w", path, err, engineerr.ErrShowfileRead)
	}
	return nil
}

// GdtfDir returns the directory holding the referenced GDTF blobs, one
// file per fixture-type UUID.
func (sf *Showfile) GdtfDir() string {
	return filepath.Join(sf.Dir, "gdtf_files")
}

// SourceConfigs converts protocols.yaml into transmitter source
// configurations, validating priorities.
func (sf *Showfile) SourceConfigs() ([]sacn.SourceConfig, error) {
	out := make([]sacn.SourceConfig, 0, len(sf.Protocols.Sacn))
	for _, entry := range sf.Protocols.Sacn {
		if entry.Priority < 0 || entry.Priority > 200 {
			return nil, fmt.Errorf("source %q priority %d: %w", entry.Name, entry.Priority, engineerr.ErrOutOfRange)
		}
		universes := make([]dmx.UniverseID, 0, len(entry.Universes))
		for _, u := range entry.Universes {
			id, err := dmx.NewUniverseID(int(u))
			if err != nil {
				return nil, fmt.Errorf("source %q: %w", entry.Name, err)
			}
			universes = append(universes, id)
		}
		out = append(out, sacn.SourceConfig{
			Name:          entry.Name,
			DestinationIP: entry.DestinationIP,
			Priority:      byte(entry.Priority),
			PreviewData:   entry.PreviewData,
			Universes:     universes,
		})
	}
	return out, nil
}

// Apply builds a Show from the decoded showfile, loading every referenced
// GDTF description through loader. Any failure is startup-fatal and
// leaves no partially built show behind.
func (sf *Showfile) Apply(ctx context.Context, loader gdtf.Loader) (*show.Show, error) {
	s := show.New()

	for _, entry := range sf.Patch {
		typeID, err := uuid.Parse(entry.GdtfTypeID)
		if err != nil {
			return nil, fmt.Errorf("patch fid %d: gdtf type %q: %w", entry.FID, entry.GdtfTypeID, engineerr.ErrShowfileRead)
		}
		desc, err := loader.Load(ctx, typeID)
		if err != nil {
			return nil, fmt.Errorf("patch fid %d: %v: %w", entry.FID, err, engineerr.ErrGdtfParse)
		}
		s.Patch.LoadGdtf(desc)

		universe, err := dmx.NewUniverseID(entry.Universe)
		if err != nil {
			return nil, fmt.Errorf("patch fid %d: %w", entry.FID, err)
		}
		channel, err := dmx.NewChannel(entry.Channel)
		if err != nil {
			return nil, fmt.Errorf("patch fid %d: %w", entry.FID, err)
		}
		address := dmx.Address{Universe: universe, Channel: channel}
		if _, err := s.Patch.PatchFixture(patch.FixtureID(entry.FID), address, typeID, entry.DmxMode); err != nil {
			return nil, fmt.Errorf("patch fid %d: %w", entry.FID, err)
		}
	}

	if err := sf.applyObjects(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (sf *Showfile) applyObjects(s *show.Show) error {
	for _, entry := range sf.Groups() {
		id, err := parseObjectID(entry.ID, show.KindFixtureGroup)
		if err != nil {
			return err
		}
		fixtures := make([]patch.FixtureID, len(entry.Fixtures))
		for i, fid := range entry.Fixtures {
			fixtures[i] = patch.FixtureID(fid)
		}
		if err := s.Groups.Create(id, entry.Name, show.NewFixtureGroup(fixtures...), show.PoolID(entry.Pool)); err != nil {
			return err
		}
	}

	for fg, entries := range sf.PresetsByFeatureGroup() {
		for _, entry := range entries {
			id, err := parseObjectID(entry.ID, show.KindPreset)
			if err != nil {
				return err
			}
			preset, err := buildPreset(fg, entry)
			if err != nil {
				return err
			}
			if err := s.Presets.Create(id, entry.Name, preset, show.PoolID(entry.Pool)); err != nil {
				return err
			}
		}
	}

	for _, entry := range sf.Objects.Cues {
		id, err := parseObjectID(entry.ID, show.KindCue)
		if err != nil {
			return err
		}
		fadeIn, err := parseFade(entry.FadeIn)
		if err != nil {
			return fmt.Errorf("cue %s fade_in: %w", entry.ID, err)
		}
		fadeOut, err := parseFade(entry.FadeOut)
		if err != nil {
			return fmt.Errorf("cue %s fade_out: %w", entry.ID, err)
		}
		cue := show.NewCue(fadeIn, fadeOut)
		for _, r := range entry.Recipes {
			groupID, err := parseObjectID(r.Group, show.KindFixtureGroup)
			if err != nil {
				return err
			}
			presetID, err := parseObjectID(r.Preset, show.KindPreset)
			if err != nil {
				return err
			}
			cue.Add(show.Recipe{FixtureGroup: groupID, Preset: presetID})
		}
		if err := s.Cues.Create(id, entry.Name, cue, show.PoolID(entry.Pool)); err != nil {
			return err
		}
	}

	for _, entry := range sf.Objects.Sequences {
		id, err := parseObjectID(entry.ID, show.KindSequence)
		if err != nil {
			return err
		}
		seq := show.NewSequence()
		for _, cueID := range entry.Cues {
			cid, err := parseObjectID(cueID, show.KindCue)
			if err != nil {
				return err
			}
			seq.Add(cid)
		}
		if err := s.Sequences.Create(id, entry.Name, seq, show.PoolID(entry.Pool)); err != nil {
			return err
		}
	}

	for _, entry := range sf.Objects.Executors {
		id, err := parseObjectID(entry.ID, show.KindExecutor)
		if err != nil {
			return err
		}
		ex := show.NewExecutor()
		if entry.ButtonMode != "" {
			ex.Button.Mode = show.ButtonMode(entry.ButtonMode)
		}
		if entry.FaderMode != "" {
			ex.Fader.Mode = show.FaderMode(entry.FaderMode)
		}
		ex.Fader.SetLevel(entry.FaderLevel)
		if entry.Sequence != "" {
			seqID, err := parseObjectID(entry.Sequence, show.KindSequence)
			if err != nil {
				return err
			}
			ex.SequenceID = &seqID
		}
		if err := s.Executors.Create(id, entry.Name, ex, show.PoolID(entry.Pool)); err != nil {
			return err
		}
	}

	return nil
}

// Groups returns the group entries of objects.yaml.
func (sf *Showfile) Groups() []GroupEntry { return sf.Objects.Groups }

// PresetsByFeatureGroup returns the nine preset lists keyed by their
// feature group.
func (sf *Showfile) PresetsByFeatureGroup() map[patch.FeatureGroup][]PresetEntry {
	return map[patch.FeatureGroup][]PresetEntry{
		patch.FeatureDimmer:   sf.Objects.DimmerPresets,
		patch.FeaturePosition: sf.Objects.PositionPresets,
		patch.FeatureGobo:     sf.Objects.GoboPresets,
		patch.FeatureColor:    sf.Objects.ColorPresets,
		patch.FeatureBeam:     sf.Objects.BeamPresets,
		patch.FeatureFocus:    sf.Objects.FocusPresets,
		patch.FeatureControl:  sf.Objects.ControlPresets,
		patch.FeatureShapers:  sf.Objects.ShapersPresets,
		patch.FeatureVideo:    sf.Objects.VideoPresets,
	}
}

func buildPreset(fg patch.FeatureGroup, entry PresetEntry) (*show.Preset, error) {
	populated := 0
	if len(entry.Universal) > 0 {
		populated++
	}
	if len(entry.Global) > 0 {
		populated++
	}
	if len(entry.Selective) > 0 {
		populated++
	}
	if populated > 1 {
		return nil, fmt.Errorf("preset %s mixes content shapes: %w", entry.ID, engineerr.ErrShowfileRead)
	}

	switch {
	case len(entry.Universal) > 0:
		values := make(map[patch.Attribute]patch.AttributeValue, len(entry.Universal))
		for attr, v := range entry.Universal {
			values[patch.Attribute(attr)] = patch.NewAttributeValue(v)
		}
		return &show.Preset{FeatureGroup: fg, Content: &show.UniversalContent{Values: values}}, nil
	case len(entry.Global) > 0:
		values := make(map[show.GlobalKey]patch.AttributeValue, len(entry.Global))
		for _, g := range entry.Global {
			typeID, err := uuid.Parse(g.FixtureType)
			if err != nil {
				return nil, fmt.Errorf("preset %s fixture type %q: %w", entry.ID, g.FixtureType, engineerr.ErrShowfileRead)
			}
			values[show.GlobalKey{FixtureType: typeID, Attribute: patch.Attribute(g.Attribute)}] = patch.NewAttributeValue(g.Value)
		}
		return &show.Preset{FeatureGroup: fg, Content: &show.GlobalContent{Values: values}}, nil
	default:
		values := make(map[show.SelectiveKey]patch.AttributeValue, len(entry.Selective))
		for _, sv := range entry.Selective {
			values[show.SelectiveKey{Fixture: patch.FixtureID(sv.FID), Attribute: patch.Attribute(sv.Attribute)}] = patch.NewAttributeValue(sv.Value)
		}
		return &show.Preset{FeatureGroup: fg, Content: &show.SelectiveContent{Values: values}}, nil
	}
}

func parseObjectID(raw string, kind show.ObjectKind) (show.ObjectID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return show.ObjectID{}, fmt.Errorf("object id %q: %w", raw, engineerr.ErrShowfileRead)
	}
	return show.ObjectID{Kind: kind, UUID: id}, nil
}

// parseFade decodes an ISO-8601 duration string, treating empty as zero.
func parseFade(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := duration.Parse(raw)
	if err != nil {
		return 0, fmt.Errorf("duration %q: %v: %w", raw, err, engineerr.ErrShowfileRead)
	}
	return d.ToTimeDuration(), nil
}
