package show

import (
	"github.com/google/uuid"
	"github.com/lumenstage/lumen/internal/patch"
)

// AttributeAssignment is one (fixture, attribute, value) triple a preset
// yields when applied against a fixture group.
type AttributeAssignment struct {
	Fixture   patch.FixtureID
	Attribute patch.Attribute
	Value     patch.AttributeValue
}

// PresetContentKind discriminates the three content shapes a Preset can
// hold.
type PresetContentKind string

const (
	ContentUniversal PresetContentKind = "universal"
	ContentGlobal    PresetContentKind = "global"
	ContentSelective PresetContentKind = "selective"
)

// PresetContent yields the (fixture, attribute, value) triples a preset
// contributes when targeted at group, restricted to fixtures in the group.
// Universal and Global content also skip fixtures missing from the patch;
// Selective content checks group membership only.
type PresetContent interface {
	Kind() PresetContentKind
	ApplicableValues(group *FixtureGroup, pat *patch.Patch) []AttributeAssignment
}

// UniversalContent applies one value per attribute to every fixture in
// the target group that supports that attribute.
type UniversalContent struct {
	Values map[patch.Attribute]patch.AttributeValue
}

func (c *UniversalContent) Kind() PresetContentKind { return ContentUniversal }

func (c *UniversalContent) ApplicableValues(group *FixtureGroup, pat *patch.Patch) []AttributeAssignment {
	var out []AttributeAssignment
	for _, fid := range group.Fixtures {
		f, ok := pat.Fixture(fid)
		if !ok {
			continue
		}
		supported := make(map[patch.Attribute]bool, len(f.SupportedAttributes()))
		for _, a := range f.SupportedAttributes() {
			supported[a] = true
		}
		for attr, v := range c.Values {
			if supported[attr] {
				out = append(out, AttributeAssignment{Fixture: fid, Attribute: attr, Value: v})
			}
		}
	}
	return out
}

// GlobalKey scopes a value to every fixture of a given GDTF type.
type GlobalKey struct {
	FixtureType uuid.UUID
	Attribute   patch.Attribute
}

// GlobalContent applies a value to every fixture in the target group
// whose GDTF type matches the entry's fixture type.
type GlobalContent struct {
	Values map[GlobalKey]patch.AttributeValue
}

func (c *GlobalContent) Kind() PresetContentKind { return ContentGlobal }

func (c *GlobalContent) ApplicableValues(group *FixtureGroup, pat *patch.Patch) []AttributeAssignment {
	var out []AttributeAssignment
	for _, fid := range group.Fixtures {
		f, ok := pat.Fixture(fid)
		if !ok {
			continue
		}
		for key, v := range c.Values {
			if key.FixtureType == f.TypeID {
				out = append(out, AttributeAssignment{Fixture: fid, Attribute: key.Attribute, Value: v})
			}
		}
	}
	return out
}

// SelectiveKey scopes a value to one specific fixture.
type SelectiveKey struct {
	Fixture   patch.FixtureID
	Attribute patch.Attribute
}

// SelectiveContent applies a value only to the specific fixtures listed,
// restricted to those also present in the target group.
type SelectiveContent struct {
	Values map[SelectiveKey]patch.AttributeValue
}

func (c *SelectiveContent) Kind() PresetContentKind { return ContentSelective }

func (c *SelectiveContent) ApplicableValues(group *FixtureGroup, _ *patch.Patch) []AttributeAssignment {
	var out []AttributeAssignment
	for key, v := range c.Values {
		if group.Contains(key.Fixture) {
			out = append(out, AttributeAssignment{Fixture: key.Fixture, Attribute: key.Attribute, Value: v})
		}
	}
	return out
}

// Preset is a stored, reusable set of attribute values scoped to one
// feature group.
type Preset struct {
	FeatureGroup patch.FeatureGroup
	Content      PresetContent
}

// ApplicableValues returns the assignments this preset contributes
// against group, filtered to only those attributes belonging to the
// preset's own feature group — the pipeline never lets a preset write
// outside the feature it was scoped to.
func (p *Preset) ApplicableValues(group *FixtureGroup, pat *patch.Patch) []AttributeAssignment {
	raw := p.Content.ApplicableValues(group, pat)
	out := make([]AttributeAssignment, 0, len(raw))
	for _, a := range raw {
		if patch.ClassifyAttribute(a.Attribute) == p.FeatureGroup {
			out = append(out, a)
		}
	}
	return out
}

// StoreFromValues captures assignments (typically the programmer's
// current values) into a fresh Selective preset, filtered by fg —
// grounds the Preset/Store command.
func StoreFromValues(fg patch.FeatureGroup, assignments []AttributeAssignment) *Preset {
	values := make(map[SelectiveKey]patch.AttributeValue)
	for _, a := range assignments {
		if patch.ClassifyAttribute(a.Attribute) != fg {
			continue
		}
		values[SelectiveKey{Fixture: a.Fixture, Attribute: a.Attribute}] = a.Value
	}
	return &Preset{FeatureGroup: fg, Content: &SelectiveContent{Values: values}}
}
