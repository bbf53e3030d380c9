package show

import (
	"sort"

	"github.com/lumenstage/lumen/internal/dmx"
	"github.com/lumenstage/lumen/internal/patch"
	"github.com/lumenstage/lumen/internal/pipeline"
)

// Programmer is the live operator overlay: the currently selected fixtures
// plus a pipeline of the operator's unresolved overrides, folded onto the
// output pipeline each frame and storable into presets.
type Programmer struct {
	selection map[patch.FixtureID]bool
	pipeline  *pipeline.Pipeline
}

// NewProgrammer returns an empty Programmer.
func NewProgrammer() *Programmer {
	return &Programmer{
		selection: make(map[patch.FixtureID]bool),
		pipeline:  pipeline.New(),
	}
}

// Pipeline returns the programmer's own pipeline.
func (p *Programmer) Pipeline() *pipeline.Pipeline {
	return p.pipeline
}

// Select adds fid to the selection.
func (p *Programmer) Select(fid patch.FixtureID) {
	p.selection[fid] = true
}

// Deselect removes fid from the selection.
func (p *Programmer) Deselect(fid patch.FixtureID) {
	delete(p.selection, fid)
}

// IsSelected reports whether fid is selected.
func (p *Programmer) IsSelected(fid patch.FixtureID) bool {
	return p.selection[fid]
}

// Selection returns the selected fixture ids, sorted.
func (p *Programmer) Selection() []patch.FixtureID {
	out := make([]patch.FixtureID, 0, len(p.selection))
	for fid := range p.selection {
		out = append(out, fid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ClearSelection empties the selection without touching values.
func (p *Programmer) ClearSelection() {
	p.selection = make(map[patch.FixtureID]bool)
}

// SetAttribute records a live attribute override.
func (p *Programmer) SetAttribute(fid patch.FixtureID, attr patch.Attribute, v patch.AttributeValue) {
	p.pipeline.SetAttributeValue(fid, attr, v)
}

// SetAddress records a live direct-address override.
func (p *Programmer) SetAddress(addr dmx.Address, value byte) {
	p.pipeline.SetDmxValue(addr, value)
}

// Clear wipes the programmer wholesale: selection and all unresolved
// values.
func (p *Programmer) Clear() {
	p.ClearSelection()
	p.pipeline.ClearUnresolved()
}

// Values returns the programmer's current unresolved attribute values as
// assignments, in a stable order — the capture source for Preset/Store.
func (p *Programmer) Values() []AttributeAssignment {
	unresolved := p.pipeline.UnresolvedAttributeValues()
	out := make([]AttributeAssignment, 0, len(unresolved))
	for key, v := range unresolved {
		out = append(out, AttributeAssignment{Fixture: key.Fixture, Attribute: key.Attribute, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Fixture != out[j].Fixture {
			return out[i].Fixture < out[j].Fixture
		}
		return out[i].Attribute < out[j].Attribute
	})
	return out
}
