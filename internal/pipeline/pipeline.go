// Package pipeline implements the central merging buffer that the
// resolver flattens into DMX bytes each frame: unresolved attribute
// values, unresolved direct DMX writes, and the resolved multiverse they
// produce.
package pipeline

import (
	"log"

	"github.com/lumenstage/lumen/internal/dmx"
	"github.com/lumenstage/lumen/internal/patch"
)

// AttrKey identifies one (fixture, attribute) slot in the unresolved
// attribute-value layer.
type AttrKey struct {
	Fixture   patch.FixtureID
	Attribute patch.Attribute
}

// Pipeline holds the unresolved layers plus the flat multiverse they
// resolve to.
type Pipeline struct {
	attributeValues map[AttrKey]patch.AttributeValue
	dmxValues       map[dmx.Address]byte

	resolved                *dmx.Multiverse
	resolvedAttributeValues map[AttrKey]patch.AttributeValue
}

// New returns an empty Pipeline.
func New() *Pipeline {
	return &Pipeline{
		attributeValues:         make(map[AttrKey]patch.AttributeValue),
		dmxValues:               make(map[dmx.Address]byte),
		resolved:                dmx.NewMultiverse(),
		resolvedAttributeValues: make(map[AttrKey]patch.AttributeValue),
	}
}

// SetAttributeValue records an unresolved attribute write.
func (p *Pipeline) SetAttributeValue(fid patch.FixtureID, attr patch.Attribute, v patch.AttributeValue) {
	p.attributeValues[AttrKey{Fixture: fid, Attribute: attr}] = v
}

// GetAttributeValue returns the unresolved (pre-flatten) value for
// (fid, attr), reporting whether one has been set this cycle.
func (p *Pipeline) GetAttributeValue(fid patch.FixtureID, attr patch.Attribute) (patch.AttributeValue, bool) {
	v, ok := p.attributeValues[AttrKey{Fixture: fid, Attribute: attr}]
	return v, ok
}

// UnresolvedAttributeValues returns the current unresolved attribute
// layer. The returned map is the pipeline's own; callers only read it.
func (p *Pipeline) UnresolvedAttributeValues() map[AttrKey]patch.AttributeValue {
	return p.attributeValues
}

// SetDmxValue records an unresolved direct-address write, taking priority
// over attribute-value writes to the same address at resolve time.
func (p *Pipeline) SetDmxValue(addr dmx.Address, value byte) {
	p.dmxValues[addr] = value
}

// ClearUnresolved empties the attribute-value and direct-DMX layers but
// leaves the resolved multiverse untouched. Programmer.Clear uses it to
// drop the operator's values; the resolver does not call it and builds a
// fresh output pipeline each frame instead.
func (p *Pipeline) ClearUnresolved() {
	p.attributeValues = make(map[AttrKey]patch.AttributeValue)
	p.dmxValues = make(map[dmx.Address]byte)
}

// ResolvedMultiverse returns the flat multiverse produced by the last
// Resolve call.
func (p *Pipeline) ResolvedMultiverse() *dmx.Multiverse {
	return p.resolved
}

// ResolvedAttributeValues returns the attribute values folded in by the
// Resolve calls made on this pipeline so far, for introspection. Entries
// written by an earlier call are not removed by a later one.
func (p *Pipeline) ResolvedAttributeValues() map[AttrKey]patch.AttributeValue {
	return p.resolvedAttributeValues
}

// Resolve flattens the pipeline's layers into the resolved multiverse, in
// order: fixture defaults, then unresolved attribute values, then direct
// DMX writes. Each layer overwrites bytes the previous layer set.
func (p *Pipeline) Resolve(pat *patch.Patch) {
	p.resolveDefaultValues(pat)
	p.resolveAttributeValues(pat)
	p.resolveDirectDmxValues()
}

func (p *Pipeline) resolveDefaultValues(pat *patch.Patch) {
	for _, f := range pat.Fixtures() {
		for _, d := range f.GetDefaultAttributeValues() {
			p.writeAttribute(f, d.Attribute, d.Value)
		}
	}
}

func (p *Pipeline) resolveAttributeValues(pat *patch.Patch) {
	for key, v := range p.attributeValues {
		f, ok := pat.Fixture(key.Fixture)
		if !ok {
			log.Printf("pipeline: fixture %d referenced but not patched", key.Fixture)
			continue
		}
		p.writeAttribute(f, key.Attribute, v)
	}
}

func (p *Pipeline) writeAttribute(f *patch.Fixture, attr patch.Attribute, v patch.AttributeValue) {
	values, err := f.GetChannelValues(attr, v)
	if err != nil {
		log.Printf("pipeline: fixture %d attribute %s: %v", f.ID, attr, err)
		return
	}
	for _, cb := range values {
		p.resolved.SetValue(dmx.Address{Universe: f.Address.Universe, Channel: cb.Channel}, cb.Byte)
	}
	p.resolvedAttributeValues[AttrKey{Fixture: f.ID, Attribute: attr}] = v
}

func (p *Pipeline) resolveDirectDmxValues() {
	for addr, b := range p.dmxValues {
		p.resolved.SetValue(addr, b)
	}
}

// MergeInto copies this pipeline's two unresolved layers into other,
// overwriting on key collision. Used to fold the programmer's pipeline
// onto the output pipeline before the output pipeline resolves.
func (p *Pipeline) MergeInto(other *Pipeline) {
	for key, v := range p.attributeValues {
		other.attributeValues[key] = v
	}
	for addr, b := range p.dmxValues {
		other.dmxValues[addr] = b
	}
}
