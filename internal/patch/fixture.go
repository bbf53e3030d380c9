package patch

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/lumenstage/lumen/internal/dmx"
	"github.com/lumenstage/lumen/internal/engineerr"
	"github.com/lumenstage/lumen/internal/gdtf"
)

// FixtureID uniquely identifies a patched fixture.
type FixtureID uint32

// ChannelByte is one resolved (channel, byte) pair, as produced by a
// fixture's attribute-to-bytes conversion.
type ChannelByte struct {
	Channel dmx.Channel
	Byte    byte
}

// Fixture is a patched lighting device: its DMX start address, GDTF
// fixture-type reference, and the resolved DMX mode describing its
// channel layout.
type Fixture struct {
	ID       FixtureID
	Address  dmx.Address
	TypeID   uuid.UUID
	ModeName string

	mode *gdtf.DmxMode
}

// SupportedDmxModes returns every DMX mode name this fixture's GDTF type
// offers, not just the one it is patched in. Patch.SetMode does not call
// it; it checks a new mode name through desc.Mode directly.
func (f *Fixture) SupportedDmxModes(desc *gdtf.Description) []string {
	return desc.ModeNames()
}

// SupportedAttributes iterates every attribute reachable through any DMX
// channel's initial channel-function in this fixture's DMX mode.
func (f *Fixture) SupportedAttributes() []Attribute {
	attrs := make([]Attribute, 0, len(f.mode.Channels))
	for _, ch := range f.mode.Channels {
		if attr, ok := ch.InitialAttribute(); ok {
			attrs = append(attrs, Attribute(attr))
		}
	}
	return attrs
}

// channelForAttribute returns the first DMX channel whose any logical
// channel's attribute, via any of its channel functions, equals attr.
func (f *Fixture) channelForAttribute(attr Attribute) (*gdtf.DmxChannel, bool) {
	for i := range f.mode.Channels {
		if f.mode.Channels[i].HasAttribute(string(attr)) {
			return &f.mode.Channels[i], true
		}
	}
	return nil, false
}

// absoluteChannel maps a 1-indexed GDTF offset to its absolute channel
// within this fixture's universe: start_channel + offset - 1.
func (f *Fixture) absoluteChannel(offset uint16) (dmx.Channel, error) {
	n := int(f.Address.Channel) + int(offset) - 1
	ch, err := dmx.NewChannel(n)
	if err != nil {
		return 0, fmt.Errorf("fixture %d attribute channel %d: %w", f.ID, n, engineerr.ErrOutOfRange)
	}
	return ch, nil
}

// ChannelsForAttribute returns the absolute channels attr occupies,
// failing with ErrAttributeNotSupported if no channel targets it.
func (f *Fixture) ChannelsForAttribute(attr Attribute) ([]dmx.Channel, error) {
	channel, ok := f.channelForAttribute(attr)
	if !ok {
		return nil, fmt.Errorf("attribute %q on fixture %d: %w", attr, f.ID, engineerr.ErrAttributeNotSupported)
	}
	out := make([]dmx.Channel, 0, len(channel.Offset))
	for _, offset := range channel.Offset {
		abs, err := f.absoluteChannel(offset)
		if err != nil {
			return nil, err
		}
		out = append(out, abs)
	}
	return out, nil
}

// GetChannelValues converts value into (channel, byte) pairs for attr,
// using up to 4 channels depending on the attribute's DMX resolution.
func (f *Fixture) GetChannelValues(attr Attribute, value AttributeValue) ([]ChannelByte, error) {
	channels, err := f.ChannelsForAttribute(attr)
	if err != nil {
		return nil, err
	}
	bytes := value.ToBytes(len(channels))
	out := make([]ChannelByte, len(channels))
	for i, ch := range channels {
		out[i] = ChannelByte{Channel: ch, Byte: bytes[i]}
	}
	return out, nil
}

// AttributeDefault is one (attribute, default-value) pair derived from a
// fixture's GDTF channel layout.
type AttributeDefault struct {
	Attribute Attribute
	Value     AttributeValue
}

// GetDefaultAttributeValues walks every DMX channel's initial function
// and yields the canonical attribute and its GDTF-authored default value,
// used to seed the multiverse at the bottom of the pipeline.
func (f *Fixture) GetDefaultAttributeValues() []AttributeDefault {
	out := make([]AttributeDefault, 0, len(f.mode.Channels))
	for _, ch := range f.mode.Channels {
		attr, ok := ch.InitialAttribute()
		if !ok {
			continue
		}
		out = append(out, AttributeDefault{Attribute: Attribute(attr), Value: NewAttributeValue(ch.Default)})
	}
	return out
}

// GetDefaultChannelValues returns the (channel, byte) pairs for every DMX
// channel's GDTF-authored default value.
func (f *Fixture) GetDefaultChannelValues() ([]ChannelByte, error) {
	return f.channelValuesFor(func(ch gdtf.DmxChannel) (AttributeValue, bool) {
		return NewAttributeValue(ch.Default), true
	})
}

// GetHighlightChannelValues returns the (channel, byte) pairs for every
// DMX channel that defines a highlight value, skipping those that don't.
func (f *Fixture) GetHighlightChannelValues() ([]ChannelByte, error) {
	return f.channelValuesFor(func(ch gdtf.DmxChannel) (AttributeValue, bool) {
		if ch.Highlight == nil {
			return 0, false
		}
		return NewAttributeValue(*ch.Highlight), true
	})
}

func (f *Fixture) channelValuesFor(pick func(gdtf.DmxChannel) (AttributeValue, bool)) ([]ChannelByte, error) {
	var out []ChannelByte
	for _, ch := range f.mode.Channels {
		value, ok := pick(ch)
		if !ok {
			continue
		}
		bytes := value.ToBytes(len(ch.Offset))
		for i, offset := range ch.Offset {
			abs, err := f.absoluteChannel(offset)
			if err != nil {
				return nil, err
			}
			out = append(out, ChannelByte{Channel: abs, Byte: bytes[i]})
		}
	}
	return out, nil
}
