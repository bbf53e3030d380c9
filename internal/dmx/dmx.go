// Package dmx provides the value primitives for DMX512 universes: channel
// numbers, universe ids, addresses, fixed-size universes, and the
// multiverse map that the resolver flattens onto the wire.
package dmx

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned when a Channel or UniverseID is constructed
// outside its valid range.
var ErrOutOfRange = errors.New("dmx: value out of range")

// SlotCount is the number of addressable channels in a universe.
const SlotCount = 512

// Channel is a 1-indexed DMX channel number within a universe, 1..=512.
type Channel uint16

// NewChannel validates n and returns a Channel, failing with ErrOutOfRange
// for 0 or values above SlotCount.
func NewChannel(n int) (Channel, error) {
	if n < 1 || n > SlotCount {
		return 0, fmt.Errorf("channel %d: %w", n, ErrOutOfRange)
	}
	return Channel(n), nil
}

// Index returns the 0-based slice index of this channel within a Universe.
func (c Channel) Index() int { return int(c) - 1 }

// UniverseID identifies a DMX universe. Zero is reserved and invalid.
type UniverseID uint16

// NewUniverseID validates n and returns a UniverseID, failing with
// ErrOutOfRange for 0.
func NewUniverseID(n int) (UniverseID, error) {
	if n < 1 || n > 0xFFFF {
		return 0, fmt.Errorf("universe id %d: %w", n, ErrOutOfRange)
	}
	return UniverseID(n), nil
}

// Address identifies a single DMX slot: a universe and a channel within it.
type Address struct {
	Universe UniverseID
	Channel  Channel
}

// Universe is a fixed 512-slot DMX frame. The zero value is all-zero, the
// wire default for unpatched channels.
type Universe struct {
	Slots [SlotCount]byte
}

// Get returns the byte at ch.
func (u Universe) Get(ch Channel) byte {
	return u.Slots[ch.Index()]
}

// Set writes the byte at ch.
func (u *Universe) Set(ch Channel, value byte) {
	u.Slots[ch.Index()] = value
}

// Multiverse maps universe ids to their 512-byte frames. Reads of an
// absent universe return the zero Universe; writes auto-create it.
type Multiverse struct {
	universes map[UniverseID]*Universe
}

// NewMultiverse returns an empty Multiverse.
func NewMultiverse() *Multiverse {
	return &Multiverse{universes: make(map[UniverseID]*Universe)}
}

// Universe returns the universe for id, creating it if absent. The
// returned pointer is owned by the Multiverse; callers must not retain it
// across a Clone.
func (m *Multiverse) Universe(id UniverseID) *Universe {
	u, ok := m.universes[id]
	if !ok {
		u = &Universe{}
		m.universes[id] = u
	}
	return u
}

// Get returns the universe for id without creating it, and whether it was
// present.
func (m *Multiverse) Get(id UniverseID) (Universe, bool) {
	u, ok := m.universes[id]
	if !ok {
		return Universe{}, false
	}
	return *u, true
}

// SetValue writes value at addr, auto-creating the universe. O(1).
func (m *Multiverse) SetValue(addr Address, value byte) {
	m.Universe(addr.Universe).Set(addr.Channel, value)
}

// UniverseIDs returns the ids of every universe present, in ascending
// order.
func (m *Multiverse) UniverseIDs() []UniverseID {
	ids := make([]UniverseID, 0, len(m.universes))
	for id := range m.universes {
		ids = append(ids, id)
	}
	sortUniverseIDs(ids)
	return ids
}

func sortUniverseIDs(ids []UniverseID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

// Clone returns a deep copy, suitable for handing to another goroutine by
// value without aliasing the resolver's working state.
func (m *Multiverse) Clone() *Multiverse {
	out := NewMultiverse()
	for id, u := range m.universes {
		copied := *u
		out.universes[id] = &copied
	}
	return out
}

// Len returns the number of universes present.
func (m *Multiverse) Len() int { return len(m.universes) }
