package pipeline

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lumenstage/lumen/internal/dmx"
	"github.com/lumenstage/lumen/internal/gdtf"
	"github.com/lumenstage/lumen/internal/patch"
	"github.com/stretchr/testify/require"
)

func newDimmerPatch(t *testing.T) (*patch.Patch, patch.FixtureID, dmx.UniverseID, dmx.Channel) {
	t.Helper()
	p := patch.New()
	typeID := uuid.New()
	p.LoadGdtf(&gdtf.Description{
		TypeID: typeID,
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
	})
	uni, _ := dmx.NewUniverseID(1)
	ch, _ := dmx.NewChannel(1)
	_, err := p.PatchFixture(1, dmx.Address{Universe: uni, Channel: ch}, typeID, "Standard")
	require.NoError(t, err)
	return p, 1, uni, ch
}

// An 8-bit dimmer with default 0 resolves to byte 0 with no writes.
func TestResolveDefaultsOnly(t *testing.T) {
	pat, _, uni, ch := newDimmerPatch(t)
	pl := New()
	pl.Resolve(pat)

	u, _ := pl.ResolvedMultiverse().Get(uni)
	if u.Get(ch) != 0 {
		t.Errorf("byte = %d, want 0", u.Get(ch))
	}
}

// Setting Dimmer=1.0 overwrites the default with byte 255.
func TestResolveAttributeValueOverwritesDefault(t *testing.T) {
	pat, fid, uni, ch := newDimmerPatch(t)
	pl := New()
	pl.SetAttributeValue(fid, "Dimmer", patch.NewAttributeValue(1.0))
	pl.Resolve(pat)

	u, _ := pl.ResolvedMultiverse().Get(uni)
	if u.Get(ch) != 255 {
		t.Errorf("byte = %d, want 255", u.Get(ch))
	}
}

// A direct DMX write wins over an attribute-value write
// to the same address.
func TestDirectDmxWinsOverAttributeValue(t *testing.T) {
	pat, fid, uni, ch := newDimmerPatch(t)
	pl := New()
	pl.SetAttributeValue(fid, "Dimmer", patch.NewAttributeValue(1.0))
	pl.SetDmxValue(dmx.Address{Universe: uni, Channel: ch}, 128)
	pl.Resolve(pat)

	u, _ := pl.ResolvedMultiverse().Get(uni)
	if u.Get(ch) != 128 {
		t.Errorf("byte = %d, want 128 (direct DMX wins)", u.Get(ch))
	}
}

// Resolve is idempotent.
func TestResolveIsIdempotent(t *testing.T) {
	pat, fid, uni, ch := newDimmerPatch(t)
	pl := New()
	pl.SetAttributeValue(fid, "Dimmer", patch.NewAttributeValue(0.5))
	pl.Resolve(pat)
	first, _ := pl.ResolvedMultiverse().Get(uni)

	pl.Resolve(pat)
	second, _ := pl.ResolvedMultiverse().Get(uni)

	if first.Get(ch) != second.Get(ch) {
		t.Errorf("resolve not idempotent: %d != %d", first.Get(ch), second.Get(ch))
	}
}

func TestClearUnresolvedKeepsResolved(t *testing.T) {
	pat, fid, uni, ch := newDimmerPatch(t)
	pl := New()
	pl.SetAttributeValue(fid, "Dimmer", patch.NewAttributeValue(1.0))
	pl.Resolve(pat)

	pl.ClearUnresolved()
	if _, ok := pl.GetAttributeValue(fid, "Dimmer"); ok {
		t.Error("ClearUnresolved should drop unresolved attribute values")
	}
	u, _ := pl.ResolvedMultiverse().Get(uni)
	if u.Get(ch) != 255 {
		t.Errorf("ClearUnresolved should not touch resolved multiverse, got %d", u.Get(ch))
	}
}

func TestMergeIntoOverwritesOnCollision(t *testing.T) {
	_, fid, uni, ch := newDimmerPatch(t)

	programmer := New()
	programmer.SetAttributeValue(fid, "Dimmer", patch.NewAttributeValue(0.2))
	programmer.SetDmxValue(dmx.Address{Universe: uni, Channel: ch}, 9)

	output := New()
	output.SetAttributeValue(fid, "Dimmer", patch.NewAttributeValue(0.9))

	programmer.MergeInto(output)

	v, _ := output.GetAttributeValue(fid, "Dimmer")
	if v != patch.NewAttributeValue(0.2) {
		t.Errorf("merged attribute value = %v, want 0.2 (programmer overwrites)", v)
	}
}
