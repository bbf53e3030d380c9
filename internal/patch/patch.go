package patch

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/lumenstage/lumen/internal/dmx"
	"github.com/lumenstage/lumen/internal/engineerr"
	"github.com/lumenstage/lumen/internal/gdtf"
)

// Patch holds every fixture currently addressed in the show, plus the
// GDTF descriptions available to resolve new ones against.
type Patch struct {
	mu           sync.RWMutex
	fixtures     map[FixtureID]*Fixture
	descriptions map[uuid.UUID]*gdtf.Description
}

// New returns an empty Patch.
func New() *Patch {
	return &Patch{
		fixtures:     make(map[FixtureID]*Fixture),
		descriptions: make(map[uuid.UUID]*gdtf.Description),
	}
}

// LoadGdtf registers a parsed GDTF description so fixtures of that type
// can subsequently be patched. This is how the external GDTF collaborator
// hands already-decoded fixture types to the engine.
func (p *Patch) LoadGdtf(desc *gdtf.Description) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.descriptions[desc.TypeID] = desc
}

// AddFixture stores a fully constructed Fixture, failing with
// ErrDuplicateID if its id is already patched.
func (p *Patch) AddFixture(f *Fixture) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.fixtures[f.ID]; exists {
		return fmt.Errorf("fixture %d: %w", f.ID, engineerr.ErrDuplicateID)
	}
	p.fixtures[f.ID] = f
	return nil
}

// PatchFixture constructs and stores a Fixture at address, for the GDTF
// type typeID in the named DMX mode. The type's description must already
// be loaded via LoadGdtf; the named mode must exist on it.
func (p *Patch) PatchFixture(id FixtureID, address dmx.Address, typeID uuid.UUID, modeName string) (*Fixture, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.fixtures[id]; exists {
		return nil, fmt.Errorf("fixture %d: %w", id, engineerr.ErrDuplicateID)
	}
	desc, ok := p.descriptions[typeID]
	if !ok {
		return nil, fmt.Errorf("type %s: %w", typeID, engineerr.ErrUnknownFixtureType)
	}
	mode, ok := desc.Mode(modeName)
	if !ok {
		return nil, fmt.Errorf("type %s mode %q: %w", typeID, modeName, engineerr.ErrUnknownFixtureType)
	}

	f := &Fixture{
		ID:       id,
		Address:  address,
		TypeID:   typeID,
		ModeName: modeName,
		mode:     mode,
	}
	p.fixtures[id] = f
	return f, nil
}

// SetAddress re-addresses an existing fixture.
func (p *Patch) SetAddress(id FixtureID, address dmx.Address) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	f, ok := p.fixtures[id]
	if !ok {
		return fmt.Errorf("fixture %d: %w", id, engineerr.ErrUnknownID)
	}
	f.Address = address
	return nil
}

// SetMode changes an existing fixture's DMX mode, validating the new mode
// name against the fixture's GDTF type.
func (p *Patch) SetMode(id FixtureID, modeName string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	f, ok := p.fixtures[id]
	if !ok {
		return fmt.Errorf("fixture %d: %w", id, engineerr.ErrUnknownID)
	}
	desc, ok := p.descriptions[f.TypeID]
	if !ok {
		return fmt.Errorf("type %s: %w", f.TypeID, engineerr.ErrUnknownFixtureType)
	}
	mode, ok := desc.Mode(modeName)
	if !ok {
		return fmt.Errorf("mode %q: %w", modeName, engineerr.ErrUnknownFixtureType)
	}
	f.ModeName = modeName
	f.mode = mode
	return nil
}

// SetGdtf reassigns an existing fixture to a different (already loaded)
// GDTF type and mode.
func (p *Patch) SetGdtf(id FixtureID, typeID uuid.UUID, modeName string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	f, ok := p.fixtures[id]
	if !ok {
		return fmt.Errorf("fixture %d: %w", id, engineerr.ErrUnknownID)
	}
	desc, ok := p.descriptions[typeID]
	if !ok {
		return fmt.Errorf("type %s: %w", typeID, engineerr.ErrUnknownFixtureType)
	}
	mode, ok := desc.Mode(modeName)
	if !ok {
		return fmt.Errorf("type %s mode %q: %w", typeID, modeName, engineerr.ErrUnknownFixtureType)
	}
	f.TypeID = typeID
	f.ModeName = modeName
	f.mode = mode
	return nil
}

// Remove deletes a patched fixture.
func (p *Patch) Remove(id FixtureID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.fixtures[id]; !ok {
		return fmt.Errorf("fixture %d: %w", id, engineerr.ErrUnknownID)
	}
	delete(p.fixtures, id)
	return nil
}

// Fixture returns the patched fixture for id, if present.
func (p *Patch) Fixture(id FixtureID) (*Fixture, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	f, ok := p.fixtures[id]
	return f, ok
}

// Fixtures returns every patched fixture, ordered by FixtureID.
func (p *Patch) Fixtures() []*Fixture {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Fixture, 0, len(p.fixtures))
	for _, f := range p.fixtures {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
