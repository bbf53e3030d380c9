// Package command defines the engine's sole write interface: every show
// mutation is a Command value applied transactionally against the Show.
// A command validates its arguments first and only then mutates, so a
// failed command never leaves partial writes behind; successful commands
// report the engine events UI observers need.
package command

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/lumenstage/lumen/internal/dmx"
	"github.com/lumenstage/lumen/internal/engineerr"
	"github.com/lumenstage/lumen/internal/patch"
	"github.com/lumenstage/lumen/internal/pubsub"
	"github.com/lumenstage/lumen/internal/show"
)

// Command is one atomic show mutation. Apply validates, mutates s, and
// returns the events observers should be notified with. On error s is
// untouched.
type Command interface {
	Apply(s *show.Show) ([]pubsub.Event, error)
}

// PatchAdd patches a new fixture. The fixture type's GDTF description
// must already be loaded.
type PatchAdd struct {
	FID     patch.FixtureID
	Address dmx.Address
	TypeID  uuid.UUID
	DmxMode string
}

func (c PatchAdd) Apply(s *show.Show) ([]pubsub.Event, error) {
	if _, err := s.Patch.PatchFixture(c.FID, c.Address, c.TypeID, c.DmxMode); err != nil {
		return nil, err
	}
	return []pubsub.Event{{Kind: pubsub.EventFixturesChanged}}, nil
}

// PatchSetAddress re-addresses a patched fixture.
type PatchSetAddress struct {
	FID     patch.FixtureID
	Address dmx.Address
}

func (c PatchSetAddress) Apply(s *show.Show) ([]pubsub.Event, error) {
	if err := s.Patch.SetAddress(c.FID, c.Address); err != nil {
		return nil, err
	}
	return []pubsub.Event{{Kind: pubsub.EventFixturesChanged}}, nil
}

// PatchSetMode changes a fixture's DMX mode, validated against its GDTF
// type.
type PatchSetMode struct {
	FID  patch.FixtureID
	Mode string
}

func (c PatchSetMode) Apply(s *show.Show) ([]pubsub.Event, error) {
	if err := s.Patch.SetMode(c.FID, c.Mode); err != nil {
		return nil, err
	}
	return []pubsub.Event{{Kind: pubsub.EventFixturesChanged}}, nil
}

// PatchSetGdtf reassigns a fixture to another loaded GDTF type and mode.
type PatchSetGdtf struct {
	FID    patch.FixtureID
	TypeID uuid.UUID
	Mode   string
}

func (c PatchSetGdtf) Apply(s *show.Show) ([]pubsub.Event, error) {
	if err := s.Patch.SetGdtf(c.FID, c.TypeID, c.Mode); err != nil {
		return nil, err
	}
	return []pubsub.Event{{Kind: pubsub.EventFixturesChanged}}, nil
}

// PatchRemove unpatches a fixture.
type PatchRemove struct {
	FID patch.FixtureID
}

func (c PatchRemove) Apply(s *show.Show) ([]pubsub.Event, error) {
	if err := s.Patch.Remove(c.FID); err != nil {
		return nil, err
	}
	return []pubsub.Event{{Kind: pubsub.EventFixturesChanged}}, nil
}

// ProgrammerSetAddress writes a direct DMX byte into the programmer.
type ProgrammerSetAddress struct {
	Address dmx.Address
	Value   byte
}

func (c ProgrammerSetAddress) Apply(s *show.Show) ([]pubsub.Event, error) {
	s.Programmer.SetAddress(c.Address, c.Value)
	return nil, nil
}

// ProgrammerSetAttribute writes a live attribute override into the
// programmer for a patched fixture.
type ProgrammerSetAttribute struct {
	FID       patch.FixtureID
	Attribute patch.Attribute
	Value     float64
}

func (c ProgrammerSetAttribute) Apply(s *show.Show) ([]pubsub.Event, error) {
	if _, ok := s.Patch.Fixture(c.FID); !ok {
		return nil, fmt.Errorf("fixture %d: %w", c.FID, engineerr.ErrUnknownID)
	}
	s.Programmer.SetAttribute(c.FID, c.Attribute, patch.NewAttributeValue(c.Value))
	return nil, nil
}

// ProgrammerClear wipes the programmer: selection and values.
type ProgrammerClear struct{}

func (ProgrammerClear) Apply(s *show.Show) ([]pubsub.Event, error) {
	s.Programmer.Clear()
	return []pubsub.Event{{Kind: pubsub.EventSelectionChanged}}, nil
}

// Select adds a patched fixture to the programmer selection.
type Select struct {
	FID patch.FixtureID
}

func (c Select) Apply(s *show.Show) ([]pubsub.Event, error) {
	if _, ok := s.Patch.Fixture(c.FID); !ok {
		return nil, fmt.Errorf("fixture %d: %w", c.FID, engineerr.ErrUnknownID)
	}
	s.Programmer.Select(c.FID)
	return []pubsub.Event{{Kind: pubsub.EventSelectionChanged}}, nil
}

// ClearSelection empties the programmer selection, leaving its values in
// place.
type ClearSelection struct{}

func (ClearSelection) Apply(s *show.Show) ([]pubsub.Event, error) {
	s.Programmer.ClearSelection()
	return []pubsub.Event{{Kind: pubsub.EventSelectionChanged}}, nil
}
