// Package gdtf describes the contract this engine expects from a GDTF
// (General Device Type Format) description: the parsed shape of a
// fixture's DMX modes, channels, and channel functions. Parsing the GDTF
// XML itself is an external collaborator's responsibility — this package
// only defines what a parsed Description looks like and how one is
// obtained, cached, and looked up by fixture-type UUID.
package gdtf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrParseNotImplemented is returned by Loaders that only validate a GDTF
// blob's presence without decoding it. Parsing GDTF XML is out of scope
// for this engine; a real implementation of Loader is supplied by the
// surrounding application.
var ErrParseNotImplemented = errors.New("gdtf: parsing not implemented")

// ErrUnknownType is returned when a fixture-type UUID has no loaded
// Description.
var ErrUnknownType = errors.New("gdtf: unknown fixture type")

// ChannelFunction is one function a logical channel can take on; its
// Attribute is the canonical control axis it drives (e.g. "Pan",
// "ColorRGB_R").
type ChannelFunction struct {
	Name      string
	Attribute string
}

// LogicalChannel groups a set of mutually exclusive ChannelFunctions
// behind one DMX channel offset. InitialFunction indexes the function
// active at DMX value 0, used to derive a channel's "main attribute".
type LogicalChannel struct {
	Functions       []ChannelFunction
	InitialFunction int
}

// Attribute returns the Attribute recorded on this logical channel's
// initial function, as stored in the Description. It does no mapping of
// its own: a sub-attribute name stored there is returned unchanged.
func (lc LogicalChannel) Attribute() (string, bool) {
	if lc.InitialFunction < 0 || lc.InitialFunction >= len(lc.Functions) {
		return "", false
	}
	return lc.Functions[lc.InitialFunction].Attribute, true
}

// DmxChannel is one DMX-resolution channel of a fixture: the byte offsets
// it occupies within its logical channel group, its default and highlight
// normalized values, and its logical channels.
type DmxChannel struct {
	// Offset lists the 1-indexed byte offsets this channel contributes,
	// in order from most to least significant (1 entry = 8-bit, up to 4
	// entries for 32-bit resolution).
	Offset  []uint16
	Logical []LogicalChannel
	// Default and Highlight are normalized values in [0,1]. Highlight is
	// absent for channels with no highlight value defined.
	Default   float64
	Highlight *float64
}

// InitialAttribute returns the canonical attribute driven by this
// channel's initial logical-channel function.
func (c DmxChannel) InitialAttribute() (string, bool) {
	if len(c.Logical) == 0 {
		return "", false
	}
	return c.Logical[0].Attribute()
}

// HasAttribute reports whether any logical channel's any function targets
// attr.
func (c DmxChannel) HasAttribute(attr string) bool {
	for _, lc := range c.Logical {
		for _, fn := range lc.Functions {
			if fn.Attribute == attr {
				return true
			}
		}
	}
	return false
}

// DmxMode is one named channel layout a fixture type can be patched in.
type DmxMode struct {
	Name     string
	Channels []DmxChannel
}

// Description is a fully parsed GDTF fixture type: its DMX modes and,
// within each, its channel layout. Obtained from a Loader.
type Description struct {
	TypeID uuid.UUID
	Name   string
	Modes  []DmxMode
}

// Mode returns the named DMX mode, if present.
func (d *Description) Mode(name string) (*DmxMode, bool) {
	for i := range d.Modes {
		if d.Modes[i].Name == name {
			return &d.Modes[i], true
		}
	}
	return nil, false
}

// ModeNames returns every DMX mode name this fixture type offers, in
// declaration order.
func (d *Description) ModeNames() []string {
	names := make([]string, len(d.Modes))
	for i, m := range d.Modes {
		names[i] = m.Name
	}
	return names
}

// Loader resolves a fixture-type UUID to its parsed Description. A real
// implementation reads and decodes the GDTF XML blob; that decoding step
// is outside this engine's scope and is supplied by the host application.
type Loader interface {
	Load(ctx context.Context, typeID uuid.UUID) (*Description, error)
}

// CachingLoader wraps a Loader with a bounded LRU cache of parsed
// Descriptions, so repeated patch operations against the same fixture
// type don't re-invoke the underlying (potentially file-backed) loader.
type CachingLoader struct {
	underlying Loader
	cache      *lru.Cache[uuid.UUID, *Description]
}

// NewCachingLoader wraps underlying with an LRU cache holding up to size
// parsed descriptions.
func NewCachingLoader(underlying Loader, size int) (*CachingLoader, error) {
	cache, err := lru.New[uuid.UUID, *Description](size)
	if err != nil {
		return nil, fmt.Errorf("gdtf: new cache: %w", err)
	}
	return &CachingLoader{underlying: underlying, cache: cache}, nil
}

// Load returns the cached Description for typeID, loading and caching it
// on a miss.
func (c *CachingLoader) Load(ctx context.Context, typeID uuid.UUID) (*Description, error) {
	if desc, ok := c.cache.Get(typeID); ok {
		return desc, nil
	}
	desc, err := c.underlying.Load(ctx, typeID)
	if err != nil {
		return nil, err
	}
	c.cache.Add(typeID, desc)
	return desc, nil
}

// ParseFile is the hook the host application installs to decode a GDTF
// file into a Description. Decoding the GDTF XML is an external
// collaborator's job; until a parser is installed, DirectoryLoader can
// only confirm a blob exists.
var ParseFile func(path string) (*Description, error)

// DirectoryLoader resolves fixture types against a directory holding one
// GDTF file per fixture-type UUID, decoding through the installed
// ParseFile hook.
type DirectoryLoader struct {
	Dir string
}

// Load implements Loader.
func (d *DirectoryLoader) Load(_ context.Context, typeID uuid.UUID) (*Description, error) {
	path := filepath.Join(d.Dir, typeID.String())
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("type %s: %v: %w", typeID, err, ErrUnknownType)
	}
	if ParseFile == nil {
		return nil, fmt.Errorf("type %s: %w", typeID, ErrParseNotImplemented)
	}
	return ParseFile(path)
}

// StaticLoader serves Descriptions from an in-memory registry. It is the
// Loader used by tests and by any caller that parses GDTF files up front
// via an external process and hands the engine already-decoded
// descriptions.
type StaticLoader struct {
	descriptions map[uuid.UUID]*Description
}

// NewStaticLoader returns a StaticLoader with no registered descriptions.
func NewStaticLoader() *StaticLoader {
	return &StaticLoader{descriptions: make(map[uuid.UUID]*Description)}
}

// Register adds or replaces desc under its own TypeID.
func (s *StaticLoader) Register(desc *Description) {
	s.descriptions[desc.TypeID] = desc
}

// Load implements Loader.
func (s *StaticLoader) Load(_ context.Context, typeID uuid.UUID) (*Description, error) {
	desc, ok := s.descriptions[typeID]
	if !ok {
		return nil, fmt.Errorf("type %s: %w", typeID, ErrUnknownType)
	}
	return desc, nil
}
