// Package engineerr collects the sentinel errors that make up this
// engine's error taxonomy, shared across the patch, show, command, sacn,
// and showfile packages so callers can test failure kinds with errors.Is
// regardless of which package raised them.
package engineerr

import "errors"

// Structural errors are bug-shaped: a caller asked for something that
// cannot exist given the current show state. They are surfaced to the
// command submitter and never abort the engine.
var (
	ErrUnknownID                = errors.New("unknown id")
	ErrWrongKind                = errors.New("wrong object kind")
	ErrDuplicateID              = errors.New("duplicate id")
	ErrOutOfRange               = errors.New("value out of range")
	ErrAttributeNotSupported    = errors.New("attribute not supported")
	ErrIncompatibleFeatureGroup = errors.New("incompatible feature group")
	ErrUnknownFixtureType       = errors.New("unknown fixture type")
	ErrUnsupportedMode          = errors.New("unsupported mode")
)

// Resource errors are I/O failures. They are fatal only at startup; at
// runtime they are logged and the affected subsystem degrades.
var (
	ErrSocketBind   = errors.New("socket bind failed")
	ErrMidiConnect  = errors.New("midi connect failed")
	ErrShowfileRead = errors.New("showfile read failed")
	ErrGdtfParse    = errors.New("gdtf parse failed")
)
