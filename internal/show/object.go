// Package show holds the pure-data show model: patched fixture groups,
// presets, cues, sequences, executors, and the live programmer overlay,
// along with the lookup methods the command executor and resolver need.
// Objects are mutated only through the command executor (see the
// command package); this package itself performs no I/O and owns no
// goroutines.
package show

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/lumenstage/lumen/internal/engineerr"
)

// ObjectKind tags an ObjectID with the kind of object it refers to, so a
// uuid collision across kinds can never be mistaken for the same object.
type ObjectKind string

const (
	KindFixtureGroup ObjectKind = "fixture_group"
	KindPreset       ObjectKind = "preset"
	KindCue          ObjectKind = "cue"
	KindSequence     ObjectKind = "sequence"
	KindExecutor     ObjectKind = "executor"
)

// ObjectID is a kind-tagged unique identifier, stable for an object's
// lifetime.
type ObjectID struct {
	Kind ObjectKind
	UUID uuid.UUID
}

// NewObjectID returns a fresh random ObjectID of the given kind.
func NewObjectID(kind ObjectKind) ObjectID {
	return ObjectID{Kind: kind, UUID: uuid.New()}
}

// String renders the id as "kind/uuid", useful for logging and error
// messages.
func (id ObjectID) String() string {
	return fmt.Sprintf("%s/%s", id.Kind, id.UUID)
}

// PoolID is a small, user-facing slot number referencing an object of a
// given kind, e.g. for surface/shortcut binding. Zero is not a valid pool
// id.
type PoolID uint32

// checkKind returns ErrWrongKind if id is not of the expected kind.
func checkKind(id ObjectID, want ObjectKind) error {
	if id.Kind != want {
		return fmt.Errorf("object %s: want kind %s: %w", id, want, engineerr.ErrWrongKind)
	}
	return nil
}
