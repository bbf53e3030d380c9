package show

import (
	"github.com/lumenstage/lumen/internal/patch"
)

// Show is the whole show state the engine renders from: the patch, every
// stored object pool, and the live programmer. The engine owns it
// exclusively; all mutation goes through the command executor.
type Show struct {
	Patch *patch.Patch

	Groups    *Store[FixtureGroup]
	Presets   *Store[Preset]
	Cues      *Store[Cue]
	Sequences *Store[Sequence]
	Executors *Store[Executor]

	Programmer *Programmer
}

// New returns an empty Show.
func New() *Show {
	return &Show{
		Patch:      patch.New(),
		Groups:     NewStore[FixtureGroup](KindFixtureGroup),
		Presets:    NewStore[Preset](KindPreset),
		Cues:       NewStore[Cue](KindCue),
		Sequences:  NewStore[Sequence](KindSequence),
		Executors:  NewStore[Executor](KindExecutor),
		Programmer: NewProgrammer(),
	}
}
