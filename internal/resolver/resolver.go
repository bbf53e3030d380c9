// Package resolver orchestrates the per-frame flattening of show state
// into a multiverse: executor state machines advance, active cues bind
// presets to fixture groups through the pipeline, the programmer overlay
// merges on top, and the pipeline resolves to DMX bytes.
package resolver

import (
	"log"
	"time"

	"github.com/lumenstage/lumen/internal/dmx"
	"github.com/lumenstage/lumen/internal/patch"
	"github.com/lumenstage/lumen/internal/pipeline"
	"github.com/lumenstage/lumen/internal/show"
)

// Tick runs one frame of resolution against s at now and returns the
// resolved multiverse. Warnings (dangling recipe references, unsupported
// executor modes) are logged and never stall the frame.
func Tick(s *show.Show, now time.Time) *dmx.Multiverse {
	manageExecutorStates(s, now)

	output := pipeline.New()
	resolveExecutors(output, s)
	resolveProgrammer(output, s)
	output.Resolve(s.Patch)

	return output.ResolvedMultiverse()
}

func manageExecutorStates(s *show.Show, now time.Time) {
	for _, id := range s.Executors.IDs() {
		ex, err := s.Executors.Get(id)
		if err != nil {
			continue
		}
		if err := ex.ManageState(s, now); err != nil {
			log.Printf("resolver: executor %s: %v", id, err)
		}
	}
	for _, id := range s.Sequences.IDs() {
		seq, err := s.Sequences.Get(id)
		if err != nil {
			continue
		}
		seq.UpdateFadeTimers(s.Cues, now)
	}
}

func resolveExecutors(output *pipeline.Pipeline, s *show.Show) {
	for _, id := range s.Executors.IDs() {
		ex, err := s.Executors.Get(id)
		if err != nil {
			continue
		}
		_, cue, ok := ex.ActiveCue(s)
		if !ok {
			continue
		}
		resolveCue(output, cue, ex.MasterLevel, s)
	}
}

func resolveCue(output *pipeline.Pipeline, cue *show.Cue, level float64, s *show.Show) {
	for _, recipe := range cue.Recipes {
		resolveRecipe(output, recipe, level, s)
	}
}

func resolveRecipe(output *pipeline.Pipeline, recipe show.Recipe, level float64, s *show.Show) {
	group, err := s.Groups.Get(recipe.FixtureGroup)
	if err != nil {
		log.Printf("resolver: fixture group %s not found in recipe", recipe.FixtureGroup)
		return
	}
	preset, err := s.Presets.Get(recipe.Preset)
	if err != nil {
		log.Printf("resolver: preset %s not found in recipe", recipe.Preset)
		return
	}

	for _, a := range preset.ApplicableValues(group, s.Patch) {
		old, _ := output.GetAttributeValue(a.Fixture, a.Attribute)
		merged := patch.Lerp(old, a.Value, level)
		output.SetAttributeValue(a.Fixture, a.Attribute, merged)
	}
}

func resolveProgrammer(output *pipeline.Pipeline, s *show.Show) {
	s.Programmer.Pipeline().Resolve(s.Patch)
	s.Programmer.Pipeline().MergeInto(output)
}
