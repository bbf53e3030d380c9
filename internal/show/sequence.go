package show

import (
	"time"

	"github.com/google/uuid"
)

// Sequence is an ordered list of cues plus the runtime fade-timer state
// for cues currently fading in or out. The sequence owns the timers; the
// executor engine records them on cue transitions and the resolver prunes
// expired ones each frame.
type Sequence struct {
	Cues []ObjectID

	fadeInStarts  map[uuid.UUID]time.Time
	fadeOutStarts map[uuid.UUID]time.Time
}

// NewSequence returns a Sequence over the given cues, in order.
func NewSequence(cues ...ObjectID) *Sequence {
	return &Sequence{
		Cues:          cues,
		fadeInStarts:  make(map[uuid.UUID]time.Time),
		fadeOutStarts: make(map[uuid.UUID]time.Time),
	}
}

// Len returns the number of cues in the sequence.
func (s *Sequence) Len() int { return len(s.Cues) }

// CueAt returns the cue id at index, if in range.
func (s *Sequence) CueAt(index int) (ObjectID, bool) {
	if index < 0 || index >= len(s.Cues) {
		return ObjectID{}, false
	}
	return s.Cues[index], true
}

// FirstCue returns the first cue id, if any.
func (s *Sequence) FirstCue() (ObjectID, bool) { return s.CueAt(0) }

// LastCue returns the last cue id, if any.
func (s *Sequence) LastCue() (ObjectID, bool) { return s.CueAt(len(s.Cues) - 1) }

// CueBefore returns the cue id preceding id in sequence order.
func (s *Sequence) CueBefore(id ObjectID) (ObjectID, bool) {
	for i, cid := range s.Cues {
		if cid == id {
			return s.CueAt(i - 1)
		}
	}
	return ObjectID{}, false
}

// CueAfter returns the cue id following id in sequence order.
func (s *Sequence) CueAfter(id ObjectID) (ObjectID, bool) {
	for i, cid := range s.Cues {
		if cid == id {
			return s.CueAt(i + 1)
		}
	}
	return ObjectID{}, false
}

// Add appends a cue id.
func (s *Sequence) Add(id ObjectID) {
	s.Cues = append(s.Cues, id)
}

// ReplaceAt overwrites the cue id at index, reporting whether index was in
// range.
func (s *Sequence) ReplaceAt(index int, id ObjectID) bool {
	if index < 0 || index >= len(s.Cues) {
		return false
	}
	s.Cues[index] = id
	return true
}

// Remove deletes the first occurrence of id, if any.
func (s *Sequence) Remove(id ObjectID) bool {
	for i, cid := range s.Cues {
		if cid == id {
			s.Cues = append(s.Cues[:i], s.Cues[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveAt deletes the cue id at index, if in range.
func (s *Sequence) RemoveAt(index int) bool {
	if index < 0 || index >= len(s.Cues) {
		return false
	}
	s.Cues = append(s.Cues[:index], s.Cues[index+1:]...)
	return true
}

// Clear empties the cue list.
func (s *Sequence) Clear() {
	s.Cues = nil
}

func (s *Sequence) timers() {
	if s.fadeInStarts == nil {
		s.fadeInStarts = make(map[uuid.UUID]time.Time)
	}
	if s.fadeOutStarts == nil {
		s.fadeOutStarts = make(map[uuid.UUID]time.Time)
	}
}

// StartFadeIn records the fade-in start timestamp for id. Cues with a zero
// fade-in never get a timer.
func (s *Sequence) StartFadeIn(id ObjectID, cue *Cue, now time.Time) {
	s.timers()
	if cue.FadeIn > 0 {
		s.fadeInStarts[id.UUID] = now
	}
}

// StartFadeOut records the fade-out start timestamp for id. Cues with a
// zero fade-out never get a timer.
func (s *Sequence) StartFadeOut(id ObjectID, cue *Cue, now time.Time) {
	s.timers()
	if cue.FadeOut > 0 {
		s.fadeOutStarts[id.UUID] = now
	}
}

// HasFadingCue reports whether any cue in this sequence has a live fade
// timer.
func (s *Sequence) HasFadingCue() bool {
	return len(s.fadeInStarts) > 0 || len(s.fadeOutStarts) > 0
}

// CueFadeProgress returns the fade progress for id at now: ramping 0→1
// while the cue fades in, 1→0 while it fades out, and reporting false once
// no timer is live for it.
func (s *Sequence) CueFadeProgress(id ObjectID, cue *Cue, now time.Time) (float64, bool) {
	if start, ok := s.fadeInStarts[id.UUID]; ok && cue.FadeIn > 0 {
		progress := now.Sub(start).Seconds() / cue.FadeIn.Seconds()
		if progress > 1 {
			progress = 1
		}
		return progress, true
	}
	if start, ok := s.fadeOutStarts[id.UUID]; ok && cue.FadeOut > 0 {
		progress := now.Sub(start).Seconds() / cue.FadeOut.Seconds()
		if progress > 1 {
			progress = 1
		}
		return 1 - progress, true
	}
	return 0, false
}

// UpdateFadeTimers prunes every fade timer whose elapsed time exceeds its
// cue's fade duration, along with timers for cues that no longer exist.
// Called once per frame by the resolver.
func (s *Sequence) UpdateFadeTimers(cues *Store[Cue], now time.Time) {
	for id, start := range s.fadeInStarts {
		cue, err := cues.Get(ObjectID{Kind: KindCue, UUID: id})
		if err != nil || now.Sub(start) > cue.FadeIn {
			delete(s.fadeInStarts, id)
		}
	}
	for id, start := range s.fadeOutStarts {
		cue, err := cues.Get(ObjectID{Kind: KindCue, UUID: id})
		if err != nil || now.Sub(start) > cue.FadeOut {
			delete(s.fadeOutStarts, id)
		}
	}
}
