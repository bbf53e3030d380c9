package show

import "github.com/lumenstage/lumen/internal/patch"

// FixtureGroup is an ordered list of fixtures for targeting by recipes.
// Duplicate entries are permitted; their order is observable by effects
// outside this core but is not otherwise significant here.
type FixtureGroup struct {
	Fixtures []patch.FixtureID
}

// NewFixtureGroup returns a FixtureGroup over the given fixtures, in the
// order given.
func NewFixtureGroup(fixtures ...patch.FixtureID) *FixtureGroup {
	return &FixtureGroup{Fixtures: fixtures}
}

// Contains reports whether fid appears anywhere in the group.
func (g *FixtureGroup) Contains(fid patch.FixtureID) bool {
	for _, f := range g.Fixtures {
		if f == fid {
			return true
		}
	}
	return false
}

// Add appends fid to the group.
func (g *FixtureGroup) Add(fid patch.FixtureID) {
	g.Fixtures = append(g.Fixtures, fid)
}

// ReplaceAt overwrites the fixture at index and reports whether it did;
// an out-of-range index leaves the group unchanged and returns false.
func (g *FixtureGroup) ReplaceAt(index int, fid patch.FixtureID) bool {
	if index < 0 || index >= len(g.Fixtures) {
		return false
	}
	g.Fixtures[index] = fid
	return true
}

// Remove deletes the first occurrence of fid, if any.
func (g *FixtureGroup) Remove(fid patch.FixtureID) bool {
	for i, f := range g.Fixtures {
		if f == fid {
			g.Fixtures = append(g.Fixtures[:i], g.Fixtures[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveAt deletes the fixture at index, if in range.
func (g *FixtureGroup) RemoveAt(index int) bool {
	if index < 0 || index >= len(g.Fixtures) {
		return false
	}
	g.Fixtures = append(g.Fixtures[:index], g.Fixtures[index+1:]...)
	return true
}

// Clear empties the group.
func (g *FixtureGroup) Clear() {
	g.Fixtures = nil
}
