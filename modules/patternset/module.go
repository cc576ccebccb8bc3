// Package patternset provides the <patternset> datatype: named include and
// exclude wildcard patterns that can be declared once and referenced.
package patternset

import (
	"sync"

	"github.com/tidwall/match"
	"github.com/vk/anvil/internal/element"
	"github.com/vk/anvil/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Pattern is one <include> or <exclude> entry.
type Pattern struct {
	element.Base
	Pattern string `anvil:"pattern,attr,required" validate:"string(nonempty)"`
	If      bool   `anvil:"if,attr"`
	Unless  bool   `anvil:"unless,attr"`
}

// SetDefaults implements element.Defaulter.
func (p *Pattern) SetDefaults() { p.If = true }

// Enabled reports whether the pattern's conditions hold.
func (p *Pattern) Enabled() bool { return p.If && !p.Unless }

// PatternSet is the <patternset> datatype. A name matches when it matches
// at least one include and no exclude. An empty include list includes
// everything.
type PatternSet struct {
	element.DataTypeBase
	Include  []*Pattern `anvil:"include,elements"`
	Exclude  []*Pattern `anvil:"exclude,elements"`
	Includes []*Pattern `anvil:"includes,collection,item=include"`
	Excludes []*Pattern `anvil:"excludes,collection,item=exclude"`

	mu    sync.Mutex
	cache map[string]bool
}

// Reset drops cached match results.
func (ps *PatternSet) Reset() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.cache = nil
}

// IncludePatterns returns the enabled include patterns.
func (ps *PatternSet) IncludePatterns() []string {
	return enabled(ps.Include, ps.Includes)
}

// ExcludePatterns returns the enabled exclude patterns.
func (ps *PatternSet) ExcludePatterns() []string {
	return enabled(ps.Exclude, ps.Excludes)
}

// Match reports whether name is selected by the set.
func (ps *PatternSet) Match(name string) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if hit, ok := ps.cache[name]; ok {
		return hit
	}
	if ps.cache == nil {
		ps.cache = map[string]bool{}
	}
	hit := ps.match(name)
	ps.cache[name] = hit
	return hit
}

// Cached returns the number of memoized results.
func (ps *PatternSet) Cached() int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return len(ps.cache)
}

func (ps *PatternSet) match(name string) bool {
	for _, p := range ps.ExcludePatterns() {
		if match.Match(name, p) {
			return false
		}
	}
	includes := ps.IncludePatterns()
	if len(includes) == 0 {
		return true
	}
	for _, p := range includes {
		if match.Match(name, p) {
			return true
		}
	}
	return false
}

func enabled(lists ...[]*Pattern) []string {
	var out []string
	for _, l := range lists {
		for _, p := range l {
			if p.Enabled() {
				out = append(out, p.Pattern)
			}
		}
	}
	return out
}

// Register registers the datatype with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterDataType("patternset", func() element.Element { return new(PatternSet) })
}
