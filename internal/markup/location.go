package markup

import (
	"fmt"
	"sync"

	"github.com/hashicorp/hcl/v2"
)

// Location is a position inside a build file.
type Location struct {
	File   string
	Line   int
	Column int
}

// Unknown is the zero Location, used when a node has no recorded position.
var Unknown = Location{}

// LocationFromRange converts the start of an hcl.Range into a Location.
func LocationFromRange(r hcl.Range) Location {
	return Location{File: r.Filename, Line: r.Start.Line, Column: r.Start.Column}
}

// IsKnown reports whether the location points into a file.
func (l Location) IsKnown() bool {
	return l.File != "" || l.Line != 0
}

// String renders the location the way build output shows it: file(line,col).
func (l Location) String() string {
	if !l.IsKnown() {
		return ""
	}
	return fmt.Sprintf("%s(%d,%d)", l.File, l.Line, l.Column)
}

// Range returns a zero-width hcl.Range at the location, for diagnostics.
func (l Location) Range() hcl.Range {
	p := hcl.Pos{Line: l.Line, Column: l.Column}
	return hcl.Range{Filename: l.File, Start: p, End: p}
}

// LocationMap maps nodes to the place they were read from. It is populated
// by the Loader and only read afterwards, but is safe for concurrent use.
type LocationMap struct {
	mu   sync.RWMutex
	locs map[*Node]Location
}

// NewLocationMap creates an empty LocationMap.
func NewLocationMap() *LocationMap {
	return &LocationMap{locs: make(map[*Node]Location)}
}

// Add records the location of a node.
func (m *LocationMap) Add(n *Node, loc Location) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locs[n] = loc
}

// Lookup returns the recorded location of a node. Nodes that were not
// produced by the loader owning this map return an error.
func (m *LocationMap) Lookup(n *Node) (Location, error) {
	if m == nil || n == nil {
		return Unknown, fmt.Errorf("no location recorded for node")
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	loc, ok := m.locs[n]
	if !ok {
		return Unknown, fmt.Errorf("no location recorded for <%s>", n.Name)
	}
	return loc, nil
}

// Len returns the number of recorded nodes.
func (m *LocationMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.locs)
}
