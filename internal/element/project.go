// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package element

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vk/anvil/internal/buildlog"
	"github.com/vk/anvil/internal/markup"
	"github.com/vk/anvil/internal/settings"
)

// Project is the context every element of one build shares.
type Project struct {
	Name       string
	BaseDir    string
	Properties *Properties
	References *References
	Locations  *markup.LocationMap
	Settings   *settings.Store
	// Framework names the current target framework, empty for none.
	Framework string
	Sink      buildlog.Sink
}

// NewProject creates a Project with empty registries.
func NewProject(name string, locs *markup.LocationMap, sink buildlog.Sink) *Project {
	if locs == nil {
		locs = markup.NewLocationMap()
	}
	if sink == nil {
		sink = buildlog.Discard
	}
	return &Project{
		Name:       name,
		Properties: NewProperties(),
		References: NewReferences(),
		Locations:  locs,
		Settings:   &settings.Store{},
		Sink:       sink,
	}
}

// CurrentFramework returns the selected framework, if one is set and known.
func (p *Project) CurrentFramework() (*settings.Framework, bool) {
	if p.Framework == "" {
		return nil, false
	}
	return p.Settings.Framework(p.Framework)
}

// Properties is the mutable name/value store of a build.
type Properties struct {
	mu       sync.RWMutex
	values   map[string]string
	readOnly map[string]bool
}

// NewProperties creates an empty property store.
func NewProperties() *Properties {
	return &Properties{values: map[string]string{}, readOnly: map[string]bool{}}
}

// Set assigns a property. Read-only properties cannot be changed.
func (p *Properties) Set(name, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.readOnly[name] {
		return fmt.Errorf("property '%s' is read-only", name)
	}
	p.values[name] = value
	return nil
}

// SetReadOnly assigns a property and locks it.
func (p *Properties) SetReadOnly(name, value string) error {
	if err := p.Set(name, value); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readOnly[name] = true
	return nil
}

// IsReadOnly reports whether name is locked.
func (p *Properties) IsReadOnly(name string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.readOnly[name]
}

// Get returns the value of a property.
func (p *Properties) Get(name string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.values[name]
	return v, ok
}

// Snapshot returns a copy of every property.
func (p *Properties) Snapshot() map[string]string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]string, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

// References maps IDs to shared DataType instances.
type References struct {
	mu    sync.RWMutex
	items map[string]DataType
}

// NewReferences creates an empty registry.
func NewReferences() *References {
	return &References{items: map[string]DataType{}}
}

// Register stores dt under id and reports whether an earlier instance was
// replaced.
func (r *References) Register(id string, dt DataType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, replaced := r.items[id]
	r.items[id] = dt
	return replaced
}

// Lookup returns the instance registered under id.
func (r *References) Lookup(id string) (DataType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dt, ok := r.items[id]
	return dt, ok
}

// IDs returns the registered IDs, sorted.
func (r *References) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.items))
	for id := range r.items {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
