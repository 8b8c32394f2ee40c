// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Compilation, the per-phase aggregate shared by the
// orchestrator, concurrent chain executions and plugin callbacks.
//
// Why a mutex and not sync.Map?
//
// Writes are partitioned per resource key, but readers (plugins, the status
// endpoint, the report) want consistent sorted snapshots of everything. A
// single RWMutex guarding two maps keeps snapshots coherent while the write
// volume (one write per resource) stays tiny.
package model

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Module is the record of one resource after its chain executed. Resource
// is nil when the resource could not be read.
type Module struct {
	Path      string
	Resource  *Resource
	Value     any
	Cacheable bool
	Err       error
	Duration  time.Duration
}

// Failed reports whether the module's chain failed.
func (m *Module) Failed() bool { return m.Err != nil }

// Compilation is the mutable aggregate of one build phase.
type Compilation struct {
	ID        string
	StartedAt time.Time

	mu      sync.RWMutex
	modules map[string]*Module
	assets  map[string][]byte
}

// NewCompilation creates an empty Compilation with a fresh id.
func NewCompilation() *Compilation {
	return &Compilation{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		modules:   make(map[string]*Module),
		assets:    make(map[string][]byte),
	}
}

// SetModule stores the record for a resource. A later call for the same
// path replaces the earlier record.
func (c *Compilation) SetModule(path string, m *Module) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modules[path] = m
}

// Module returns the record stored for path.
func (c *Compilation) Module(path string) (*Module, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.modules[path]
	return m, ok
}

// Modules returns all records sorted by resource path.
func (c *Compilation) Modules() []*Module {
	c.mu.RLock()
	defer c.mu.RUnlock()
	paths := make([]string, 0, len(c.modules))
	for p := range c.modules {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	out := make([]*Module, 0, len(paths))
	for _, p := range paths {
		out = append(out, c.modules[p])
	}
	return out
}

// Failures returns the records whose chain failed, sorted by path.
func (c *Compilation) Failures() []*Module {
	var failed []*Module
	for _, m := range c.Modules() {
		if m.Failed() {
			failed = append(failed, m)
		}
	}
	return failed
}

// SetAsset stores an output file under its name relative to the output
// location. The content is copied.
func (c *Compilation) SetAsset(name string, content []byte) {
	buf := make([]byte, len(content))
	copy(buf, content)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.assets[name] = buf
}

// Asset returns the content stored under name.
func (c *Compilation) Asset(name string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.assets[name]
	return a, ok
}

// AssetNames returns the names of all assets, sorted.
func (c *Compilation) AssetNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.assets))
	for n := range c.assets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Stats is a point-in-time summary of a Compilation.
type Stats struct {
	ID        string `json:"id"`
	Modules   int    `json:"modules"`
	Failed    int    `json:"failed"`
	Cacheable int    `json:"cacheable"`
	Assets    int    `json:"assets"`
}

// Stats summarizes the Compilation.
func (c *Compilation) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := Stats{ID: c.ID, Modules: len(c.modules), Assets: len(c.assets)}
	for _, m := range c.modules {
		if m.Failed() {
			s.Failed++
		}
		if m.Cacheable {
			s.Cacheable++
		}
	}
	return s
}
