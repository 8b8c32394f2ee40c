// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Resource structure, the unit of input of a build.
//
// Why derive the directory eagerly?
//
// Stages receive the containing directory through their loader context (the
// include stage resolves sibling files against it). Computing it once when the
// resource is created keeps every stage invocation consistent and lets the
// Resource stay a plain immutable value.
package model

import (
	"path/filepath"
)

// Resource is a source file identified by an absolute path.
type Resource struct {
	path    string
	dir     string
	content []byte
}

// NewResource creates a Resource. The path is cleaned; the content slice is
// copied so later mutation by the caller is not observed.
func NewResource(path string, content []byte) *Resource {
	clean := filepath.Clean(path)
	buf := make([]byte, len(content))
	copy(buf, content)
	return &Resource{
		path:    clean,
		dir:     filepath.Dir(clean),
		content: buf,
	}
}

// Path returns the resource's absolute path.
func (r *Resource) Path() string { return r.path }

// Dir returns the directory containing the resource.
func (r *Resource) Dir() string { return r.dir }

// Content returns a copy of the raw content.
func (r *Resource) Content() []byte {
	buf := make([]byte, len(r.content))
	copy(buf, r.content)
	return buf
}

// Size returns the length of the raw content in bytes.
func (r *Resource) Size() int { return len(r.content) }
