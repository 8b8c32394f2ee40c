// Package registry provides the central "glue" for compiled-in modules.
//
// The Registry stores the mappings between the names used in build
// configuration (a rule's `use "json"`, a `plugin "copy"` block) and the Go
// stages and plugin factories that implement them. During startup the
// registry is populated by modules and then validated against the loaded
// configuration, so an unknown name fails the build before any resource is
// read.
package registry
