// Package config defines the format-agnostic build configuration model,
// along with the core interfaces (Loader, Converter) for loading it and for
// binding option values to Go types.
//
// The `config.Model` is the single source of truth for the rule resolver, the
// registry and the orchestrator. Concrete implementations of the interfaces,
// for HCL and YAML, are provided in separate packages.
package config
