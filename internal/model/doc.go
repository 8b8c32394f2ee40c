// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model holds the in-memory records a build phase works on.
//
// # Core Concepts
//
//   - Resource: a source file identified by its absolute path, with its raw
//     content and containing directory. It never changes once read.
//
//   - Module: the record of one resource after its loader chain ran. It keeps
//     the final value, the cacheable flag reported by the chain and the
//     failure, if any.
//
//   - Compilation: the mutable aggregate of one build phase. It collects the
//     modules and the assets that will be written to the output location, and
//     it is the payload every hook callback receives.
//
// Plugins read what was built from the Compilation and may add files of their
// own; the copy plugin adds assets during "emit". Concurrent chain executions
// write to distinct keys and the Compilation serializes those writes.
package model
