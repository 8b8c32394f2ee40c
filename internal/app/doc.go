// Package app contains the core application logic. It wires the configuration
// loader, the module registry, the hook registry and the orchestrator into an
// App and runs one build phase, decoupled from any specific entrypoint like a
// CLI.
package app
