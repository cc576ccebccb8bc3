// Package app contains the core application logic. It wires configuration,
// logging, the element registry and the build engine together, decoupled
// from any specific entrypoint like a CLI.
package app
