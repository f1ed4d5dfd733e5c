// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the primary execution lifecycle, decoupled
// from any specific entrypoint like a CLI or server.
//
// An App loads agent definitions, registers the compiled-in modules, compiles
// every agent's chains and then runs all agents under a supervisor until each
// has published its outcome or the run context is cancelled.
package app
