// Package registry provides the central "glue" for the module system.
//
// The Registry stores the mapping between the module names used in agent
// configuration (e.g., "http_request") and the compiled Go factories that
// construct them. Built-in and third-party modules add themselves through the
// Module interface during application startup.
//
// Before any agent runs, the registry validates the loaded configuration and
// compiles each agent's chains into executable chain.Chain values. An unknown
// module name is therefore a startup error, never a runtime surprise.
package registry
