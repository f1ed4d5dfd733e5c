// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model provides the Go struct representation of chainrunner agent
// configuration. Its purpose is to turn the user's definitions, written in HCL
// or YAML, into one format-agnostic, strongly-typed in-memory model.
//
// # Core Concepts
//
//   - Config: The root container. It aggregates every agent parsed from one or
//     more configuration files.
//
//   - Agent: An independent worker. It carries an identity name, an opaque
//     mode string handed to every module it invokes, a polling interval and
//     a set of named chains.
//
//   - Chain: An ordered list of steps. Two chain names are reserved: "REG",
//     the one-time registration chain, and "CLIENT", the repeatable work chain.
//
//   - Step: A single module invocation with its function name, static
//     arguments and the ignore_output flag.
//
//   - FSInfo: Metadata that links every Agent back to its source file so that
//     validation errors can point at the right place.
//
// Arguments are evaluated while loading and stored as cty values. The model
// does not know which modules exist; resolving module names is the job of the
// registry, which compiles a model Agent into executable chains.
package model
