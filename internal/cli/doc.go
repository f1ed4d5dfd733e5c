// Package cli turns command-line arguments and CHAINRUNNER_* environment
// variables into a validated app.Config. Usage problems are reported as an
// ExitError carrying exit code 2.
package cli
