// Package cli builds the rstfmt-action command: it resolves configuration from embedded defaults,
// an optional configuration file, INPUT_-prefixed environment variables, and flags, then runs the
// formatting pipeline once and optionally writes a run report.
package cli
