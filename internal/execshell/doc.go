// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with logging via ShellExecutor, exposes OSCommandRunner for
// default process execution, and defines the command, result, and error types
// used throughout rstfmt-action to run git and the formatter in a testable
// manner. Every call site states its own failure tolerance through
// CommandDetails.IgnoreFailure and its logging verbosity through
// CommandDetails.Silent.
package execshell
