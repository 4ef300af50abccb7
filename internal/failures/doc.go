// Package failures defines the phase-tagged errors that terminate a formatting run.
//
// Each error names the phase that aborted, the affected path where one exists,
// and wraps the underlying cause so callers can inspect it with errors.Is and
// errors.As.
package failures
