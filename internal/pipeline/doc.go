// Package pipeline coordinates a single formatting run: formatter provisioning, file discovery,
// per-file formatting with change tracking, and the final commit and push.
package pipeline
