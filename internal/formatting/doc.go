// Package formatting runs the external formatter over each selected file and detects which files it rewrote.
//
// Files are processed one at a time in selection order. The formatter's output
// only replaces a file after the formatter exits successfully, so a failing
// formatter never leaves a truncated file behind.
package formatting
