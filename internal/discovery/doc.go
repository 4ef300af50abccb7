// Package discovery expands glob patterns into the ordered list of files a run formats.
package discovery
