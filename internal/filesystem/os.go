// Package filesystem exposes the file operations the formatting pipeline performs on the working tree.
package filesystem

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

const (
	replaceResolveErrorTemplateConstant = "unable to resolve %s: %w"
	replaceWriteErrorTemplateConstant   = "unable to replace %s: %w"
)

// OSFileSystem implements file access using the operating system primitives.
type OSFileSystem struct{}

// Stat retrieves file metadata.
func (OSFileSystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// ReadFile reads file contents.
func (OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// ReplaceFile atomically swaps the contents of an existing file, keeping its permissions.
//
// The data is written to a temporary file in the target's directory and renamed
// over the target, so readers observe either the old or the new content. A
// symbolic link is followed and its target replaced.
func (OSFileSystem) ReplaceFile(path string, data []byte) error {
	resolvedPath, resolveError := filepath.EvalSymlinks(path)
	if resolveError != nil {
		return fmt.Errorf(replaceResolveErrorTemplateConstant, path, resolveError)
	}

	fileInfo, statError := os.Stat(resolvedPath)
	if statError != nil {
		return fmt.Errorf(replaceResolveErrorTemplateConstant, path, statError)
	}

	if writeError := renameio.WriteFile(resolvedPath, data, fileInfo.Mode().Perm()); writeError != nil {
		return fmt.Errorf(replaceWriteErrorTemplateConstant, path, writeError)
	}
	return nil
}
