// Package pathutils resolves user-supplied paths from flags, environment, and configuration files.
package pathutils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	tildeSymbolConstant               = "~"
	absolutePathErrorTemplateConstant = "unable to resolve %s: %w"
	currentDirectoryConstant          = "."
)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// Resolver expands a leading tilde and anchors relative paths.
type Resolver struct {
	homeDirectoryProvider HomeDirectoryProvider
	homeDirectory         string
	homeDirectoryError    error
	initializationGuard   sync.Once
}

// NewResolver constructs a Resolver using the operating system home directory lookup.
func NewResolver() *Resolver {
	return NewResolverWithHomeProvider(os.UserHomeDir)
}

// NewResolverWithHomeProvider constructs a Resolver with a custom home directory provider.
func NewResolverWithHomeProvider(provider HomeDirectoryProvider) *Resolver {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &Resolver{homeDirectoryProvider: provider}
}

// Expand replaces "~" and a leading "~/" with the home directory. Other paths, and every path when
// the home directory is unknown, are returned trimmed but otherwise unchanged.
func (resolver *Resolver) Expand(candidatePath string) string {
	trimmedPath := strings.TrimSpace(candidatePath)
	if !strings.HasPrefix(trimmedPath, tildeSymbolConstant) {
		return trimmedPath
	}

	homeDirectory := resolver.resolveHomeDirectory()
	if len(homeDirectory) == 0 {
		return trimmedPath
	}

	remainder := strings.TrimPrefix(trimmedPath, tildeSymbolConstant)
	if len(remainder) == 0 {
		return homeDirectory
	}
	if remainder[0] != '/' && remainder[0] != os.PathSeparator {
		return trimmedPath
	}
	return filepath.Join(homeDirectory, remainder[1:])
}

// Absolute expands candidatePath and converts it to a clean absolute path. An empty path means the current directory.
func (resolver *Resolver) Absolute(candidatePath string) (string, error) {
	expandedPath := resolver.Expand(candidatePath)
	if len(expandedPath) == 0 {
		expandedPath = currentDirectoryConstant
	}
	absolutePath, absoluteError := filepath.Abs(expandedPath)
	if absoluteError != nil {
		return "", fmt.Errorf(absolutePathErrorTemplateConstant, candidatePath, absoluteError)
	}
	return absolutePath, nil
}

// RelativeTo expands candidatePath and joins it to baseDirectory unless it is already absolute.
func (resolver *Resolver) RelativeTo(baseDirectory string, candidatePath string) string {
	expandedPath := resolver.Expand(candidatePath)
	if len(expandedPath) == 0 || filepath.IsAbs(expandedPath) {
		return expandedPath
	}
	return filepath.Join(baseDirectory, expandedPath)
}

func (resolver *Resolver) resolveHomeDirectory() string {
	resolver.initializationGuard.Do(func() {
		resolver.homeDirectory, resolver.homeDirectoryError = resolver.homeDirectoryProvider()
	})
	if resolver.homeDirectoryError != nil {
		return ""
	}
	return resolver.homeDirectory
}
