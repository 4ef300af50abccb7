package discovery

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	patternRequiredMessageConstant      = "file pattern must be provided"
	invalidPatternErrorTemplateConstant = "invalid file pattern %q: %w"
	globExpansionErrorTemplateConstant  = "unable to expand file pattern %q: %w"
	currentDirectoryPrefixConstant      = "./"
	currentDirectoryConstant            = "."
)

// ErrPatternRequired indicates an empty pattern was supplied.
var ErrPatternRequired = errors.New(patternRequiredMessageConstant)

// GlobFileFinder expands doublestar glob patterns relative to a root directory.
//
// Relative patterns yield slash-separated paths relative to the root; absolute
// patterns yield absolute paths. Only regular files are returned, sorted
// lexicographically and without duplicates.
type GlobFileFinder struct {
	rootDirectory string
}

// NewGlobFileFinder constructs a finder rooted at rootDirectory, defaulting to the current directory.
func NewGlobFileFinder(rootDirectory string) *GlobFileFinder {
	trimmedRootDirectory := strings.TrimSpace(rootDirectory)
	if len(trimmedRootDirectory) == 0 {
		trimmedRootDirectory = currentDirectoryConstant
	}
	return &GlobFileFinder{rootDirectory: trimmedRootDirectory}
}

// Find returns the files matching pattern.
func (finder *GlobFileFinder) Find(pattern string) ([]string, error) {
	trimmedPattern := strings.TrimSpace(pattern)
	if len(trimmedPattern) == 0 {
		return nil, ErrPatternRequired
	}

	searchRoot, relativePattern, absolute := finder.splitPattern(trimmedPattern)
	if !doublestar.ValidatePattern(relativePattern) {
		return nil, fmt.Errorf(invalidPatternErrorTemplateConstant, trimmedPattern, doublestar.ErrBadPattern)
	}

	matches, globError := doublestar.Glob(os.DirFS(searchRoot), relativePattern, doublestar.WithFilesOnly())
	if globError != nil {
		return nil, fmt.Errorf(globExpansionErrorTemplateConstant, trimmedPattern, globError)
	}

	seen := make(map[string]struct{}, len(matches))
	files := make([]string, 0, len(matches))
	for _, match := range matches {
		if absolute {
			match = path.Join(filepath.ToSlash(searchRoot), match)
		}
		if _, duplicate := seen[match]; duplicate {
			continue
		}
		seen[match] = struct{}{}
		files = append(files, match)
	}

	sort.Strings(files)
	return files, nil
}

func (finder *GlobFileFinder) splitPattern(pattern string) (string, string, bool) {
	slashPattern := filepath.ToSlash(pattern)
	if filepath.IsAbs(pattern) {
		base, relativePattern := doublestar.SplitPattern(slashPattern)
		return filepath.FromSlash(base), relativePattern, true
	}
	for strings.HasPrefix(slashPattern, currentDirectoryPrefixConstant) {
		slashPattern = strings.TrimPrefix(slashPattern, currentDirectoryPrefixConstant)
	}
	return finder.rootDirectory, slashPattern, false
}
