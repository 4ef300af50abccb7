package changes

// ChangeSet is the ordered collection of changed paths, in the order they were recorded.
type ChangeSet struct {
	paths []string
	index map[string]struct{}
}

// NewChangeSet builds a ChangeSet from paths, dropping repeated entries.
func NewChangeSet(paths ...string) ChangeSet {
	changeSet := ChangeSet{}
	for _, path := range paths {
		changeSet.add(path)
	}
	return changeSet
}

// Paths returns a copy of the recorded paths.
func (changeSet ChangeSet) Paths() []string {
	return append([]string{}, changeSet.paths...)
}

// Len reports the number of recorded paths.
func (changeSet ChangeSet) Len() int {
	return len(changeSet.paths)
}

// Empty reports whether no path was recorded.
func (changeSet ChangeSet) Empty() bool {
	return len(changeSet.paths) == 0
}

// Contains reports whether path was recorded.
func (changeSet ChangeSet) Contains(path string) bool {
	_, recorded := changeSet.index[path]
	return recorded
}

func (changeSet *ChangeSet) add(path string) bool {
	if changeSet.index == nil {
		changeSet.index = make(map[string]struct{})
	}
	if _, recorded := changeSet.index[path]; recorded {
		return false
	}
	changeSet.index[path] = struct{}{}
	changeSet.paths = append(changeSet.paths, path)
	return true
}
