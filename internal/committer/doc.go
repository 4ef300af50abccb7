// Package committer turns the staged changes of a run into at most one commit and one push.
//
// With committing disabled it issues no git command at all. Otherwise it sets
// the commit identity, inspects the working tree, commits the staged changes,
// and pushes to the upstream the checkout already tracks. A failed push leaves
// the local commit in place.
package committer
