// Package report records what a run did as a YAML document for later inspection by CI tooling.
package report
