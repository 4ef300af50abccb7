package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"

	"github.com/temirov/rstfmt-action/internal/failures"
	"github.com/temirov/rstfmt-action/internal/pipeline"
)

const (
	reportPathRequiredMessageConstant    = "report path must be provided"
	reportEncodeErrorTemplateConstant    = "unable to encode run report: %w"
	reportDirectoryErrorTemplateConstant = "unable to create report directory %s: %w"
	reportWriteErrorTemplateConstant     = "unable to write run report %s: %w"
	reportDirectoryPermissionsConstant   = os.FileMode(0o755)
	reportFilePermissionsConstant        = os.FileMode(0o644)
)

// ErrReportPathRequired indicates Write was called without a destination.
var ErrReportPathRequired = errors.New(reportPathRequiredMessageConstant)

// FailureEntry describes why a run failed.
type FailureEntry struct {
	Phase   string `yaml:"phase,omitempty"`
	Message string `yaml:"message"`
}

// Document is the serialized run report.
type Document struct {
	RunID            string         `yaml:"run_id"`
	StartedAt        time.Time      `yaml:"started_at"`
	FinishedAt       time.Time      `yaml:"finished_at"`
	Pattern          string         `yaml:"pattern"`
	WorkingDirectory string         `yaml:"working_directory"`
	CommitEnabled    bool           `yaml:"commit_enabled"`
	State            string         `yaml:"state"`
	Outcome          string         `yaml:"outcome,omitempty"`
	SelectedFiles    []string       `yaml:"selected_files"`
	ChangedFiles     []string       `yaml:"changed_files"`
	Commands         []CommandEntry `yaml:"commands,omitempty"`
	Failure          *FailureEntry  `yaml:"failure,omitempty"`
}

// Run carries everything known about a finished run.
type Run struct {
	RunID         string
	StartedAt     time.Time
	FinishedAt    time.Time
	Configuration pipeline.Configuration
	Summary       pipeline.Summary
	Failure       error
	Commands      []CommandEntry
}

// NewDocument converts a finished run into its report form.
func NewDocument(run Run) Document {
	document := Document{
		RunID:            run.RunID,
		StartedAt:        run.StartedAt.UTC(),
		FinishedAt:       run.FinishedAt.UTC(),
		Pattern:          run.Configuration.FilePattern,
		WorkingDirectory: run.Configuration.WorkingDirectory,
		CommitEnabled:    run.Configuration.CommitEnabled,
		State:            string(run.Summary.State),
		Outcome:          string(run.Summary.Outcome),
		SelectedFiles:    append([]string{}, run.Summary.SelectedFiles...),
		ChangedFiles:     run.Summary.ChangeSet.Paths(),
		Commands:         run.Commands,
	}
	if run.Failure != nil {
		failureEntry := &FailureEntry{Message: run.Failure.Error()}
		if phase, found := failures.PhaseOf(run.Failure); found {
			failureEntry.Phase = string(phase)
		}
		document.Failure = failureEntry
	}
	return document
}

// Writer persists run reports.
type Writer struct{}

// NewWriter constructs a Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Write encodes document as YAML and atomically replaces the file at path, creating parent directories.
func (writer *Writer) Write(path string, document Document) error {
	trimmedPath := strings.TrimSpace(path)
	if len(trimmedPath) == 0 {
		return ErrReportPathRequired
	}

	encodedDocument, encodeError := yaml.Marshal(document)
	if encodeError != nil {
		return fmt.Errorf(reportEncodeErrorTemplateConstant, encodeError)
	}

	parentDirectory := filepath.Dir(trimmedPath)
	if mkdirError := os.MkdirAll(parentDirectory, reportDirectoryPermissionsConstant); mkdirError != nil {
		return fmt.Errorf(reportDirectoryErrorTemplateConstant, parentDirectory, mkdirError)
	}

	if writeError := renameio.WriteFile(trimmedPath, encodedDocument, reportFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(reportWriteErrorTemplateConstant, trimmedPath, writeError)
	}
	return nil
}
