package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/temirov/rstfmt-action/internal/changes"
	"github.com/temirov/rstfmt-action/internal/committer"
	"github.com/temirov/rstfmt-action/internal/failures"
	"github.com/temirov/rstfmt-action/internal/formatting"
)

const (
	fileFinderMissingMessageConstant   = "file finder not configured"
	formatterMissingMessageConstant    = "file formatter not configured"
	changeSourceMissingMessageConstant = "change source not configured"
	finalizerMissingMessageConstant    = "commit finalizer not configured"
	alreadyRunMessageConstant          = "pipeline has already run"
	stateChangedMessageConstant        = "Pipeline state changed"
	runFailedMessageConstant           = "Pipeline failed"
	filesSelectedMessageConstant       = "Selected files"
	runCompletedMessageConstant        = "Pipeline completed"
	logFieldFromStateConstant          = "from"
	logFieldToStateConstant            = "to"
	logFieldFilesConstant              = "files"
	logFieldFileCountConstant          = "file_count"
	logFieldPatternConstant            = "pattern"
	logFieldChangedCountConstant       = "changed_count"
	logFieldOutcomeConstant            = "outcome"
	logFieldPhaseConstant              = "phase"
)

// ErrFileFinderNotConfigured indicates the orchestrator was created without a file finder.
var ErrFileFinderNotConfigured = errors.New(fileFinderMissingMessageConstant)

// ErrFormatterNotConfigured indicates the orchestrator was created without a file formatter.
var ErrFormatterNotConfigured = errors.New(formatterMissingMessageConstant)

// ErrChangeSourceNotConfigured indicates the orchestrator was created without a change source.
var ErrChangeSourceNotConfigured = errors.New(changeSourceMissingMessageConstant)

// ErrFinalizerNotConfigured indicates the orchestrator was created without a commit finalizer.
var ErrFinalizerNotConfigured = errors.New(finalizerMissingMessageConstant)

// ErrAlreadyRun indicates Run was called on an orchestrator that already reached a terminal state.
var ErrAlreadyRun = errors.New(alreadyRunMessageConstant)

// State is a stage of the run.
type State string

// Run states. StateDone and StateFailed are terminal.
const (
	StateIdle          State = State("idle")
	StateBootstrapping State = State("bootstrapping")
	StateDiscovering   State = State("discovering")
	StateFormatting    State = State("formatting")
	StateCommitting    State = State("committing")
	StateDone          State = State("done")
	StateFailed        State = State("failed")
)

// Bootstrapper provisions the formatter and returns its resolved path.
type Bootstrapper interface {
	Prepare(executionContext context.Context) (string, error)
}

// FileFinder expands the file pattern.
type FileFinder interface {
	Find(pattern string) ([]string, error)
}

// FileFormatter formats the selected files in order.
type FileFormatter interface {
	Run(executionContext context.Context, paths []string) ([]formatting.FileOutcome, error)
}

// ChangeSource exposes the paths recorded as changed during formatting.
type ChangeSource interface {
	ChangeSet() changes.ChangeSet
}

// Finalizer commits and pushes the recorded changes.
type Finalizer interface {
	Finalize(executionContext context.Context, changeSet changes.ChangeSet) (committer.Outcome, error)
}

// Dependencies enumerates the collaborators an Orchestrator requires. Bootstrapper is optional.
type Dependencies struct {
	Logger       *zap.Logger
	Bootstrapper Bootstrapper
	FileFinder   FileFinder
	Formatter    FileFormatter
	Changes      ChangeSource
	Finalizer    Finalizer
}

// Summary describes what a run did, including runs that failed part way.
type Summary struct {
	State         State
	FilePattern   string
	FormatterPath string
	SelectedFiles []string
	Files         []formatting.FileOutcome
	ChangeSet     changes.ChangeSet
	Outcome       committer.Outcome
}

// Orchestrator drives one run through its states.
type Orchestrator struct {
	logger        *zap.Logger
	dependencies  Dependencies
	configuration Configuration
	state         State
}

// NewOrchestrator validates dependencies and constructs an Orchestrator in StateIdle.
func NewOrchestrator(dependencies Dependencies, configuration Configuration) (*Orchestrator, error) {
	if dependencies.FileFinder == nil {
		return nil, ErrFileFinderNotConfigured
	}
	if dependencies.Formatter == nil {
		return nil, ErrFormatterNotConfigured
	}
	if dependencies.Changes == nil {
		return nil, ErrChangeSourceNotConfigured
	}
	if dependencies.Finalizer == nil {
		return nil, ErrFinalizerNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Orchestrator{
		logger:        logger,
		dependencies:  dependencies,
		configuration: configuration.Sanitize(),
		state:         StateIdle,
	}, nil
}

// State reports the current state.
func (orchestrator *Orchestrator) State() State {
	return orchestrator.state
}

// Run executes the pipeline once. The returned Summary is populated up to the point of failure.
func (orchestrator *Orchestrator) Run(executionContext context.Context) (Summary, error) {
	summary := Summary{FilePattern: orchestrator.configuration.FilePattern}
	if orchestrator.state != StateIdle {
		summary.State = orchestrator.state
		return summary, ErrAlreadyRun
	}

	if orchestrator.dependencies.Bootstrapper != nil {
		orchestrator.transition(StateBootstrapping)
		formatterPath, prepareError := orchestrator.dependencies.Bootstrapper.Prepare(executionContext)
		if prepareError != nil {
			return orchestrator.fail(summary, prepareError)
		}
		summary.FormatterPath = formatterPath
	}

	orchestrator.transition(StateDiscovering)
	selectedFiles, findError := orchestrator.dependencies.FileFinder.Find(orchestrator.configuration.FilePattern)
	if findError != nil {
		return orchestrator.fail(summary, failures.DiscoveryError{Pattern: orchestrator.configuration.FilePattern, Cause: findError})
	}
	summary.SelectedFiles = selectedFiles
	orchestrator.logger.Debug(
		filesSelectedMessageConstant,
		zap.String(logFieldPatternConstant, orchestrator.configuration.FilePattern),
		zap.Int(logFieldFileCountConstant, len(selectedFiles)),
		zap.Strings(logFieldFilesConstant, selectedFiles),
	)

	orchestrator.transition(StateFormatting)
	fileOutcomes, formatError := orchestrator.dependencies.Formatter.Run(executionContext, selectedFiles)
	summary.Files = fileOutcomes
	summary.ChangeSet = orchestrator.dependencies.Changes.ChangeSet()
	if formatError != nil {
		return orchestrator.fail(summary, formatError)
	}

	orchestrator.transition(StateCommitting)
	outcome, finalizeError := orchestrator.dependencies.Finalizer.Finalize(executionContext, summary.ChangeSet)
	if finalizeError != nil {
		return orchestrator.fail(summary, finalizeError)
	}
	summary.Outcome = outcome

	orchestrator.transition(StateDone)
	summary.State = StateDone
	orchestrator.logger.Info(
		runCompletedMessageConstant,
		zap.Int(logFieldFileCountConstant, len(summary.SelectedFiles)),
		zap.Int(logFieldChangedCountConstant, summary.ChangeSet.Len()),
		zap.String(logFieldOutcomeConstant, string(outcome)),
	)
	return summary, nil
}

func (orchestrator *Orchestrator) transition(nextState State) {
	orchestrator.logger.Info(
		stateChangedMessageConstant,
		zap.String(logFieldFromStateConstant, string(orchestrator.state)),
		zap.String(logFieldToStateConstant, string(nextState)),
	)
	orchestrator.state = nextState
}

func (orchestrator *Orchestrator) fail(summary Summary, failure error) (Summary, error) {
	failedState := orchestrator.state
	orchestrator.transition(StateFailed)
	summary.State = StateFailed

	fields := []zap.Field{zap.String(logFieldFromStateConstant, string(failedState)), zap.Error(failure)}
	if phase, found := failures.PhaseOf(failure); found {
		fields = append(fields, zap.String(logFieldPhaseConstant, string(phase)))
	}
	orchestrator.logger.Error(runFailedMessageConstant, fields...)
	return summary, failure
}
