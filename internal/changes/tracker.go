package changes

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/rstfmt-action/internal/execshell"
	"github.com/temirov/rstfmt-action/internal/failures"
)

const (
	gitExecutorMissingMessageConstant = "git executor not configured"
	pathRequiredMessageConstant       = "changed path must be provided"
	gitAddSubcommandConstant          = "add"
	gitArgumentTerminatorConstant     = "--"
	changeRecordedMessageConstant     = "Recorded formatting change"
	duplicateChangeMessageConstant    = "Ignoring repeated formatting change"
	logFieldPathConstant              = "path"
	logFieldStagedConstant            = "staged"
)

// ErrGitExecutorNotConfigured indicates staging was requested without a git executor.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// ErrPathRequired indicates an empty path was recorded.
var ErrPathRequired = errors.New(pathRequiredMessageConstant)

// GitExecutor exposes the git invocation used for staging.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// TrackerOptions configures a Tracker.
type TrackerOptions struct {
	WorkingDirectory string
	// StagingEnabled adds each recorded path to the index; when false no git command is issued.
	StagingEnabled bool
}

// Tracker records changed paths for a single run.
type Tracker struct {
	logger    *zap.Logger
	executor  GitExecutor
	options   TrackerOptions
	changeSet ChangeSet
}

// NewTracker constructs a Tracker. A nil logger is replaced with a no-op logger.
func NewTracker(logger *zap.Logger, executor GitExecutor, options TrackerOptions) (*Tracker, error) {
	if options.StagingEnabled && executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{logger: logger, executor: executor, options: options}, nil
}

// Record adds path to the change set, staging it first when staging is enabled.
// Recording a path twice is a no-op.
func (tracker *Tracker) Record(executionContext context.Context, path string) error {
	trimmedPath := strings.TrimSpace(path)
	if len(trimmedPath) == 0 {
		return ErrPathRequired
	}

	if tracker.changeSet.Contains(trimmedPath) {
		tracker.logger.Debug(duplicateChangeMessageConstant, zap.String(logFieldPathConstant, trimmedPath))
		return nil
	}

	if tracker.options.StagingEnabled {
		if stageError := tracker.stage(executionContext, trimmedPath); stageError != nil {
			return failures.StagingError{Path: trimmedPath, Cause: stageError}
		}
	}

	tracker.changeSet.add(trimmedPath)
	tracker.logger.Info(
		changeRecordedMessageConstant,
		zap.String(logFieldPathConstant, trimmedPath),
		zap.Bool(logFieldStagedConstant, tracker.options.StagingEnabled),
	)
	return nil
}

// ChangeSet returns the paths recorded so far.
func (tracker *Tracker) ChangeSet() ChangeSet {
	return NewChangeSet(tracker.changeSet.paths...)
}

func (tracker *Tracker) stage(executionContext context.Context, path string) error {
	_, stageError := tracker.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitAddSubcommandConstant, gitArgumentTerminatorConstant, path},
		WorkingDirectory: tracker.options.WorkingDirectory,
	})
	return stageError
}
