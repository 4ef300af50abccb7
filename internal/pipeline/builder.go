package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/temirov/rstfmt-action/internal/bootstrap"
	"github.com/temirov/rstfmt-action/internal/changes"
	"github.com/temirov/rstfmt-action/internal/committer"
	"github.com/temirov/rstfmt-action/internal/discovery"
	"github.com/temirov/rstfmt-action/internal/execshell"
	"github.com/temirov/rstfmt-action/internal/filesystem"
	"github.com/temirov/rstfmt-action/internal/formatting"
)

const commandExecutorMissingMessageConstant = "command executor not configured"

// ErrCommandExecutorNotConfigured indicates Build was called without a command executor.
var ErrCommandExecutorNotConfigured = errors.New(commandExecutorMissingMessageConstant)

// CommandExecutor runs both arbitrary commands and git commands.
type CommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// BuildOptions supplies the capabilities Build wires into the pipeline components.
type BuildOptions struct {
	Logger     *zap.Logger
	Executor   CommandExecutor
	FileSystem formatting.FileSystem
	Locator    bootstrap.ExecutableLocator
}

// Build assembles an Orchestrator backed by the production components: glob discovery rooted at
// the working directory, the formatter pipeline, git staging, and the git committer. A nil file
// system uses the operating system and a nil locator resolves through PATH.
func Build(options BuildOptions, configuration Configuration) (*Orchestrator, error) {
	if options.Executor == nil {
		return nil, ErrCommandExecutorNotConfigured
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	fileSystem := options.FileSystem
	if fileSystem == nil {
		fileSystem = filesystem.OSFileSystem{}
	}

	sanitizedConfiguration := configuration.Sanitize()

	bootstrapService, bootstrapError := bootstrap.NewService(
		bootstrap.Dependencies{Logger: logger, Executor: options.Executor, Locator: options.Locator},
		bootstrap.Options{
			WorkingDirectory: sanitizedConfiguration.WorkingDirectory,
			FormatterCommand: sanitizedConfiguration.Formatter.Command,
			Configuration:    sanitizedConfiguration.Bootstrap,
		},
	)
	if bootstrapError != nil {
		return nil, bootstrapError
	}

	tracker, trackerError := changes.NewTracker(logger, options.Executor, changes.TrackerOptions{
		WorkingDirectory: sanitizedConfiguration.WorkingDirectory,
		StagingEnabled:   sanitizedConfiguration.CommitEnabled,
	})
	if trackerError != nil {
		return nil, trackerError
	}

	formattingPipeline, pipelineError := formatting.NewPipeline(
		formatting.Dependencies{Logger: logger, Executor: options.Executor, FileSystem: fileSystem, Recorder: tracker},
		formatting.Options{WorkingDirectory: sanitizedConfiguration.WorkingDirectory, Formatter: sanitizedConfiguration.Formatter},
	)
	if pipelineError != nil {
		return nil, pipelineError
	}

	repositoryCommitter, committerError := committer.NewCommitter(logger, options.Executor, committer.Options{
		WorkingDirectory: sanitizedConfiguration.WorkingDirectory,
		CommitEnabled:    sanitizedConfiguration.CommitEnabled,
		AuthorName:       sanitizedConfiguration.AuthorName,
		CommitMessage:    sanitizedConfiguration.CommitMessage,
	})
	if committerError != nil {
		return nil, committerError
	}

	return NewOrchestrator(Dependencies{
		Logger:       logger,
		Bootstrapper: bootstrapService,
		FileFinder:   discovery.NewGlobFileFinder(sanitizedConfiguration.WorkingDirectory),
		Formatter:    formattingPipeline,
		Changes:      tracker,
		Finalizer:    repositoryCommitter,
	}, sanitizedConfiguration)
}
