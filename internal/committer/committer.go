package committer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/rstfmt-action/internal/changes"
	"github.com/temirov/rstfmt-action/internal/execshell"
	"github.com/temirov/rstfmt-action/internal/failures"
)

const (
	gitExecutorMissingMessageConstant           = "git executor not configured"
	authorNameRequiredMessageConstant           = "commit author name must be provided"
	commitMessageRequiredMessageConstant        = "commit message must be provided"
	identityConfigurationErrorTemplateConstant  = "unable to configure commit identity: %w"
	statusInspectionErrorTemplateConstant       = "unable to inspect working tree status: %w"
	gitConfigSubcommandConstant                 = "config"
	gitUserNameSettingConstant                  = "user.name"
	gitUserEmailSettingConstant                 = "user.email"
	gitStatusSubcommandConstant                 = "status"
	gitPorcelainFlagConstant                    = "--porcelain"
	gitCommitSubcommandConstant                 = "commit"
	gitMessageFlagConstant                      = "-m"
	gitPushSubcommandConstant                   = "push"
	gitTerminalPromptEnvironmentNameConstant    = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptEnvironmentDisableConstant = "0"
	anonymousAuthorEmailConstant                = ""
	commitSkippedMessageConstant                = "Commit disabled; leaving working tree untouched"
	nothingToCommitMessageConstant              = "Nothing to commit!"
	changesCommittedMessageConstant             = "Committed and pushed formatting changes"
	logFieldChangedFilesConstant                = "changed_files"
	logFieldCommitMessageConstant               = "commit_message"
)

// ErrGitExecutorNotConfigured indicates committing was enabled without a git executor.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// ErrAuthorNameRequired indicates committing was enabled without an author name.
var ErrAuthorNameRequired = errors.New(authorNameRequiredMessageConstant)

// ErrCommitMessageRequired indicates committing was enabled without a commit message.
var ErrCommitMessageRequired = errors.New(commitMessageRequiredMessageConstant)

// Outcome tags the result of Finalize.
type Outcome string

// Commit outcomes. Failures are reported as errors rather than outcomes.
const (
	OutcomeSkipped         Outcome = Outcome("skipped")
	OutcomeNothingToCommit Outcome = Outcome("nothing-to-commit")
	OutcomeCommitted       Outcome = Outcome("committed")
)

// GitExecutor exposes the git invocation used by the committer.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Options configures the commit policy.
type Options struct {
	WorkingDirectory string
	CommitEnabled    bool
	AuthorName       string
	CommitMessage    string
}

// Committer finalizes a run's staged changes.
type Committer struct {
	logger   *zap.Logger
	executor GitExecutor
	options  Options
}

// NewCommitter validates options and constructs a Committer. A nil logger is replaced with a no-op logger.
func NewCommitter(logger *zap.Logger, executor GitExecutor, options Options) (*Committer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if options.CommitEnabled {
		if executor == nil {
			return nil, ErrGitExecutorNotConfigured
		}
		options.AuthorName = strings.TrimSpace(options.AuthorName)
		if len(options.AuthorName) == 0 {
			return nil, ErrAuthorNameRequired
		}
		if len(strings.TrimSpace(options.CommitMessage)) == 0 {
			return nil, ErrCommitMessageRequired
		}
	}

	return &Committer{logger: logger, executor: executor, options: options}, nil
}

// Finalize commits and pushes the staged changes described by changeSet.
func (committer *Committer) Finalize(executionContext context.Context, changeSet changes.ChangeSet) (Outcome, error) {
	if !committer.options.CommitEnabled {
		committer.logger.Info(commitSkippedMessageConstant, zap.Int(logFieldChangedFilesConstant, changeSet.Len()))
		return OutcomeSkipped, nil
	}

	if identityError := committer.configureIdentity(executionContext); identityError != nil {
		return "", failures.CommitError{Cause: fmt.Errorf(identityConfigurationErrorTemplateConstant, identityError)}
	}

	statusResult, statusError := committer.executeGit(executionContext, true, gitStatusSubcommandConstant, gitPorcelainFlagConstant)
	if statusError != nil {
		return "", failures.CommitError{Cause: fmt.Errorf(statusInspectionErrorTemplateConstant, statusError)}
	}

	if len(strings.TrimSpace(statusResult.StandardOutput)) == 0 || changeSet.Empty() {
		committer.logger.Info(nothingToCommitMessageConstant)
		return OutcomeNothingToCommit, nil
	}

	if _, commitError := committer.executeGit(executionContext, false, gitCommitSubcommandConstant, gitMessageFlagConstant, committer.options.CommitMessage); commitError != nil {
		return "", failures.CommitError{Cause: commitError}
	}

	if _, pushError := committer.executeGit(executionContext, true, gitPushSubcommandConstant); pushError != nil {
		return "", failures.PushError{Cause: pushError}
	}

	committer.logger.Info(
		changesCommittedMessageConstant,
		zap.Strings(logFieldChangedFilesConstant, changeSet.Paths()),
		zap.String(logFieldCommitMessageConstant, committer.options.CommitMessage),
	)
	return OutcomeCommitted, nil
}

// configureIdentity sets the author name and a deliberately empty author email for anonymous automated commits.
func (committer *Committer) configureIdentity(executionContext context.Context) error {
	if _, nameError := committer.executeGit(executionContext, true, gitConfigSubcommandConstant, gitUserNameSettingConstant, committer.options.AuthorName); nameError != nil {
		return nameError
	}
	_, emailError := committer.executeGit(executionContext, true, gitConfigSubcommandConstant, gitUserEmailSettingConstant, anonymousAuthorEmailConstant)
	return emailError
}

func (committer *Committer) executeGit(executionContext context.Context, silent bool, arguments ...string) (execshell.ExecutionResult, error) {
	return committer.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     committer.options.WorkingDirectory,
		EnvironmentVariables: map[string]string{gitTerminalPromptEnvironmentNameConstant: gitTerminalPromptEnvironmentDisableConstant},
		Silent:               silent,
	})
}
