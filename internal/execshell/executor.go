package execshell

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

const (
	loggerNotConfiguredMessageConstant        = "logger not configured"
	commandRunnerNotConfiguredMessageConstant = "command runner not configured"
	logFieldCommandNameConstant               = "command_name"
	logFieldCommandArgumentsConstant          = "command_arguments"
	logFieldWorkingDirectoryConstant          = "working_directory"
	logFieldExitCodeConstant                  = "exit_code"
	logFieldStandardOutputConstant            = "stdout"
	logFieldStandardErrorConstant             = "stderr"
	logFieldFailureIgnoredConstant            = "failure_ignored"
)

// ErrLoggerNotConfigured indicates the executor was created without a logger.
var ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)

// ErrCommandRunnerNotConfigured indicates the executor was created without a command runner.
var ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)

// ShellExecutor runs commands through a CommandRunner, applying per-call failure policy and logging.
type ShellExecutor struct {
	logger           *zap.Logger
	runner           CommandRunner
	messageFormatter CommandMessageFormatter
	observers        observerSet
}

// NewShellExecutor constructs a ShellExecutor. Observers receive every command lifecycle event in order.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner, observers ...CommandEventObserver) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	registeredObservers := make(observerSet, 0, len(observers))
	for _, observer := range observers {
		if observer != nil {
			registeredObservers = append(registeredObservers, observer)
		}
	}

	return &ShellExecutor{
		logger:    logger,
		runner:    runner,
		observers: registeredObservers,
	}, nil
}

// Execute runs the command and returns its result.
//
// A non-zero exit yields CommandFailedError unless Details.IgnoreFailure is set, in which case the
// failed result is returned with a nil error. A command that cannot be run yields CommandExecutionError.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	commandFields := executor.commandFields(command)
	executor.logAtVerbosity(command, executor.messageFormatter.BuildStartedMessage(command), commandFields...)
	executor.observers.started(command)

	executionResult, runError := executor.runner.Run(executionContext, command)
	if runError != nil {
		executor.observers.executionFailed(command, runError)
		executor.logger.Error(executor.messageFormatter.BuildExecutionFailureMessage(command, runError), append(commandFields, zap.Error(runError))...)
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runError}
	}

	executor.observers.completed(command, executionResult)
	resultFields := append(commandFields, executor.outputFields(command, executionResult)...)

	if !executionResult.Failed() {
		executor.logAtVerbosity(command, executor.messageFormatter.BuildSuccessMessage(command), resultFields...)
		return executionResult, nil
	}

	failureMessage := executor.messageFormatter.BuildFailureMessage(command, executionResult)
	if command.Details.IgnoreFailure {
		executor.logAtVerbosity(command, failureMessage, append(resultFields, zap.Bool(logFieldFailureIgnoredConstant, true))...)
		return executionResult, nil
	}

	executor.logger.Warn(failureMessage, resultFields...)
	return ExecutionResult{}, CommandFailedError{Command: command, Result: executionResult}
}

// ExecuteGit runs git with the provided details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}

func (executor *ShellExecutor) logAtVerbosity(command ShellCommand, message string, fields ...zap.Field) {
	if command.Details.Silent {
		executor.logger.Debug(message, fields...)
		return
	}
	executor.logger.Info(message, fields...)
}

func (executor *ShellExecutor) commandFields(command ShellCommand) []zap.Field {
	fields := []zap.Field{
		zap.String(logFieldCommandNameConstant, string(command.Name)),
		zap.Strings(logFieldCommandArgumentsConstant, command.Details.Arguments),
	}
	if trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory); len(trimmedWorkingDirectory) > 0 {
		fields = append(fields, zap.String(logFieldWorkingDirectoryConstant, trimmedWorkingDirectory))
	}
	return fields
}

// outputFields echoes captured output; silent commands keep it out of info-level entries.
func (executor *ShellExecutor) outputFields(command ShellCommand, result ExecutionResult) []zap.Field {
	fields := []zap.Field{zap.Int(logFieldExitCodeConstant, result.ExitCode)}
	if command.Details.Silent && !executor.logger.Core().Enabled(zap.DebugLevel) {
		return fields
	}
	if trimmedOutput := strings.TrimSpace(result.StandardOutput); len(trimmedOutput) > 0 {
		fields = append(fields, zap.String(logFieldStandardOutputConstant, trimmedOutput))
	}
	if trimmedError := strings.TrimSpace(result.StandardError); len(trimmedError) > 0 {
		fields = append(fields, zap.String(logFieldStandardErrorConstant, trimmedError))
	}
	return fields
}
