package execshell

import (
	"context"
	"fmt"
	"strings"
)

const (
	commandFailedErrorTemplateConstant        = "%s exited with code %d"
	commandFailedWithOutputTemplateConstant   = "%s exited with code %d: %s"
	commandExecutionErrorTemplateConstant     = "%s could not be executed: %v"
	commandDisplayArgumentsSeparatorConstant  = " "
	commandDisplayUnnamedCommandLabelConstant = "command"
	gitExecutableNameConstant                 = "git"
)

// CommandName identifies the executable invoked for a ShellCommand.
type CommandName string

// CommandGit identifies the git executable.
const CommandGit CommandName = CommandName(gitExecutableNameConstant)

// CommandDetails describes the arguments, environment, and failure policy of a single invocation.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
	// Silent keeps captured output out of info-level logs.
	Silent bool
	// IgnoreFailure returns a failed ExecutionResult instead of CommandFailedError on a non-zero exit.
	IgnoreFailure bool
}

// ShellCommand pairs an executable with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// String renders the command line for diagnostics.
func (command ShellCommand) String() string {
	commandName := strings.TrimSpace(string(command.Name))
	if len(commandName) == 0 {
		commandName = commandDisplayUnnamedCommandLabelConstant
	}
	if len(command.Details.Arguments) == 0 {
		return commandName
	}
	return commandName + commandDisplayArgumentsSeparatorConstant + strings.Join(command.Details.Arguments, commandDisplayArgumentsSeparatorConstant)
}

// ExecutionResult captures the complete output and exit status of a finished command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// Failed reports whether the command terminated with a non-zero status.
func (result ExecutionResult) Failed() bool {
	return result.ExitCode != 0
}

// CommandRunner executes shell commands and returns their materialized results.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// CommandFailedError indicates a command finished with a non-zero exit code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command, preferring its standard error output.
func (failure CommandFailedError) Error() string {
	trimmedStandardError := strings.TrimSpace(failure.Result.StandardError)
	if len(trimmedStandardError) == 0 {
		return fmt.Sprintf(commandFailedErrorTemplateConstant, failure.Command, failure.Result.ExitCode)
	}
	return fmt.Sprintf(commandFailedWithOutputTemplateConstant, failure.Command, failure.Result.ExitCode, trimmedStandardError)
}

// CommandExecutionError indicates a command could not be started or awaited.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (failure CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionErrorTemplateConstant, failure.Command, failure.Cause)
}

// Unwrap exposes the underlying cause.
func (failure CommandExecutionError) Unwrap() error {
	return failure.Cause
}
