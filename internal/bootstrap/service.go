package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"
	"go.uber.org/zap"

	"github.com/temirov/rstfmt-action/internal/execshell"
	"github.com/temirov/rstfmt-action/internal/failures"
)

const (
	executorMissingMessageConstant          = "command executor not configured"
	formatterCommandRequiredMessageConstant = "formatter command must be provided"
	installParseErrorTemplateConstant       = "unable to parse install command %q: %w"
	installExecutionErrorTemplateConstant   = "install command %q failed: %w"
	formatterLookupErrorTemplateConstant    = "formatter %q is not available: %w"
	installStepMessageConstant              = "Running formatter install step"
	formatterReadyMessageConstant           = "Formatter ready"
	logFieldInstallCommandConstant          = "install_command"
	logFieldFormatterConstant               = "formatter"
	logFieldFormatterPathConstant           = "formatter_path"
)

// ErrExecutorNotConfigured indicates install commands were configured without a command executor.
var ErrExecutorNotConfigured = errors.New(executorMissingMessageConstant)

// ErrFormatterCommandRequired indicates no formatter command was configured.
var ErrFormatterCommandRequired = errors.New(formatterCommandRequiredMessageConstant)

// CommandExecutor runs install commands.
type CommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

// ExecutableLocator resolves an executable name to a path.
type ExecutableLocator interface {
	LookPath(name string) (string, error)
}

// PathLocator resolves executables through the PATH environment variable.
type PathLocator struct{}

// LookPath implements ExecutableLocator using exec.LookPath.
func (PathLocator) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Configuration lists the commands that install the formatter.
type Configuration struct {
	// Install holds command lines split into words with shell quoting rules; no shell is involved.
	Install []string `mapstructure:"install" yaml:"install"`
}

// Dependencies enumerates the collaborators a Service requires.
type Dependencies struct {
	Logger   *zap.Logger
	Executor CommandExecutor
	Locator  ExecutableLocator
}

// Options configures a Service.
type Options struct {
	WorkingDirectory string
	FormatterCommand string
	Configuration    Configuration
}

// Service provisions and verifies the formatter.
type Service struct {
	logger   *zap.Logger
	executor CommandExecutor
	locator  ExecutableLocator
	options  Options
}

// NewService constructs a Service. A nil locator resolves through PATH.
func NewService(dependencies Dependencies, options Options) (*Service, error) {
	options.FormatterCommand = strings.TrimSpace(options.FormatterCommand)
	if len(options.FormatterCommand) == 0 {
		return nil, ErrFormatterCommandRequired
	}
	if len(options.Configuration.Install) > 0 && dependencies.Executor == nil {
		return nil, ErrExecutorNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	locator := dependencies.Locator
	if locator == nil {
		locator = PathLocator{}
	}

	return &Service{logger: logger, executor: dependencies.Executor, locator: locator, options: options}, nil
}

// Prepare runs each install command in order and then resolves the formatter executable.
// Every failure is reported as a failures.BootstrapError.
func (service *Service) Prepare(executionContext context.Context) (string, error) {
	for _, installCommandLine := range service.options.Configuration.Install {
		if installError := service.install(executionContext, installCommandLine); installError != nil {
			return "", failures.BootstrapError{Cause: installError}
		}
	}

	formatterPath, lookupError := service.locator.LookPath(service.options.FormatterCommand)
	if lookupError != nil {
		return "", failures.BootstrapError{Cause: fmt.Errorf(formatterLookupErrorTemplateConstant, service.options.FormatterCommand, lookupError)}
	}

	service.logger.Info(
		formatterReadyMessageConstant,
		zap.String(logFieldFormatterConstant, service.options.FormatterCommand),
		zap.String(logFieldFormatterPathConstant, formatterPath),
	)
	return formatterPath, nil
}

func (service *Service) install(executionContext context.Context, commandLine string) error {
	trimmedCommandLine := strings.TrimSpace(commandLine)
	if len(trimmedCommandLine) == 0 {
		return nil
	}

	words, parseError := shellwords.Parse(trimmedCommandLine)
	if parseError != nil {
		return fmt.Errorf(installParseErrorTemplateConstant, trimmedCommandLine, parseError)
	}
	if len(words) == 0 {
		return nil
	}

	service.logger.Info(installStepMessageConstant, zap.String(logFieldInstallCommandConstant, trimmedCommandLine))
	_, executionError := service.executor.Execute(executionContext, execshell.ShellCommand{
		Name: execshell.CommandName(words[0]),
		Details: execshell.CommandDetails{
			Arguments:        words[1:],
			WorkingDirectory: service.options.WorkingDirectory,
			Silent:           true,
		},
	})
	if executionError != nil {
		return fmt.Errorf(installExecutionErrorTemplateConstant, trimmedCommandLine, executionError)
	}
	return nil
}
