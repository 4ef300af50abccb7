package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/rstfmt-action/internal/bootstrap"
	"github.com/temirov/rstfmt-action/internal/execshell"
	"github.com/temirov/rstfmt-action/internal/formatting"
	"github.com/temirov/rstfmt-action/internal/pipeline"
	"github.com/temirov/rstfmt-action/internal/report"
	"github.com/temirov/rstfmt-action/internal/utils"
	flagutils "github.com/temirov/rstfmt-action/internal/utils/flags"
	pathutils "github.com/temirov/rstfmt-action/internal/utils/path"
)

const (
	applicationNameConstant                 = "rstfmt-action"
	applicationShortDescriptionConstant     = "Format reStructuredText files and push the result"
	applicationLongDescriptionConstant      = "rstfmt-action selects files by glob, runs a formatter on each one, stages the files it changed, and commits and pushes them when committing is enabled."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	filesFlagNameConstant                   = "files"
	filesFlagUsageConstant                  = "Glob selecting the files to format; ** spans directories."
	commitFlagNameConstant                  = "commit"
	commitFlagUsageConstant                 = "Stage, commit, and push formatting changes."
	githubUsernameFlagNameConstant          = "github-username"
	githubUsernameFlagUsageConstant         = "Author name recorded on the formatting commit."
	commitMessageFlagNameConstant           = "commit-message"
	commitMessageFlagUsageConstant          = "Message of the formatting commit."
	workingDirectoryFlagNameConstant        = "working-directory"
	workingDirectoryFlagUsageConstant       = "Repository directory to format and commit in."
	formatterFlagNameConstant               = "formatter"
	formatterFlagUsageConstant              = "Formatter executable."
	formatterModeFlagNameConstant           = "formatter-mode"
	formatterModeFlagUsageConstant          = "How the formatter delivers formatted content."
	reportFlagNameConstant                  = "report"
	reportFlagUsageConstant                 = "Write a YAML run report to this path."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format; terminals default to console."
	environmentPrefixConstant               = "INPUT"
	configurationNameConstant               = "rstfmt-action"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	reportWrittenMessageConstant            = "Run report written"
	reportFailedMessageConstant             = "Unable to write run report"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationPatternFieldConstant       = "pattern"
	configurationCommitFieldConstant        = "commit"
	configurationWorkingDirectoryConstant   = "working_directory"
	logFieldRunIdentifierConstant           = "run_id"
	logFieldReportPathConstant              = "report_path"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	workingDirectoryErrorTemplateConstant   = "unable to resolve working directory: %w"
	runIdentifierErrorTemplateConstant      = "unable to generate run identifier: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	executorCreationErrorTemplateConstant   = "unable to create command executor: %w"
	pipelineCreationErrorTemplateConstant   = "unable to assemble pipeline: %w"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	defaultConfigurationSearchPathConstant  = "."
	defaultLogLevelConstant                 = "info"
)

var (
	logLevelChoices  = []string{string(utils.LogLevelDebug), string(utils.LogLevelInfo), string(utils.LogLevelWarn), string(utils.LogLevelError)}
	logFormatChoices = []string{string(utils.LogFormatStructured), string(utils.LogFormatConsole)}
	formatterModes   = []string{string(formatting.OutputModeStandardOutput), string(formatting.OutputModeInPlace)}
)

// ApplicationConfiguration is the fully resolved configuration of one invocation.
type ApplicationConfiguration struct {
	pipeline.Configuration `mapstructure:",squash" yaml:",inline"`
	Report                 string `mapstructure:"report" yaml:"report"`
	LogLevel               string `mapstructure:"log-level" yaml:"log-level"`
	LogFormat              string `mapstructure:"log-format" yaml:"log-format"`
}

// ApplicationDependencies replaces the operating system collaborators, mainly for tests.
type ApplicationDependencies struct {
	CommandRunner           execshell.CommandRunner
	ExecutableLocator       bootstrap.ExecutableLocator
	LoggerFactory           *utils.LoggerFactory
	RunIdentifierGenerator  func() (string, error)
	Clock                   func() time.Time
	ConfigurationSearchPath string
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	commandContextAccessor utils.CommandContextAccessor
	pathResolver           *pathutils.Resolver
	reportWriter           *report.Writer
	dependencies           ApplicationDependencies
	flagValues             applicationFlagValues
}

type applicationFlagValues struct {
	configurationFilePath string
	files                 string
	commit                bool
	githubUsername        string
	commitMessage         string
	workingDirectory      string
	formatter             string
	formatterMode         string
	report                string
	logLevel              string
	logFormat             string
}

// NewApplication assembles a CLI application backed by the operating system.
func NewApplication() *Application {
	return NewApplicationWithDependencies(ApplicationDependencies{})
}

// NewApplicationWithDependencies assembles a CLI application, filling unset dependencies with operating system defaults.
func NewApplicationWithDependencies(dependencies ApplicationDependencies) *Application {
	if dependencies.CommandRunner == nil {
		dependencies.CommandRunner = &execshell.OSCommandRunner{}
	}
	if dependencies.ExecutableLocator == nil {
		dependencies.ExecutableLocator = bootstrap.PathLocator{}
	}
	if dependencies.LoggerFactory == nil {
		dependencies.LoggerFactory = utils.NewLoggerFactory()
	}
	if dependencies.RunIdentifierGenerator == nil {
		dependencies.RunIdentifierGenerator = func() (string, error) { return gonanoid.New() }
	}
	if dependencies.Clock == nil {
		dependencies.Clock = time.Now
	}
	if len(dependencies.ConfigurationSearchPath) == 0 {
		dependencies.ConfigurationSearchPath = defaultConfigurationSearchPathConstant
	}

	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{dependencies.ConfigurationSearchPath},
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())
	configurationLoader.SetDecodeHook(flagutils.ToggleDecodeHook())

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          dependencies.LoggerFactory,
		logger:                 zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
		pathResolver:           pathutils.NewResolver(),
		reportWriter:           report.NewWriter(),
		dependencies:           dependencies,
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Version:       resolveVersion(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runPipeline(command)
		},
	}
	cobraCommand.SetVersionTemplate(versionTemplateConstant)
	cobraCommand.SetContext(context.Background())

	flagSet := cobraCommand.PersistentFlags()
	defaults := pipeline.DefaultConfiguration()
	flagSet.StringVar(&application.flagValues.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	flagSet.StringVar(&application.flagValues.files, filesFlagNameConstant, defaults.FilePattern, filesFlagUsageConstant)
	flagutils.AddToggleFlag(flagSet, &application.flagValues.commit, commitFlagNameConstant, defaults.CommitEnabled, commitFlagUsageConstant)
	flagSet.StringVar(&application.flagValues.githubUsername, githubUsernameFlagNameConstant, defaults.AuthorName, githubUsernameFlagUsageConstant)
	flagSet.StringVar(&application.flagValues.commitMessage, commitMessageFlagNameConstant, defaults.CommitMessage, commitMessageFlagUsageConstant)
	flagSet.StringVar(&application.flagValues.workingDirectory, workingDirectoryFlagNameConstant, defaults.WorkingDirectory, workingDirectoryFlagUsageConstant)
	flagSet.StringVar(&application.flagValues.formatter, formatterFlagNameConstant, defaults.Formatter.Command, formatterFlagUsageConstant)
	flagutils.AddChoiceFlag(flagSet, &application.flagValues.formatterMode, formatterModeFlagNameConstant, string(defaults.Formatter.Mode), formatterModes, formatterModeFlagUsageConstant)
	flagSet.StringVar(&application.flagValues.report, reportFlagNameConstant, "", reportFlagUsageConstant)
	flagutils.AddChoiceFlag(flagSet, &application.flagValues.logLevel, logLevelFlagNameConstant, defaultLogLevelConstant, logLevelChoices, logLevelFlagUsageConstant)
	flagutils.AddChoiceFlag(flagSet, &application.flagValues.logFormat, logFormatFlagNameConstant, "", logFormatChoices, logFormatFlagUsageConstant)

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the command with the process arguments and ensures logger flushing.
func (application *Application) Execute() error {
	return application.ExecuteContext(context.Background(), os.Args[1:])
}

// ExecuteContext runs the command with arguments; cancelling executionContext stops the running subprocess.
func (application *Application) ExecuteContext(executionContext context.Context, arguments []string) error {
	application.rootCommand.SetArgs(flagutils.NormalizeToggleArguments(arguments))
	executionError := application.rootCommand.ExecuteContext(executionContext)
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Configuration returns the configuration resolved by the last execution.
func (application *Application) Configuration() ApplicationConfiguration {
	return application.configuration
}

// Execute builds a fresh application instance and executes it until completion or until ctx is cancelled.
func Execute(executionContext context.Context) error {
	return NewApplication().ExecuteContext(executionContext, os.Args[1:])
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	configurationFilePath := application.pathResolver.Expand(application.flagValues.configurationFilePath)
	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(configurationFilePath, nil, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}
	application.configurationMetadata = loadedConfiguration

	application.applyFlagOverrides(command)

	workingDirectory, workingDirectoryError := application.pathResolver.Absolute(application.configuration.WorkingDirectory)
	if workingDirectoryError != nil {
		return fmt.Errorf(workingDirectoryErrorTemplateConstant, workingDirectoryError)
	}
	application.configuration.WorkingDirectory = workingDirectory
	application.configuration.Report = application.pathResolver.Expand(application.configuration.Report)

	runIdentifier, runIdentifierError := application.dependencies.RunIdentifierGenerator()
	if runIdentifierError != nil {
		return fmt.Errorf(runIdentifierErrorTemplateConstant, runIdentifierError)
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.LogLevel),
		utils.LogFormat(application.configuration.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}
	application.logger = logger.With(zap.String(logFieldRunIdentifierConstant, runIdentifier))

	application.logger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.LogLevel),
		zap.String(configurationLogFormatFieldConstant, string(application.loggerFactory.ResolveLogFormat(utils.LogFormat(application.configuration.LogFormat)))),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.String(configurationPatternFieldConstant, application.configuration.FilePattern),
		zap.Bool(configurationCommitFieldConstant, application.configuration.CommitEnabled),
		zap.String(configurationWorkingDirectoryConstant, application.configuration.WorkingDirectory),
	)

	updatedContext := application.commandContextAccessor.WithConfigurationFilePath(command.Context(), application.configurationMetadata.ConfigFileUsed)
	updatedContext = application.commandContextAccessor.WithRunIdentifier(updatedContext, runIdentifier)
	command.SetContext(updatedContext)

	return nil
}

func (application *Application) applyFlagOverrides(command *cobra.Command) {
	flagValues := application.flagValues
	overrides := []struct {
		flagName string
		apply    func()
	}{
		{flagName: filesFlagNameConstant, apply: func() { application.configuration.FilePattern = flagValues.files }},
		{flagName: commitFlagNameConstant, apply: func() { application.configuration.CommitEnabled = flagValues.commit }},
		{flagName: githubUsernameFlagNameConstant, apply: func() { application.configuration.AuthorName = flagValues.githubUsername }},
		{flagName: commitMessageFlagNameConstant, apply: func() { application.configuration.CommitMessage = flagValues.commitMessage }},
		{flagName: workingDirectoryFlagNameConstant, apply: func() { application.configuration.WorkingDirectory = flagValues.workingDirectory }},
		{flagName: formatterFlagNameConstant, apply: func() { application.configuration.Formatter.Command = flagValues.formatter }},
		{flagName: formatterModeFlagNameConstant, apply: func() { application.configuration.Formatter.Mode = formatting.OutputMode(flagValues.formatterMode) }},
		{flagName: reportFlagNameConstant, apply: func() { application.configuration.Report = flagValues.report }},
		{flagName: logLevelFlagNameConstant, apply: func() { application.configuration.LogLevel = flagValues.logLevel }},
		{flagName: logFormatFlagNameConstant, apply: func() { application.configuration.LogFormat = flagValues.logFormat }},
	}

	for _, override := range overrides {
		if application.persistentFlagChanged(command, override.flagName) {
			override.apply()
		}
	}
	application.configuration.Configuration = application.configuration.Configuration.Sanitize()
}

func (application *Application) runPipeline(command *cobra.Command) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}
	executionContext := command.Context()

	commandLedger := report.NewCommandLedger()
	shellExecutor, executorError := execshell.NewShellExecutor(application.logger, application.dependencies.CommandRunner, commandLedger)
	if executorError != nil {
		return fmt.Errorf(executorCreationErrorTemplateConstant, executorError)
	}

	orchestrator, buildError := pipeline.Build(pipeline.BuildOptions{
		Logger:   application.logger,
		Executor: shellExecutor,
		Locator:  application.dependencies.ExecutableLocator,
	}, application.configuration.Configuration)
	if buildError != nil {
		return fmt.Errorf(pipelineCreationErrorTemplateConstant, buildError)
	}

	startedAt := application.dependencies.Clock()
	summary, runError := orchestrator.Run(executionContext)

	if len(application.configuration.Report) > 0 {
		runIdentifier, _ := application.commandContextAccessor.RunIdentifier(executionContext)
		application.writeReport(report.Run{
			RunID:         runIdentifier,
			StartedAt:     startedAt,
			FinishedAt:    application.dependencies.Clock(),
			Configuration: application.configuration.Configuration,
			Summary:       summary,
			Failure:       runError,
			Commands:      commandLedger.Entries(),
		})
	}

	return runError
}

func (application *Application) writeReport(run report.Run) {
	reportPath := application.configuration.Report
	if writeError := application.reportWriter.Write(reportPath, report.NewDocument(run)); writeError != nil {
		application.logger.Warn(reportFailedMessageConstant, zap.String(logFieldReportPathConstant, reportPath), zap.Error(writeError))
		return
	}
	application.logger.Info(reportWrittenMessageConstant, zap.String(logFieldReportPathConstant, reportPath))
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	if rootCommand := command.Root(); rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet != nil && flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
