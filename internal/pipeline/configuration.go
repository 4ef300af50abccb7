package pipeline

import (
	"strings"

	"github.com/temirov/rstfmt-action/internal/bootstrap"
	"github.com/temirov/rstfmt-action/internal/formatting"
)

const (
	defaultFilePatternConstant      = "**/*.rst"
	defaultAuthorNameConstant       = "github-actions"
	defaultCommitMessageConstant    = "Apply rstfmt formatting"
	defaultWorkingDirectoryConstant = "."
)

// Configuration describes one run. It is immutable once the run starts.
type Configuration struct {
	FilePattern      string                            `mapstructure:"files" yaml:"files"`
	CommitEnabled    bool                              `mapstructure:"commit" yaml:"commit"`
	AuthorName       string                            `mapstructure:"github-username" yaml:"github-username"`
	CommitMessage    string                            `mapstructure:"commit-message" yaml:"commit-message"`
	WorkingDirectory string                            `mapstructure:"working-directory" yaml:"working-directory"`
	Formatter        formatting.FormatterConfiguration `mapstructure:"formatter" yaml:"formatter"`
	Bootstrap        bootstrap.Configuration           `mapstructure:"bootstrap" yaml:"bootstrap"`
}

// DefaultConfiguration returns the configuration used when nothing is overridden.
func DefaultConfiguration() Configuration {
	return Configuration{
		FilePattern:      defaultFilePatternConstant,
		CommitEnabled:    true,
		AuthorName:       defaultAuthorNameConstant,
		CommitMessage:    defaultCommitMessageConstant,
		WorkingDirectory: defaultWorkingDirectoryConstant,
		Formatter:        formatting.DefaultFormatterConfiguration(),
	}
}

// Sanitize trims string values and restores defaults for values left blank.
func (configuration Configuration) Sanitize() Configuration {
	defaults := DefaultConfiguration()

	sanitized := configuration
	sanitized.FilePattern = valueOrDefault(configuration.FilePattern, defaults.FilePattern)
	sanitized.AuthorName = valueOrDefault(configuration.AuthorName, defaults.AuthorName)
	sanitized.CommitMessage = valueOrDefault(configuration.CommitMessage, defaults.CommitMessage)
	sanitized.WorkingDirectory = valueOrDefault(configuration.WorkingDirectory, defaults.WorkingDirectory)
	sanitized.Formatter = configuration.Formatter.Sanitize()
	sanitized.Formatter.Command = valueOrDefault(sanitized.Formatter.Command, defaults.Formatter.Command)

	installCommands := make([]string, 0, len(configuration.Bootstrap.Install))
	for _, installCommand := range configuration.Bootstrap.Install {
		trimmedInstallCommand := strings.TrimSpace(installCommand)
		if len(trimmedInstallCommand) > 0 {
			installCommands = append(installCommands, trimmedInstallCommand)
		}
	}
	sanitized.Bootstrap.Install = installCommands

	return sanitized
}

func valueOrDefault(value string, defaultValue string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return defaultValue
	}
	return trimmedValue
}
