package formatting

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// FilePlaceholder is replaced by the target path in formatter arguments.
	FilePlaceholder = "{file}"

	defaultFormatterCommandConstant       = "rstfmt"
	formatterCommandRequiredConstant      = "formatter command must be provided"
	unsupportedOutputModeTemplateConstant = "unsupported formatter mode %q"
)

// ErrFormatterCommandRequired indicates the formatter command was empty.
var ErrFormatterCommandRequired = errors.New(formatterCommandRequiredConstant)

// OutputMode selects how the formatter delivers its result.
type OutputMode string

// Supported output modes.
const (
	// OutputModeStandardOutput captures the formatted content from standard output and replaces the file atomically.
	OutputModeStandardOutput OutputMode = OutputMode("stdout")
	// OutputModeInPlace lets the formatter rewrite the file itself.
	OutputModeInPlace        OutputMode = OutputMode("in-place")
)

// FormatterConfiguration describes the external formatter invocation.
type FormatterConfiguration struct {
	Command   string     `mapstructure:"command" yaml:"command"`
	Arguments []string   `mapstructure:"arguments" yaml:"arguments"`
	Mode      OutputMode `mapstructure:"mode" yaml:"mode"`
}

// DefaultFormatterConfiguration runs rstfmt and captures its standard output.
func DefaultFormatterConfiguration() FormatterConfiguration {
	return FormatterConfiguration{
		Command: defaultFormatterCommandConstant,
		Mode:    OutputModeStandardOutput,
	}
}

// Sanitize trims values and applies the default mode.
func (configuration FormatterConfiguration) Sanitize() FormatterConfiguration {
	sanitized := configuration
	sanitized.Command = strings.TrimSpace(configuration.Command)
	sanitized.Mode = OutputMode(strings.ToLower(strings.TrimSpace(string(configuration.Mode))))
	if len(sanitized.Mode) == 0 {
		sanitized.Mode = OutputModeStandardOutput
	}
	return sanitized
}

// Validate reports configuration errors.
func (configuration FormatterConfiguration) Validate() error {
	if len(strings.TrimSpace(configuration.Command)) == 0 {
		return ErrFormatterCommandRequired
	}
	switch configuration.Mode {
	case OutputModeStandardOutput, OutputModeInPlace:
		return nil
	default:
		return fmt.Errorf(unsupportedOutputModeTemplateConstant, configuration.Mode)
	}
}

// BuildArguments expands FilePlaceholder with path, appending path when no placeholder is present.
func (configuration FormatterConfiguration) BuildArguments(path string) []string {
	arguments := make([]string, 0, len(configuration.Arguments)+1)
	placeholderFound := false
	for _, argument := range configuration.Arguments {
		if strings.Contains(argument, FilePlaceholder) {
			placeholderFound = true
			argument = strings.ReplaceAll(argument, FilePlaceholder, path)
		}
		arguments = append(arguments, argument)
	}
	if !placeholderFound {
		arguments = append(arguments, path)
	}
	return arguments
}
