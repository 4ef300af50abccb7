package formatting

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/rstfmt-action/internal/execshell"
	"github.com/temirov/rstfmt-action/internal/failures"
)

const (
	executorMissingMessageConstant   = "command executor not configured"
	fileSystemMissingMessageConstant = "file system not configured"
	recorderMissingMessageConstant   = "change recorder not configured"
	fileFormattedMessageConstant     = "Formatted file"
	fileUnchangedMessageConstant     = "File already formatted"
	logFieldPathConstant             = "path"
	logFieldChangedConstant          = "changed"
	logFieldBytesBeforeConstant      = "bytes_before"
	logFieldBytesAfterConstant       = "bytes_after"
)

// ErrExecutorNotConfigured indicates the pipeline was created without a command executor.
var ErrExecutorNotConfigured = errors.New(executorMissingMessageConstant)

// ErrFileSystemNotConfigured indicates the pipeline was created without a file system.
var ErrFileSystemNotConfigured = errors.New(fileSystemMissingMessageConstant)

// ErrRecorderNotConfigured indicates the pipeline was created without a change recorder.
var ErrRecorderNotConfigured = errors.New(recorderMissingMessageConstant)

// CommandExecutor runs the formatter.
type CommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

// FileSystem reads files and atomically replaces their contents.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	ReplaceFile(path string, data []byte) error
}

// ChangeRecorder receives every path whose content changed.
type ChangeRecorder interface {
	Record(executionContext context.Context, path string) error
}

// FileRecord captures a file's content around a single formatter invocation.
type FileRecord struct {
	Path          string
	ContentBefore []byte
	ContentAfter  []byte
}

// Changed reports whether the formatter altered the file, comparing bytes exactly.
func (record FileRecord) Changed() bool {
	return !bytes.Equal(record.ContentBefore, record.ContentAfter)
}

// FileOutcome is the part of a FileRecord retained after formatting.
type FileOutcome struct {
	Path    string
	Changed bool
}

// Dependencies enumerates the collaborators a Pipeline requires.
type Dependencies struct {
	Logger     *zap.Logger
	Executor   CommandExecutor
	FileSystem FileSystem
	Recorder   ChangeRecorder
}

// Options configures a Pipeline.
type Options struct {
	// WorkingDirectory resolves relative paths and is the formatter's working directory.
	WorkingDirectory string
	Formatter        FormatterConfiguration
}

// Pipeline formats files sequentially and reports changed ones to its ChangeRecorder.
type Pipeline struct {
	logger     *zap.Logger
	executor   CommandExecutor
	fileSystem FileSystem
	recorder   ChangeRecorder
	options    Options
}

// NewPipeline validates dependencies and options and constructs a Pipeline.
func NewPipeline(dependencies Dependencies, options Options) (*Pipeline, error) {
	if dependencies.Executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if dependencies.FileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	if dependencies.Recorder == nil {
		return nil, ErrRecorderNotConfigured
	}

	options.Formatter = options.Formatter.Sanitize()
	if validationError := options.Formatter.Validate(); validationError != nil {
		return nil, validationError
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pipeline{
		logger:     logger,
		executor:   dependencies.Executor,
		fileSystem: dependencies.FileSystem,
		recorder:   dependencies.Recorder,
		options:    options,
	}, nil
}

// Run formats paths in order, stopping at the first failure.
// The outcomes of files processed before the failure are returned alongside the error.
func (pipeline *Pipeline) Run(executionContext context.Context, paths []string) ([]FileOutcome, error) {
	outcomes := make([]FileOutcome, 0, len(paths))
	for _, path := range paths {
		if contextError := executionContext.Err(); contextError != nil {
			return outcomes, contextError
		}

		record, formatError := pipeline.FormatFile(executionContext, path)
		if formatError != nil {
			return outcomes, formatError
		}

		outcome := FileOutcome{Path: record.Path, Changed: record.Changed()}
		if outcome.Changed {
			if recordError := pipeline.recorder.Record(executionContext, outcome.Path); recordError != nil {
				return outcomes, recordError
			}
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// FormatFile runs the formatter once against path and returns the content before and after.
func (pipeline *Pipeline) FormatFile(executionContext context.Context, path string) (FileRecord, error) {
	record := FileRecord{Path: path}
	absolutePath := pipeline.resolvePath(path)

	contentBefore, readBeforeError := pipeline.fileSystem.ReadFile(absolutePath)
	if readBeforeError != nil {
		return record, failures.FileAccessError{Path: path, Cause: readBeforeError}
	}
	record.ContentBefore = contentBefore

	executionResult, executionError := pipeline.executor.Execute(executionContext, execshell.ShellCommand{
		Name: execshell.CommandName(pipeline.options.Formatter.Command),
		Details: execshell.CommandDetails{
			Arguments:        pipeline.options.Formatter.BuildArguments(path),
			WorkingDirectory: pipeline.options.WorkingDirectory,
			Silent:           true,
		},
	})
	if executionError != nil {
		return record, failures.FormatExecutionError{Path: path, Cause: executionError}
	}

	if pipeline.options.Formatter.Mode == OutputModeStandardOutput {
		formattedContent := []byte(executionResult.StandardOutput)
		if !bytes.Equal(formattedContent, contentBefore) {
			if replaceError := pipeline.fileSystem.ReplaceFile(absolutePath, formattedContent); replaceError != nil {
				return record, failures.FileAccessError{Path: path, Cause: replaceError}
			}
		}
	}

	contentAfter, readAfterError := pipeline.fileSystem.ReadFile(absolutePath)
	if readAfterError != nil {
		return record, failures.FileAccessError{Path: path, Cause: readAfterError}
	}
	record.ContentAfter = contentAfter

	logMessage := fileUnchangedMessageConstant
	if record.Changed() {
		logMessage = fileFormattedMessageConstant
	}
	pipeline.logger.Debug(
		logMessage,
		zap.String(logFieldPathConstant, path),
		zap.Bool(logFieldChangedConstant, record.Changed()),
		zap.Int(logFieldBytesBeforeConstant, len(contentBefore)),
		zap.Int(logFieldBytesAfterConstant, len(contentAfter)),
	)

	return record, nil
}

func (pipeline *Pipeline) resolvePath(path string) string {
	localPath := filepath.FromSlash(path)
	if filepath.IsAbs(localPath) || len(pipeline.options.WorkingDirectory) == 0 {
		return localPath
	}
	return filepath.Join(pipeline.options.WorkingDirectory, localPath)
}
