package formatting_test

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/rstfmt-action/internal/execshell"
	"github.com/temirov/rstfmt-action/internal/failures"
	"github.com/temirov/rstfmt-action/internal/filesystem"
	"github.com/temirov/rstfmt-action/internal/formatting"
)

const testFormatterCommandConstant = "rstfmt"

type memoryFileSystem struct {
	files        map[string][]byte
	replacements []string
}

func newMemoryFileSystem(files map[string]string) *memoryFileSystem {
	storedFiles := make(map[string][]byte, len(files))
	for path, content := range files {
		storedFiles[path] = []byte(content)
	}
	return &memoryFileSystem{files: storedFiles}
}

func (fileSystem *memoryFileSystem) ReadFile(path string) ([]byte, error) {
	content, exists := fileSystem.files[path]
	if !exists {
		return nil, fs.ErrNotExist
	}
	return append([]byte{}, content...), nil
}

func (fileSystem *memoryFileSystem) ReplaceFile(path string, data []byte) error {
	if _, exists := fileSystem.files[path]; !exists {
		return fs.ErrNotExist
	}
	fileSystem.replacements = append(fileSystem.replacements, path)
	fileSystem.files[path] = append([]byte{}, data...)
	return nil
}

// fakeFormatter trims trailing spaces from every line, failing for paths listed in failingPaths.
type fakeFormatter struct {
	fileSystem   *memoryFileSystem
	failingPaths map[string]bool
	inPlace      bool
	invocations  []execshell.ShellCommand
}

func (formatter *fakeFormatter) Execute(_ context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	formatter.invocations = append(formatter.invocations, command)
	path := command.Details.Arguments[len(command.Details.Arguments)-1]
	if formatter.failingPaths[path] {
		result := execshell.ExecutionResult{StandardError: "syntax error", ExitCode: 1}
		return execshell.ExecutionResult{}, execshell.CommandFailedError{Command: command, Result: result}
	}

	content := string(formatter.fileSystem.files[path])
	lines := strings.Split(content, "\n")
	for lineIndex, line := range lines {
		lines[lineIndex] = strings.TrimRight(line, " ")
	}
	formatted := strings.Join(lines, "\n")

	if formatter.inPlace {
		formatter.fileSystem.files[path] = []byte(formatted)
		return execshell.ExecutionResult{}, nil
	}
	return execshell.ExecutionResult{StandardOutput: formatted}, nil
}

type recordingRecorder struct {
	paths []string
}

func (recorder *recordingRecorder) Record(_ context.Context, path string) error {
	recorder.paths = append(recorder.paths, path)
	return nil
}

func newTestPipeline(testInstance *testing.T, formatter *fakeFormatter, recorder *recordingRecorder, mode formatting.OutputMode) *formatting.Pipeline {
	testInstance.Helper()
	pipeline, creationError := formatting.NewPipeline(
		formatting.Dependencies{
			Logger:     zap.NewNop(),
			Executor:   formatter,
			FileSystem: formatter.fileSystem,
			Recorder:   recorder,
		},
		formatting.Options{
			Formatter: formatting.FormatterConfiguration{Command: testFormatterCommandConstant, Mode: mode},
		},
	)
	require.NoError(testInstance, creationError)
	return pipeline
}

func TestPipelineRecordsOnlyChangedFiles(testInstance *testing.T) {
	testCases := []struct {
		name string
		mode formatting.OutputMode
	}{
		{name: "standard_output_mode", mode: formatting.OutputModeStandardOutput},
		{name: "in_place_mode", mode: formatting.OutputModeInPlace},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fileSystem := newMemoryFileSystem(map[string]string{
				"a.txt": "Title   \n=====\n",
				"b.txt": "Clean\n",
			})
			formatter := &fakeFormatter{fileSystem: fileSystem, inPlace: testCase.mode == formatting.OutputModeInPlace}
			recorder := &recordingRecorder{}

			outcomes, runError := newTestPipeline(testInstance, formatter, recorder, testCase.mode).Run(context.Background(), []string{"a.txt", "b.txt"})
			require.NoError(testInstance, runError)

			require.Equal(testInstance, []formatting.FileOutcome{
				{Path: "a.txt", Changed: true},
				{Path: "b.txt", Changed: false},
			}, outcomes)
			require.Equal(testInstance, []string{"a.txt"}, recorder.paths)
			require.Equal(testInstance, "Title\n=====\n", string(fileSystem.files["a.txt"]))
			require.Len(testInstance, formatter.invocations, 2)

			if testCase.mode == formatting.OutputModeStandardOutput {
				require.Equal(testInstance, []string{"a.txt"}, fileSystem.replacements)
			} else {
				require.Empty(testInstance, fileSystem.replacements)
			}
		})
	}
}

func TestPipelineIsIdempotent(testInstance *testing.T) {
	fileSystem := newMemoryFileSystem(map[string]string{
		"one.rst": "a  \nb \n",
		"two.rst": "c\n",
	})
	paths := []string{"one.rst", "two.rst"}

	firstRecorder := &recordingRecorder{}
	_, firstError := newTestPipeline(testInstance, &fakeFormatter{fileSystem: fileSystem}, firstRecorder, formatting.OutputModeStandardOutput).Run(context.Background(), paths)
	require.NoError(testInstance, firstError)
	require.Equal(testInstance, []string{"one.rst"}, firstRecorder.paths)

	secondRecorder := &recordingRecorder{}
	outcomes, secondError := newTestPipeline(testInstance, &fakeFormatter{fileSystem: fileSystem}, secondRecorder, formatting.OutputModeStandardOutput).Run(context.Background(), paths)
	require.NoError(testInstance, secondError)
	for _, outcome := range outcomes {
		require.False(testInstance, outcome.Changed, outcome.Path)
	}
	require.Empty(testInstance, secondRecorder.paths)
}

func TestPipelineAbortsOnFormatterFailure(testInstance *testing.T) {
	fileSystem := newMemoryFileSystem(map[string]string{
		"1.rst": "first  \n",
		"2.rst": "second  \n",
		"3.rst": "third  \n",
	})
	formatter := &fakeFormatter{fileSystem: fileSystem, failingPaths: map[string]bool{"2.rst": true}}
	recorder := &recordingRecorder{}

	outcomes, runError := newTestPipeline(testInstance, formatter, recorder, formatting.OutputModeStandardOutput).Run(context.Background(), []string{"1.rst", "2.rst", "3.rst"})

	var formatFailure failures.FormatExecutionError
	require.ErrorAs(testInstance, runError, &formatFailure)
	require.Equal(testInstance, "2.rst", formatFailure.Path)
	require.Equal(testInstance, []formatting.FileOutcome{{Path: "1.rst", Changed: true}}, outcomes)
	require.Equal(testInstance, []string{"1.rst"}, recorder.paths)
	require.Len(testInstance, formatter.invocations, 2)
	require.Equal(testInstance, "second  \n", string(fileSystem.files["2.rst"]))
	require.Equal(testInstance, "third  \n", string(fileSystem.files["3.rst"]))
}

func TestPipelineReportsMissingFilesBeforeInvokingFormatter(testInstance *testing.T) {
	fileSystem := newMemoryFileSystem(map[string]string{})
	formatter := &fakeFormatter{fileSystem: fileSystem}

	_, runError := newTestPipeline(testInstance, formatter, &recordingRecorder{}, formatting.OutputModeStandardOutput).Run(context.Background(), []string{"gone.rst"})

	var accessFailure failures.FileAccessError
	require.ErrorAs(testInstance, runError, &accessFailure)
	require.Equal(testInstance, "gone.rst", accessFailure.Path)
	require.ErrorIs(testInstance, runError, fs.ErrNotExist)
	require.Empty(testInstance, formatter.invocations)
}

func TestPipelineAcceptsEmptyFiles(testInstance *testing.T) {
	fileSystem := newMemoryFileSystem(map[string]string{"empty.rst": ""})
	recorder := &recordingRecorder{}

	outcomes, runError := newTestPipeline(testInstance, &fakeFormatter{fileSystem: fileSystem}, recorder, formatting.OutputModeStandardOutput).Run(context.Background(), []string{"empty.rst"})
	require.NoError(testInstance, runError)
	require.Equal(testInstance, []formatting.FileOutcome{{Path: "empty.rst", Changed: false}}, outcomes)
	require.Empty(testInstance, recorder.paths)
	require.Empty(testInstance, fileSystem.replacements)
}

func TestPipelineStopsWhenContextIsCancelled(testInstance *testing.T) {
	fileSystem := newMemoryFileSystem(map[string]string{"a.rst": "a\n"})
	formatter := &fakeFormatter{fileSystem: fileSystem}
	cancelledContext, cancel := context.WithCancel(context.Background())
	cancel()

	_, runError := newTestPipeline(testInstance, formatter, &recordingRecorder{}, formatting.OutputModeStandardOutput).Run(cancelledContext, []string{"a.rst"})
	require.ErrorIs(testInstance, runError, context.Canceled)
	require.Empty(testInstance, formatter.invocations)
}

func TestNewPipelineValidation(testInstance *testing.T) {
	fileSystem := newMemoryFileSystem(nil)
	formatter := &fakeFormatter{fileSystem: fileSystem}
	recorder := &recordingRecorder{}
	validFormatter := formatting.DefaultFormatterConfiguration()

	testCases := []struct {
		name          string
		dependencies  formatting.Dependencies
		configuration formatting.FormatterConfiguration
		expectedError error
	}{
		{
			name:          "missing_executor",
			dependencies:  formatting.Dependencies{FileSystem: fileSystem, Recorder: recorder},
			configuration: validFormatter,
			expectedError: formatting.ErrExecutorNotConfigured,
		},
		{
			name:          "missing_file_system",
			dependencies:  formatting.Dependencies{Executor: formatter, Recorder: recorder},
			configuration: validFormatter,
			expectedError: formatting.ErrFileSystemNotConfigured,
		},
		{
			name:          "missing_recorder",
			dependencies:  formatting.Dependencies{Executor: formatter, FileSystem: fileSystem},
			configuration: validFormatter,
			expectedError: formatting.ErrRecorderNotConfigured,
		},
		{
			name:          "missing_command",
			dependencies:  formatting.Dependencies{Executor: formatter, FileSystem: fileSystem, Recorder: recorder},
			configuration: formatting.FormatterConfiguration{Command: "  "},
			expectedError: formatting.ErrFormatterCommandRequired,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			_, creationError := formatting.NewPipeline(testCase.dependencies, formatting.Options{Formatter: testCase.configuration})
			require.ErrorIs(testInstance, creationError, testCase.expectedError)
		})
	}

	_, modeError := formatting.NewPipeline(
		formatting.Dependencies{Executor: formatter, FileSystem: fileSystem, Recorder: recorder},
		formatting.Options{Formatter: formatting.FormatterConfiguration{Command: testFormatterCommandConstant, Mode: "sideways"}},
	)
	require.Error(testInstance, modeError)
}

func TestFormatterConfigurationBuildArguments(testInstance *testing.T) {
	testCases := []struct {
		name              string
		arguments         []string
		expectedArguments []string
	}{
		{name: "appends_path", arguments: nil, expectedArguments: []string{"docs/a.rst"}},
		{name: "appends_after_flags", arguments: []string{"-w", "80"}, expectedArguments: []string{"-w", "80", "docs/a.rst"}},
		{name: "expands_placeholder", arguments: []string{"--input={file}", "-i"}, expectedArguments: []string{"--input=docs/a.rst", "-i"}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			configuration := formatting.FormatterConfiguration{Command: testFormatterCommandConstant, Arguments: testCase.arguments}
			require.Equal(testInstance, testCase.expectedArguments, configuration.BuildArguments("docs/a.rst"))
		})
	}
}

func TestPipelineWithOperatingSystemFormatterKeepsFileOnFailure(testInstance *testing.T) {
	if _, lookupError := exec.LookPath("sh"); lookupError != nil {
		testInstance.Skip("sh is not available")
	}

	workingDirectory := testInstance.TempDir()
	require.NoError(testInstance, os.WriteFile(filepath.Join(workingDirectory, "good.rst"), []byte("lower\n"), 0o644))
	require.NoError(testInstance, os.WriteFile(filepath.Join(workingDirectory, "bad.rst"), []byte("keep me\n"), 0o644))

	shellExecutor, executorError := execshell.NewShellExecutor(zap.NewNop(), execshell.NewOSCommandRunner())
	require.NoError(testInstance, executorError)
	recorder := &recordingRecorder{}

	pipeline, creationError := formatting.NewPipeline(
		formatting.Dependencies{Executor: shellExecutor, FileSystem: filesystem.OSFileSystem{}, Recorder: recorder},
		formatting.Options{
			WorkingDirectory: workingDirectory,
			Formatter: formatting.FormatterConfiguration{
				Command:   "sh",
				Arguments: []string{"-c", `case "$1" in bad.rst) printf partial; exit 2;; esac; tr a-z A-Z < "$1"`, "formatter", formatting.FilePlaceholder},
			},
		},
	)
	require.NoError(testInstance, creationError)

	_, runError := pipeline.Run(context.Background(), []string{"good.rst", "bad.rst"})

	var formatFailure failures.FormatExecutionError
	require.ErrorAs(testInstance, runError, &formatFailure)
	require.Equal(testInstance, "bad.rst", formatFailure.Path)
	var commandFailure execshell.CommandFailedError
	require.True(testInstance, errors.As(runError, &commandFailure))
	require.Equal(testInstance, 2, commandFailure.Result.ExitCode)

	goodContent, goodReadError := os.ReadFile(filepath.Join(workingDirectory, "good.rst"))
	require.NoError(testInstance, goodReadError)
	require.Equal(testInstance, "LOWER\n", string(goodContent))

	badContent, badReadError := os.ReadFile(filepath.Join(workingDirectory, "bad.rst"))
	require.NoError(testInstance, badReadError)
	require.Equal(testInstance, "keep me\n", string(badContent))
	require.Equal(testInstance, []string{"good.rst"}, recorder.paths)
}
