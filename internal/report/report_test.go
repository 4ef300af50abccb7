package report_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/rstfmt-action/internal/changes"
	"github.com/temirov/rstfmt-action/internal/committer"
	"github.com/temirov/rstfmt-action/internal/execshell"
	"github.com/temirov/rstfmt-action/internal/failures"
	"github.com/temirov/rstfmt-action/internal/pipeline"
	"github.com/temirov/rstfmt-action/internal/report"
)

const testRunIdentifierConstant = "V1StGXR8_Z5jdHi6B-myT"

func TestCommandLedgerRecordsFinishedCommands(testInstance *testing.T) {
	ledger := report.NewCommandLedger()
	addCommand := execshell.ShellCommand{Name: execshell.CommandGit, Details: execshell.CommandDetails{Arguments: []string{"add", "--", "a.rst"}, WorkingDirectory: "/workspace"}}
	pushCommand := execshell.ShellCommand{Name: execshell.CommandGit, Details: execshell.CommandDetails{Arguments: []string{"push"}}}
	missingCommand := execshell.ShellCommand{Name: "rstfmt", Details: execshell.CommandDetails{Arguments: []string{"a.rst"}}}

	ledger.CommandStarted(addCommand)
	ledger.CommandCompleted(addCommand, execshell.ExecutionResult{})
	ledger.CommandStarted(pushCommand)
	ledger.CommandCompleted(pushCommand, execshell.ExecutionResult{ExitCode: 128})
	ledger.CommandStarted(missingCommand)
	ledger.CommandExecutionFailed(missingCommand, errors.New("executable file not found in $PATH"))

	require.Equal(testInstance, []report.CommandEntry{
		{Command: "git add -- a.rst", WorkingDirectory: "/workspace", ExitCode: 0, Failed: false},
		{Command: "git push", ExitCode: 128, Failed: true},
		{Command: "rstfmt a.rst", ExitCode: -1, Failed: true, Error: "executable file not found in $PATH"},
	}, ledger.Entries())
}

func TestNewDocumentDescribesFailedRun(testInstance *testing.T) {
	startedAt := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	configuration := pipeline.DefaultConfiguration()

	document := report.NewDocument(report.Run{
		RunID:         testRunIdentifierConstant,
		StartedAt:     startedAt,
		FinishedAt:    startedAt.Add(2 * time.Second),
		Configuration: configuration,
		Summary: pipeline.Summary{
			State:         pipeline.StateFailed,
			SelectedFiles: []string{"a.rst", "b.rst", "c.rst"},
			ChangeSet:     changes.NewChangeSet("a.rst"),
		},
		Failure: failures.FormatExecutionError{Path: "b.rst", Cause: errors.New("exit status 1")},
	})

	require.Equal(testInstance, testRunIdentifierConstant, document.RunID)
	require.Equal(testInstance, "**/*.rst", document.Pattern)
	require.True(testInstance, document.CommitEnabled)
	require.Equal(testInstance, "failed", document.State)
	require.Empty(testInstance, document.Outcome)
	require.Equal(testInstance, []string{"a.rst"}, document.ChangedFiles)
	require.NotNil(testInstance, document.Failure)
	require.Equal(testInstance, "formatting", document.Failure.Phase)
	require.Equal(testInstance, "formatting failed for b.rst: exit status 1", document.Failure.Message)
}

func TestWriterWritesYAMLDocument(testInstance *testing.T) {
	reportPath := filepath.Join(testInstance.TempDir(), "reports", "rstfmt.yaml")
	document := report.NewDocument(report.Run{
		RunID:         testRunIdentifierConstant,
		Configuration: pipeline.DefaultConfiguration(),
		Summary: pipeline.Summary{
			State:         pipeline.StateDone,
			SelectedFiles: []string{"a.rst"},
			ChangeSet:     changes.NewChangeSet("a.rst"),
			Outcome:       committer.OutcomeCommitted,
		},
		Commands: []report.CommandEntry{{Command: "git push"}},
	})

	require.NoError(testInstance, report.NewWriter().Write(reportPath, document))

	content, readError := os.ReadFile(reportPath)
	require.NoError(testInstance, readError)

	var decoded map[string]any
	require.NoError(testInstance, yaml.Unmarshal(content, &decoded))
	require.Equal(testInstance, testRunIdentifierConstant, decoded["run_id"])
	require.Equal(testInstance, "done", decoded["state"])
	require.Equal(testInstance, "committed", decoded["outcome"])
	require.Equal(testInstance, []any{"a.rst"}, decoded["changed_files"])
	require.NotContains(testInstance, decoded, "failure")

	require.NoError(testInstance, report.NewWriter().Write(reportPath, report.Document{RunID: "second"}))
	rewrittenContent, rereadError := os.ReadFile(reportPath)
	require.NoError(testInstance, rereadError)
	require.Contains(testInstance, string(rewrittenContent), "run_id: second")
}

func TestWriterRequiresPath(testInstance *testing.T) {
	require.ErrorIs(testInstance, report.NewWriter().Write("  ", report.Document{}), report.ErrReportPathRequired)
}
