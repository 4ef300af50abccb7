package report

import (
	"sync"

	"github.com/temirov/rstfmt-action/internal/execshell"
)

// CommandEntry describes one executed command.
type CommandEntry struct {
	Command          string `yaml:"command"`
	WorkingDirectory string `yaml:"working_directory,omitempty"`
	ExitCode         int    `yaml:"exit_code"`
	Failed           bool   `yaml:"failed"`
	Error            string `yaml:"error,omitempty"`
}

// CommandLedger is an execshell.CommandEventObserver that keeps every finished command in order.
type CommandLedger struct {
	mutex   sync.Mutex
	entries []CommandEntry
}

// NewCommandLedger constructs an empty ledger.
func NewCommandLedger() *CommandLedger {
	return &CommandLedger{}
}

// CommandStarted is a no-op; entries are recorded once the outcome is known.
func (ledger *CommandLedger) CommandStarted(execshell.ShellCommand) {}

// CommandCompleted records the command with its exit code.
func (ledger *CommandLedger) CommandCompleted(command execshell.ShellCommand, result execshell.ExecutionResult) {
	ledger.append(CommandEntry{
		Command:          command.String(),
		WorkingDirectory: command.Details.WorkingDirectory,
		ExitCode:         result.ExitCode,
		Failed:           result.Failed(),
	})
}

// CommandExecutionFailed records a command that could not be run.
func (ledger *CommandLedger) CommandExecutionFailed(command execshell.ShellCommand, failure error) {
	entry := CommandEntry{
		Command:          command.String(),
		WorkingDirectory: command.Details.WorkingDirectory,
		ExitCode:         -1,
		Failed:           true,
	}
	if failure != nil {
		entry.Error = failure.Error()
	}
	ledger.append(entry)
}

// Entries returns a copy of the recorded commands.
func (ledger *CommandLedger) Entries() []CommandEntry {
	ledger.mutex.Lock()
	defer ledger.mutex.Unlock()
	return append([]CommandEntry{}, ledger.entries...)
}

func (ledger *CommandLedger) append(entry CommandEntry) {
	ledger.mutex.Lock()
	defer ledger.mutex.Unlock()
	ledger.entries = append(ledger.entries, entry)
}
