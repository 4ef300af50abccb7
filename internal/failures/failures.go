package failures

import (
	"errors"
	"fmt"
)

const (
	phaseFailureTemplateConstant         = "%s failed: %v"
	phaseFailureWithPathTemplateConstant = "%s failed for %s: %v"
	unknownCauseMessageConstant          = "unknown cause"
)

// Phase names the pipeline stage in which a failure occurred.
type Phase string

// Pipeline phases that can abort a run.
const (
	PhaseBootstrap  Phase = Phase("bootstrap")
	PhaseDiscovery  Phase = Phase("discovery")
	PhaseFileAccess Phase = Phase("file access")
	PhaseFormatting Phase = Phase("formatting")
	PhaseStaging    Phase = Phase("staging")
	PhaseCommit     Phase = Phase("commit")
	PhasePush       Phase = Phase("push")
)

// PhaseFailure is implemented by every error in this package.
type PhaseFailure interface {
	error
	Phase() Phase
}

// BootstrapError indicates the formatter could not be provisioned or located.
type BootstrapError struct {
	Cause error
}

func (failure BootstrapError) Error() string { return describe(PhaseBootstrap, "", failure.Cause) }
func (failure BootstrapError) Unwrap() error { return failure.Cause }

// Phase reports PhaseBootstrap.
func (failure BootstrapError) Phase() Phase { return PhaseBootstrap }

// DiscoveryError indicates the file pattern could not be expanded.
type DiscoveryError struct {
	Pattern string
	Cause   error
}

func (failure DiscoveryError) Error() string { return describe(PhaseDiscovery, failure.Pattern, failure.Cause) }
func (failure DiscoveryError) Unwrap() error { return failure.Cause }

// Phase reports PhaseDiscovery.
func (failure DiscoveryError) Phase() Phase { return PhaseDiscovery }

// FileAccessError indicates a selected file could not be read or replaced.
type FileAccessError struct {
	Path  string
	Cause error
}

func (failure FileAccessError) Error() string { return describe(PhaseFileAccess, failure.Path, failure.Cause) }
func (failure FileAccessError) Unwrap() error { return failure.Cause }

// Phase reports PhaseFileAccess.
func (failure FileAccessError) Phase() Phase { return PhaseFileAccess }

// FormatExecutionError indicates the formatter exited with a non-zero status for Path.
type FormatExecutionError struct {
	Path  string
	Cause error
}

func (failure FormatExecutionError) Error() string { return describe(PhaseFormatting, failure.Path, failure.Cause) }
func (failure FormatExecutionError) Unwrap() error { return failure.Cause }

// Phase reports PhaseFormatting.
func (failure FormatExecutionError) Phase() Phase { return PhaseFormatting }

// StagingError indicates a changed file could not be added to the index.
type StagingError struct {
	Path  string
	Cause error
}

func (failure StagingError) Error() string { return describe(PhaseStaging, failure.Path, failure.Cause) }
func (failure StagingError) Unwrap() error { return failure.Cause }

// Phase reports PhaseStaging.
func (failure StagingError) Phase() Phase { return PhaseStaging }

// CommitError indicates identity configuration, status inspection, or the commit itself failed.
type CommitError struct {
	Cause error
}

func (failure CommitError) Error() string { return describe(PhaseCommit, "", failure.Cause) }
func (failure CommitError) Unwrap() error { return failure.Cause }

// Phase reports PhaseCommit.
func (failure CommitError) Phase() Phase { return PhaseCommit }

// PushError indicates the local commit could not be pushed; the commit is left in place.
type PushError struct {
	Cause error
}

func (failure PushError) Error() string { return describe(PhasePush, "", failure.Cause) }
func (failure PushError) Unwrap() error { return failure.Cause }

// Phase reports PhasePush.
func (failure PushError) Phase() Phase { return PhasePush }

// PhaseOf extracts the phase of the first PhaseFailure in the error chain.
func PhaseOf(err error) (Phase, bool) {
	var phaseFailure PhaseFailure
	if errors.As(err, &phaseFailure) {
		return phaseFailure.Phase(), true
	}
	return "", false
}

func describe(phase Phase, subject string, cause error) string {
	var causeDescription any = unknownCauseMessageConstant
	if cause != nil {
		causeDescription = cause
	}
	if len(subject) == 0 {
		return fmt.Sprintf(phaseFailureTemplateConstant, phase, causeDescription)
	}
	return fmt.Sprintf(phaseFailureWithPathTemplateConstant, phase, subject, causeDescription)
}
