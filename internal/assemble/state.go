// SPDX-License-Identifier: MPL-2.0

package assemble

import "fmt"

// State is a point in the run sequence.
type State int

const (
	StateStart State = iota
	StateStageDirectoriesCreated
	StateManifestSeeded
	StateFilesClassifiedAndMerged
	StateManifestSaved
	StateArchiverInvoked
	StateArtifactsCollected
	StateDone
	StateFailed
)

// StepError reports the failure of a run. State is the last state the run
// reached before the failing step.
type StepError struct {
	State State
	Err   error
}

func (s State) String() string {
	switch s {
	case StateStart:
		return "Start"
	case StateStageDirectoriesCreated:
		return "StageDirectoriesCreated"
	case StateManifestSeeded:
		return "ManifestSeeded"
	case StateFilesClassifiedAndMerged:
		return "FilesClassifiedAndMerged"
	case StateManifestSaved:
		return "ManifestSaved"
	case StateArchiverInvoked:
		return "ArchiverInvoked"
	case StateArtifactsCollected:
		return "ArtifactsCollected"
	case StateDone:
		return "Done"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("packaging failed after %s: %v", e.State, e.Err)
}

// Unwrap returns the underlying failure.
func (e *StepError) Unwrap() error { return e.Err }
