// Package run holds the run lifecycle rules. It is pure: stores and services
// consult it before writing a status change.
package run

import (
	"fmt"
	"slices"

	"github.com/target/harvester-api/internal/domain/model"
	apperrors "github.com/target/harvester-api/internal/errors"
)

// TriggerMessage is reported to callers after a successful trigger.
const TriggerMessage = "Run triggered successfully"

// edges lists the transitions of the lifecycle graph.
// failure → running is the retry path.
var edges = map[model.RunStatus][]model.RunStatus{ //nolint:gochecknoglobals // read-only transition table
	model.RunStatusQueued:  {model.RunStatusRunning},
	model.RunStatusRunning: {model.RunStatusSuccess, model.RunStatusFailure},
	model.RunStatusFailure: {model.RunStatusRunning},
	model.RunStatusSuccess: nil,
}

// triggerable are the states Trigger may start from.
var triggerable = []model.RunStatus{model.RunStatusQueued, model.RunStatusFailure} //nolint:gochecknoglobals // read-only

// TriggerableStates returns a copy of the states from which Trigger is allowed.
func TriggerableStates() []model.RunStatus {
	return slices.Clone(triggerable)
}

// CanTrigger reports whether a run in status may be moved to running by Trigger.
func CanTrigger(status model.RunStatus) bool {
	return slices.Contains(triggerable, status)
}

// CanTransition reports whether from → to is an edge of the lifecycle graph.
// Run updates may still set any status; callers use this to flag the ones
// that skip the lifecycle.
func CanTransition(from, to model.RunStatus) bool {
	return slices.Contains(edges[from], to)
}

// CheckTrigger returns an InvalidTransition error when status cannot be triggered.
func CheckTrigger(status model.RunStatus) error {
	if CanTrigger(status) {
		return nil
	}
	return apperrors.InvalidTransition(
		fmt.Sprintf("run cannot be triggered from status %q", status),
	)
}
