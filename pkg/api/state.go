package api

import "fmt"

// Stage is a step in the lifecycle of one mock identity within one test.
type Stage string

const (
	StageBuilt       Stage = "built"
	StageSynthesized Stage = "synthesized"
	StageAttached    Stage = "attached"
	StageDispatched  Stage = "dispatched"
	StageAsserted    Stage = "asserted"
)

// stageTransitions lists the only allowed successor of each stage.
// Asserted is terminal.
var stageTransitions = map[Stage]Stage{
	StageBuilt:       StageSynthesized,
	StageSynthesized: StageAttached,
	StageAttached:    StageDispatched,
	StageDispatched:  StageAsserted,
}

// ValidateStageTransition checks whether moving from one stage to another
// is allowed. The lifecycle is strictly linear: no skipping, no re-entry.
func ValidateStageTransition(from, to Stage) *Error {
	next, exists := stageTransitions[from]
	if !exists || next != to {
		return NewStateError(fmt.Sprintf("invalid transition from %s to %s", from, to))
	}
	return nil
}

// Reached reports whether stage s is at or beyond target in the lifecycle.
func (s Stage) Reached(target Stage) bool {
	return s.ordinal() >= target.ordinal()
}

func (s Stage) ordinal() int {
	switch s {
	case StageBuilt:
		return 0
	case StageSynthesized:
		return 1
	case StageAttached:
		return 2
	case StageDispatched:
		return 3
	case StageAsserted:
		return 4
	default:
		return -1
	}
}
