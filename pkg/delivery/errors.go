package delivery

import (
	"errors"
	"fmt"
)

const (
	ErrorCodeDuplicateStage  = "delivery.duplicate_stage"
	ErrorCodeMissingArtifact = "delivery.missing_artifact"
	ErrorCodeEmptyStage      = "delivery.empty_stage"
)

// Error is a plan consistency failure with a stable code.
type Error struct {
	Code    string
	Stage   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Stage, e.Message)
}

// Validate checks that stage names are unique, that no stage is empty and that every
// consumed artifact is produced by an earlier stage.
func (p Plan) Validate() error {
	var errs []error
	seen := map[string]bool{}
	produced := map[string]bool{}

	for _, stage := range p.Stages {
		if seen[stage.Name] {
			errs = append(errs, &Error{Code: ErrorCodeDuplicateStage, Stage: stage.Name, Message: "stage name is not unique"})
		}
		seen[stage.Name] = true

		if len(stage.Actions) == 0 {
			errs = append(errs, &Error{Code: ErrorCodeEmptyStage, Stage: stage.Name, Message: "stage has no actions"})
		}

		for _, action := range stage.Actions {
			if action.Input != "" && !produced[action.Input] {
				errs = append(errs, &Error{
					Code:    ErrorCodeMissingArtifact,
					Stage:   stage.Name,
					Message: fmt.Sprintf("action %s consumes %s before it is produced", action.Name, action.Input),
				})
			}
		}
		// Outputs become visible to later stages only.
		for _, action := range stage.Actions {
			for _, out := range action.Outputs {
				produced[out] = true
			}
		}
	}
	return errors.Join(errs...)
}
