package domain

import (
	"fmt"
	"strings"
)

// DataValidationError reports a malformed or missing input field, naming the
// offending record. Raised during normalization; a required field is never
// silently substituted with a default.
type DataValidationError struct {
	Record string
	Field  string
	Reason string
}

func (e *DataValidationError) Error() string {
	return fmt.Sprintf("invalid input: %s field %q: %s", e.Record, e.Field, e.Reason)
}

// ModelConstructionError reports an inconsistent selection or a consignment
// that is structurally unservable under the configured policy. Raised before
// any solve attempt.
type ModelConstructionError struct {
	Reason         string
	ConsignmentIDs []string
}

func (e *ModelConstructionError) Error() string {
	if len(e.ConsignmentIDs) == 0 {
		return "model construction: " + e.Reason
	}
	return fmt.Sprintf("model construction: %s: consignments [%s]", e.Reason, strings.Join(e.ConsignmentIDs, ", "))
}

// SolverError reports an engine-level failure (numerical breakdown, contract
// misuse). Fatal; the core never retries it.
type SolverError struct {
	Op  string
	Err error
}

func (e *SolverError) Error() string { return fmt.Sprintf("solver %s: %v", e.Op, e.Err) }

func (e *SolverError) Unwrap() error { return e.Err }

// ExtractionError reports an attempt to read assignments out of a model whose
// status does not carry a solution.
type ExtractionError struct {
	Status SolveStatus
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract assignments: status %q: %s", e.Status, e.Reason)
}
