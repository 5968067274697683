package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestDataValidationErrorNamesRecord(t *testing.T) {
	err := &DataValidationError{Record: `consignment "C7"`, Field: "release_time", Reason: "missing"}

	msg := err.Error()
	if !strings.Contains(msg, `consignment "C7"`) || !strings.Contains(msg, "release_time") {
		t.Fatalf("message must name record and field, got %q", msg)
	}

	var ve *DataValidationError
	wrapped := fmt.Errorf("normalize consignments: %w", err)
	if !errors.As(wrapped, &ve) {
		t.Fatalf("errors.As failed to match DataValidationError through wrapping")
	}
}

func TestSolverErrorUnwrap(t *testing.T) {
	cause := errors.New("singular basis")
	err := &SolverError{Op: "solve", Err: cause}

	if !errors.Is(err, cause) {
		t.Fatalf("SolverError must unwrap to its cause")
	}
}

func TestModelConstructionErrorListsConsignments(t *testing.T) {
	err := &ModelConstructionError{Reason: "no candidate truck", ConsignmentIDs: []string{"C1", "C9"}}
	msg := err.Error()
	if !strings.Contains(msg, "C1") || !strings.Contains(msg, "C9") {
		t.Fatalf("message must list offending consignments, got %q", msg)
	}
}
