package core

import (
	"errors"
	"fmt"
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestIDIsEmpty tests ID emptiness check
func TestIDIsEmpty(t *testing.T) {
	emptyID := ID("")
	if !emptyID.IsEmpty() {
		t.Error("Expected empty ID to be empty")
	}

	nonEmptyID := ID("not-empty")
	if nonEmptyID.IsEmpty() {
		t.Error("Expected non-empty ID to not be empty")
	}
}

// TestComputeParameterHashOrderIndependent tests that map iteration order never leaks into hashes
func TestComputeParameterHashOrderIndependent(t *testing.T) {
	a := ComputeParameterHash(map[string]interface{}{"num_jurors": 11, "p": 0.6, "attack": true})
	b := ComputeParameterHash(map[string]interface{}{"attack": true, "p": 0.6, "num_jurors": 11})
	if !a.Equals(b) {
		t.Errorf("Expected equal hashes, got %s and %s", a, b)
	}

	c := ComputeParameterHash(map[string]interface{}{"num_jurors": 13, "p": 0.6, "attack": true})
	if a.Equals(c) {
		t.Error("Expected different parameters to produce different hashes")
	}
	if len(a.Short()) != 12 {
		t.Errorf("Expected 12-character short hash, got %q", a.Short())
	}
}

// TestValidationErrorWrapping tests the validation error helpers
func TestValidationErrorWrapping(t *testing.T) {
	err := NewValidationError("honesty", "must be in [0,1]")
	if !IsValidationError(err) {
		t.Errorf("Expected %v to be a validation error", err)
	}
	if !IsValidationError(fmt.Errorf("wrapped: %w", ErrUnknownPayoffType)) {
		t.Error("Expected unknown payoff type to be a validation error")
	}
	if IsValidationError(errors.New("boom")) {
		t.Error("Expected plain error not to be a validation error")
	}
	if !IsDeterminismError(fmt.Errorf("replay: %w", ErrNonDeterministic)) {
		t.Error("Expected wrapped ErrNonDeterministic to be a determinism error")
	}
}
