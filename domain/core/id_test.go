package core

import (
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

// TestParseRunID tests run ID parsing
func TestParseRunID(t *testing.T) {
	tests := []struct {
		input    string
		expected RunID
		hasError bool
	}{
		{"valid-run", RunID("valid-run"), false},
		{"", "", true},
		{"   ", "", true},
	}

	for _, test := range tests {
		result, err := ParseRunID(test.input)
		if test.hasError && err == nil {
			t.Errorf("Expected error for input '%s', but got none", test.input)
		}
		if !test.hasError && err != nil {
			t.Errorf("Unexpected error for input '%s': %v", test.input, err)
		}
		if result != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, result)
		}
	}
}

// TestErrorHelpers tests that wrapped domain errors keep their class
func TestErrorHelpers(t *testing.T) {
	if !IsLookupError(NewUnknownIDError("distance matrix", "x1")) {
		t.Error("Expected unknown id error to be a lookup error")
	}
	if !IsLookupError(NewUnknownCategoryError("x1", "Diet")) {
		t.Error("Expected unknown category error to be a lookup error")
	}
	if !IsSelectionError(NewInsufficientDataError("no subjects")) {
		t.Error("Expected insufficient data error to be a selection error")
	}
	if IsSelectionError(NewInvalidRangeError("depth", "must be positive")) {
		t.Error("Expected invalid range error not to be a selection error")
	}
	if !IsRecoverable(NewOrdinationTimeoutError(3, ErrEmptyCloud)) {
		t.Error("Expected ordination timeout to be recoverable")
	}
}
