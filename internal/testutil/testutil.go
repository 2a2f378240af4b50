// Package testutil holds small assertion helpers shared across tests.
package testutil

import "testing"

// AssertEqual fails the test when got differs from want.
func AssertEqual[T comparable](t *testing.T, want, got T) {
	t.Helper()

	if want != got {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

// AssertNoError fails the test when err is non-nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test when err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()

	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
