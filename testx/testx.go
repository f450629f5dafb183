// Package testx provides deep-diff test assertions used across the
// library's own tests and exposed for consumers.
package testx

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Diff returns a human-readable diff between want and got, or the empty
// string when they are deeply equal.
func Diff(want, got any, opts ...cmp.Option) string {
	return cmp.Diff(want, got, opts...)
}

// AssertEqual fails the test with the full diff when want and got differ.
func AssertEqual(t testing.TB, want, got any, opts ...cmp.Option) {
	t.Helper()
	if diff := cmp.Diff(want, got, opts...); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

// AssertEqualIgnoreOrder compares two slices of elements ignoring their
// order. less must provide a total order over the element type.
func AssertEqualIgnoreOrder[T any](t testing.TB, want, got []T, less func(a, b T) bool, opts ...cmp.Option) {
	t.Helper()
	opts = append(opts, cmpopts.SortSlices(less))
	if diff := cmp.Diff(want, got, opts...); diff != "" {
		t.Fatalf("mismatch ignoring order (-want +got):\n%s", diff)
	}
}
