package testkit

import "testing"

// Swap replaces *target for the rest of the test; the old value comes back on cleanup.
// Used for package-level clocks, build stamps and tool lookups.
func Swap[T any](t *testing.T, target *T, replacement T) {
	t.Helper()
	orig := *target
	*target = replacement
	t.Cleanup(func() { *target = orig })
}
