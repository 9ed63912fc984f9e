// Package time contains time related helpers
package time

import "time"

// StampLayout is the compact local timestamp used in session names
const StampLayout = "20060102_150405"

// Stamp formats t with StampLayout
func Stamp(t time.Time) string { return t.Format(StampLayout) }

// Ptr returns a pointer to t or nil if t is zero
func Ptr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
