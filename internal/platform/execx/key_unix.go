//go:build !windows

package execx

func sameKey(a, b string) bool { return a == b }
