// Package raw reads LOG_* style settings before the logger exists.
// It must not import the logger or config packages.
package raw

import (
	"os"
	"strconv"
	"strings"
)

// Env is a prefixed view over the process environment
type Env struct{ prefix string }

// New returns an unprefixed view
func New() Env { return Env{} }

// Prefix returns a view that prepends p to every key
func (e Env) Prefix(p string) Env { return Env{prefix: e.prefix + p} }

func (e Env) lookup(key string) string {
	return strings.TrimSpace(os.Getenv(e.prefix + key))
}

// Str returns the trimmed value or def when unset or blank
func (e Env) Str(key, def string) string {
	if v := e.lookup(key); v != "" {
		return v
	}
	return def
}

// Lower is Str folded to lower case
func (e Env) Lower(key, def string) string { return strings.ToLower(e.Str(key, def)) }

// Flag parses a boolean; unparsable values fall back to def
func (e Env) Flag(key string, def bool) bool {
	v := e.lookup(key)
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Count parses a non-negative integer; negative or unparsable values fall back to def
func (e Env) Count(key string, def int) int {
	v := e.lookup(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
