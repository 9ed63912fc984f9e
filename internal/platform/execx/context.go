// Package execx runs external tools (gdalwarp, gdaltransform, grass) under
// an explicit, immutable execution context instead of the process environment
package execx

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Context is the environment, working directory and wall-clock budget a
// command runs with. Values are copied on every mutation so a Context can be
// shared between goroutines and runs.
type Context struct {
	Env     []string
	Timeout time.Duration
	Dir     string
}

// FromEnviron snapshots the current process environment
func FromEnviron() Context { return Context{Env: os.Environ()} }

// Get returns the value of key, or "" when unset
func (c Context) Get(key string) string {
	if i := c.index(key); i >= 0 {
		_, v, _ := strings.Cut(c.Env[i], "=")
		return v
	}
	return ""
}

func (c Context) index(key string) int {
	for i, kv := range c.Env {
		k, _, ok := strings.Cut(kv, "=")
		if ok && sameKey(k, key) {
			return i
		}
	}
	return -1
}

// With returns a copy with key set to val, replacing any existing entry
func (c Context) With(key, val string) Context {
	env := make([]string, len(c.Env), len(c.Env)+1)
	copy(env, c.Env)
	if i := c.index(key); i >= 0 {
		env[i] = key + "=" + val
	} else {
		env = append(env, key+"="+val)
	}
	c.Env = env
	return c
}

// PrependPath returns a copy whose PATH starts with dirs, in order
// Empty entries are skipped
func (c Context) PrependPath(dirs ...string) Context {
	var parts []string
	for _, d := range dirs {
		if strings.TrimSpace(d) != "" {
			parts = append(parts, d)
		}
	}
	if len(parts) == 0 {
		return c
	}
	if cur := c.Get("PATH"); cur != "" {
		parts = append(parts, cur)
	}
	return c.With("PATH", strings.Join(parts, string(filepath.ListSeparator)))
}

// WithTimeout returns a copy with the given wall-clock budget; zero disables it
func (c Context) WithTimeout(d time.Duration) Context {
	c.Timeout = d
	return c
}

// WithDir returns a copy that runs commands in dir
func (c Context) WithDir(dir string) Context {
	c.Dir = dir
	return c
}
