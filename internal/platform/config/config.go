// Package config reads process settings from HYDRO_* environment variables.
// Bad optional values fall back to their defaults with a warning; bad enums and URLs panic at boot.
package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"hydroflow/internal/platform/logger"
)

// Conf is a prefixed view over the environment, e.g. New().Prefix("HYDRO_API_")
type Conf struct{ prefix string }

// New returns the unprefixed view
func New() Conf { return Conf{} }

// Prefix returns a view that prepends p to every key
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) key(k string) string { return c.prefix + k }

func (c Conf) get(key string) string { return strings.TrimSpace(os.Getenv(c.key(key))) }

// parsed reads key through parse; blank means def, a parse error warns and means def
func parsed[T any](c Conf, key string, def T, kind string, parse func(string) (T, error)) T {
	s := c.get(key)
	if s == "" {
		return def
	}
	v, err := parse(s)
	if err != nil {
		logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Interface("default", def).
			Msgf("invalid %s; using default", kind)
		return def
	}
	return v
}

// MayString returns the trimmed value or def
func (c Conf) MayString(key, def string) string {
	if v := c.get(key); v != "" {
		return v
	}
	return def
}

// MayInt parses a base-10 integer
func (c Conf) MayInt(key string, def int) int {
	return parsed(c, key, def, "int", strconv.Atoi)
}

// MayBool parses anything strconv.ParseBool accepts
func (c Conf) MayBool(key string, def bool) bool {
	return parsed(c, key, def, "bool", strconv.ParseBool)
}

// MayDuration parses a Go duration such as "90s" or "10m"
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	return parsed(c, key, def, "duration", time.ParseDuration)
}

// MayCSV splits a comma-separated list, dropping blanks; def when nothing remains
func (c Conf) MayCSV(key string, def []string) []string {
	var out []string
	for _, p := range strings.Split(c.get(key), ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// MayEnum returns the value when it matches one of allowed (case-insensitive) and panics otherwise
func (c Conf) MayEnum(key, def string, allowed ...string) string {
	v := c.MayString(key, def)
	if v == "" {
		return v
	}
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return v
		}
	}
	logger.Get().Panic().Str("key", c.key(key)).Str("value", v).Strs("allowed", allowed).Msg("invalid enum value")
	return ""
}

// MayURL returns def when unset and panics when the value is not an absolute http(s) URL
func (c Conf) MayURL(key, def string) string {
	v := c.MayString(key, def)
	if v == "" {
		return v
	}
	u, err := url.Parse(v)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		logger.Get().Panic().Str("key", c.key(key)).Str("value", v).Msg("invalid absolute URL")
	}
	return v
}
