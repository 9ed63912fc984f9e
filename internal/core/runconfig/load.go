package runconfig

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	perr "hydroflow/internal/platform/errors"
	"hydroflow/internal/platform/logger"

	"gopkg.in/yaml.v3"
)

// envRef matches a whole value of the form ${env:NAME}
var envRef = regexp.MustCompile(`^\$\{env:([A-Za-z_][A-Za-z0-9_]*)}$`)

// LookupFunc resolves an environment variable; os.LookupEnv fits
type LookupFunc func(string) (string, bool)

// LoadFile reads one YAML document into a flat map and resolves ${env:NAME}
// references; an unset variable resolves to ""
// An empty file yields an empty map
func LoadFile(path string, lookup LookupFunc) (map[string]any, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	logger.Named("runconfig").Info().Str("path", abs).Msg("loading configuration")

	b, err := os.ReadFile(abs)
	if err != nil {
		return nil, perr.WithField(perr.Wrapf(err, perr.ErrorCodeConfig, "cannot read configuration file %s", path), path)
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, perr.WithField(perr.Wrapf(err, perr.ErrorCodeConfig, "malformed YAML in %s", path), path)
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for k, v := range raw {
		raw[k] = resolve(v, lookup)
	}
	return raw, nil
}

// resolve replaces exact ${env:NAME} strings; everything else passes through
func resolve(v any, lookup LookupFunc) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	m := envRef.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return v
	}
	val, _ := lookup(m[1])
	logger.Named("runconfig").Debug().Str("var", m[1]).Bool("set", val != "").Msg("resolved env reference")
	return val
}

// IsSet reports whether v counts as present: not nil, not a blank string and
// not an empty collection. Zero numbers and false are present
func IsSet(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(x) != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	}
	return true
}

// Merge takes each key from user unless the user value is not set, in which
// case the default is used
func Merge(user, def map[string]any) map[string]any {
	out := make(map[string]any, len(user)+len(def))
	for k, v := range def {
		out[k] = v
	}
	for k, v := range user {
		if IsSet(v) {
			out[k] = v
		} else if _, ok := def[k]; !ok {
			out[k] = v
		}
	}
	return out
}

// LoadPair loads the defaults and user files, merges them and decodes the result
func LoadPair(userPath, defaultPath string, lookup LookupFunc) (Config, error) {
	def, err := LoadFile(defaultPath, lookup)
	if err != nil {
		return Config{}, err
	}
	user, err := LoadFile(userPath, lookup)
	if err != nil {
		return Config{}, err
	}
	merged := Merge(user, def)
	logger.Named("runconfig").Debug().Int("keys", len(merged)).Msg("configuration merged")
	return Decode(merged)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
