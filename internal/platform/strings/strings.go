// Package strings provides string helpers shared by the pipeline and the ledger
package strings

import (
	std "strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// pool of fresh transformer chains; decompose, drop marks, fold width, recompose
var foldPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKD,
			runes.Remove(runes.In(unicode.Mn)),
			runes.Remove(runes.In(unicode.Cf)),
			width.Fold,
			norm.NFC,
		)
	},
}

// Slug turns a free-form site label into a token safe for directory and
// GRASS location names: accents are stripped and any run of characters other
// than ASCII letters, digits and hyphens collapses to one underscore
// Returns def when nothing usable remains
func Slug(s, def string) string {
	s = std.ToValidUTF8(s, "")
	tr := foldPool.Get().(transform.Transformer)
	folded, _, err := transform.String(tr, s)
	tr.Reset()
	foldPool.Put(tr)
	if err != nil {
		folded = s
	}

	var b std.Builder
	b.Grow(len(folded))
	pending := false
	for _, r := range folded {
		switch {
		case r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
		case r == '-' && b.Len() > 0 && !pending:
			b.WriteRune(r)
		default:
			pending = true
		}
	}
	out := std.TrimRight(b.String(), "-")
	if out == "" {
		return def
	}
	return out
}

// Truncate shortens s to at most n runes, appending "..." when cut
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}

// SQLNull returns nil for a blank s so the column stores NULL
func SQLNull(s string) any {
	if std.TrimSpace(s) == "" {
		return nil
	}
	return s
}
