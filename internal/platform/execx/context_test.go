package execx

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestContextWithIsCopyOnWrite(t *testing.T) {
	base := Context{Env: []string{"A=1", "PATH=/usr/bin"}}
	next := base.With("A", "2").With("B", "3")

	if base.Get("A") != "1" || base.Get("B") != "" {
		t.Fatalf("base mutated: %v", base.Env)
	}
	if next.Get("A") != "2" || next.Get("B") != "3" {
		t.Fatalf("With mismatch: %v", next.Env)
	}
	if len(next.Env) != 3 {
		t.Fatalf("replace should not duplicate keys: %v", next.Env)
	}
}

func TestPrependPath(t *testing.T) {
	sep := string(filepath.ListSeparator)
	c := Context{Env: []string{"PATH=/usr/bin"}}.PrependPath("/opt/grass/bin", "", "/opt/grass/scripts")

	want := strings.Join([]string{"/opt/grass/bin", "/opt/grass/scripts", "/usr/bin"}, sep)
	if got := c.Get("PATH"); got != want {
		t.Fatalf("PATH = %q, want %q", got, want)
	}

	empty := Context{}.PrependPath("/x")
	if got := empty.Get("PATH"); got != "/x" {
		t.Fatalf("PATH on empty env = %q", got)
	}
	if same := (Context{Env: []string{"PATH=/a"}}).PrependPath("", " "); same.Get("PATH") != "/a" {
		t.Fatalf("blank dirs should be ignored")
	}
}

func TestTimeoutAndDir(t *testing.T) {
	c := FromEnviron().WithTimeout(time.Minute).WithDir("/tmp")
	if c.Timeout != time.Minute || c.Dir != "/tmp" {
		t.Fatalf("WithTimeout/WithDir mismatch: %+v", c)
	}
}

func TestCommandStringTruncates(t *testing.T) {
	long := Command{Name: "r.mapcalc", Args: []string{"expression=" + strings.Repeat("x", 300)}}
	s := long.String()
	if !strings.HasSuffix(s, "...") || len([]rune(s)) != displayLimit+3 {
		t.Fatalf("display not truncated: %d runes", len([]rune(s)))
	}
	if got := (Command{Name: "g.region", Args: []string{"raster=dem"}}).String(); got != "g.region raster=dem" {
		t.Fatalf("String = %q", got)
	}
}
