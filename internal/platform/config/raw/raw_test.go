package raw

import "testing"

func TestStrAndLower(t *testing.T) {
	t.Setenv("LOG_LEVEL", "  WARN ")
	t.Setenv("LOG_SERVICE", "")

	e := New().Prefix("LOG_")
	if got := e.Str("LEVEL", "debug"); got != "WARN" {
		t.Fatalf("Str = %q", got)
	}
	if got := e.Lower("LEVEL", "debug"); got != "warn" {
		t.Fatalf("Lower = %q", got)
	}
	if got := e.Str("SERVICE", "hydroflow"); got != "hydroflow" {
		t.Fatalf("blank should use default, got %q", got)
	}
}

func TestFlag(t *testing.T) {
	e := New().Prefix("HYDRO_RAW_")
	cases := []struct {
		val  string
		def  bool
		want bool
	}{
		{"", true, true},
		{"1", false, true},
		{"TRUE", false, true},
		{"yes", false, true},
		{"on", false, true},
		{"0", true, false},
		{"off", true, false},
		{"no", true, false},
		{"maybe", true, true},
	}
	for _, c := range cases {
		t.Run(c.val, func(t *testing.T) {
			t.Setenv("HYDRO_RAW_CALLER", c.val)
			if got := e.Flag("CALLER", c.def); got != c.want {
				t.Fatalf("Flag(%q, %v) = %v, want %v", c.val, c.def, got, c.want)
			}
		})
	}
}

func TestCount(t *testing.T) {
	e := New().Prefix("HYDRO_RAW_")
	cases := map[string]int{
		"":    7,
		"0":   0,
		"12":  12,
		" 3 ": 3,
		"-4":  7,
		"x1":  7,
	}
	for val, want := range cases {
		t.Setenv("HYDRO_RAW_SAMPLE", val)
		if got := e.Count("SAMPLE", 7); got != want {
			t.Fatalf("Count(%q) = %d, want %d", val, got, want)
		}
	}
}
