package config

import (
	"testing"
	"time"

	"hydroflow/internal/platform/testkit"

	"github.com/google/go-cmp/cmp"
)

func TestPrefixNests(t *testing.T) {
	nested := New().Prefix("HYDRO_").Prefix("LEDGER_")
	if got := nested.key("DBURL"); got != "HYDRO_LEDGER_DBURL" {
		t.Fatalf("key = %q", got)
	}
}

func TestMayScalars(t *testing.T) {
	c := New().Prefix("HF_CFG_")
	t.Setenv("HF_CFG_NAME", "  hydroflow ")
	t.Setenv("HF_CFG_INT", " 4 ")
	t.Setenv("HF_CFG_BADINT", "four")
	t.Setenv("HF_CFG_B", "true")
	t.Setenv("HF_CFG_BADB", "sometimes")
	t.Setenv("HF_CFG_D", "90s")
	t.Setenv("HF_CFG_BADD", "soon")

	if got := c.MayString("NAME", "x"); got != "hydroflow" {
		t.Fatalf("MayString = %q", got)
	}
	if got := c.MayString("MISS", "def"); got != "def" {
		t.Fatalf("MayString default = %q", got)
	}
	if c.MayInt("INT", 1) != 4 || c.MayInt("BADINT", 1) != 1 || c.MayInt("MISS", 7) != 7 {
		t.Fatalf("MayInt mismatch")
	}
	if !c.MayBool("B", false) || !c.MayBool("BADB", true) || c.MayBool("MISS", false) {
		t.Fatalf("MayBool mismatch")
	}
	if c.MayDuration("D", time.Second) != 90*time.Second || c.MayDuration("BADD", time.Second) != time.Second {
		t.Fatalf("MayDuration mismatch")
	}
}

func TestMayCSV(t *testing.T) {
	c := New().Prefix("HF_CFG_")
	t.Setenv("HF_CFG_ORIGINS", " http://a.test , ,http://b.test,")
	t.Setenv("HF_CFG_BLANK", " , ")

	if diff := cmp.Diff([]string{"http://a.test", "http://b.test"}, c.MayCSV("ORIGINS", nil)); diff != "" {
		t.Fatalf("MayCSV (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"*"}, c.MayCSV("BLANK", []string{"*"})); diff != "" {
		t.Fatalf("MayCSV fallback (-want +got):\n%s", diff)
	}
}

func TestMayEnum(t *testing.T) {
	c := New().Prefix("HF_CFG_")
	t.Setenv("HF_CFG_DEM", "cop30")
	t.Setenv("HF_CFG_BAD", "GTOPO")

	if got := c.MayEnum("MISS", "AW3D30", "AW3D30", "COP30"); got != "AW3D30" {
		t.Fatalf("default = %q", got)
	}
	if got := c.MayEnum("DEM", "AW3D30", "AW3D30", "COP30"); got != "cop30" {
		t.Fatalf("allowed value = %q", got)
	}
	testkit.MustPanic(t, func() { _ = c.MayEnum("BAD", "AW3D30", "AW3D30", "COP30") })
}

func TestMayURL(t *testing.T) {
	c := New().Prefix("HF_CFG_")
	t.Setenv("HF_CFG_OK", "https://portal.opentopography.org/API/globaldem")
	t.Setenv("HF_CFG_REL", "/API/globaldem")
	t.Setenv("HF_CFG_FTP", "ftp://mirror.test/dem")

	if got := c.MayURL("OK", ""); got != "https://portal.opentopography.org/API/globaldem" {
		t.Fatalf("MayURL = %q", got)
	}
	if got := c.MayURL("MISS", ""); got != "" {
		t.Fatalf("unset should be empty, got %q", got)
	}
	testkit.MustPanic(t, func() { _ = c.MayURL("REL", "") })
	testkit.MustPanic(t, func() { _ = c.MayURL("FTP", "") })
}
