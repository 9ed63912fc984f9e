package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hydroflow/internal/core/runconfig"
	perr "hydroflow/internal/platform/errors"
	"hydroflow/internal/platform/testkit"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writePair(t *testing.T) (user, defaults string) {
	t.Helper()
	dir := t.TempDir()
	defaults = testkit.WriteFile(t, dir, "default_config.yaml", "NODATA_VALUE: -9999\nEPSG_CIBLE: 32631\nSTREAM_THRESHOLD_KM2: 1\n")
	user = testkit.WriteFile(t, dir, "config.yaml", "LAT: 36.75\nLON: 3.06\nBBOX_SIZE_KM: 10\nSITE_NAME: Alger\nOPENTOPOGRAPHY_API_KEY: secret\n")
	return user, defaults
}

func TestBBox(t *testing.T) {
	out, err := execute(t, "bbox", "--lat", "0", "--lon", "0", "--km", "111")
	if err != nil {
		t.Fatalf("bbox: %v", err)
	}
	if got := strings.TrimSpace(out); got != "-1.000000,-1.000000,1.000000,1.000000" {
		t.Fatalf("bbox = %q", got)
	}
}

func TestBBoxGeoJSON(t *testing.T) {
	out, err := execute(t, "bbox", "--lat", "0", "--lon", "0", "--km", "111", "--geojson")
	if err != nil {
		t.Fatalf("bbox: %v", err)
	}
	var feat struct {
		Type     string    `json:"type"`
		BBox     []float64 `json:"bbox"`
		Geometry struct {
			Type string `json:"type"`
		} `json:"geometry"`
	}
	if err := json.Unmarshal([]byte(out), &feat); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if feat.Type != "Feature" || feat.Geometry.Type != "Polygon" || len(feat.BBox) != 4 {
		t.Fatalf("feature = %+v", feat)
	}
}

func TestBBoxRejects(t *testing.T) {
	if _, err := execute(t, "bbox", "--lat", "0", "--lon", "0"); err == nil {
		t.Fatal("missing --km should fail")
	}
	_, err := execute(t, "bbox", "--lat", "95", "--lon", "0", "--km", "1")
	if e, ok := perr.As(err); !ok || e.Field() != "lat" {
		t.Fatalf("err = %v", err)
	}
	_, err = execute(t, "bbox", "--lat", "0", "--lon", "0", "--km", "0")
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("err = %v", err)
	}
}

func TestConfigShowMasksKey(t *testing.T) {
	user, defaults := writePair(t)
	out, err := execute(t, "config", "show", "--config", user, "--defaults", defaults)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "secret") {
		t.Fatalf("API key leaked:\n%s", out)
	}
	testkit.MustContain(t, out, "****")
	testkit.MustContain(t, out, "SITE_NAME: Alger")
	testkit.MustContain(t, out, "EPSG_CIBLE: 32631")
}

func TestConfigSave(t *testing.T) {
	user, defaults := writePair(t)
	dst := filepath.Join(t.TempDir(), "saved.yaml")
	if _, err := execute(t, "config", "save", "--config", user, "--defaults", defaults, "--out", dst); err != nil {
		t.Fatalf("config save: %v", err)
	}
	cfg, err := runconfig.LoadPair(dst, defaults, func(string) (string, bool) { return "", false })
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if runconfig.Float(cfg.Lat, 0) != 36.75 || runconfig.Str(cfg.SiteName) != "Alger" {
		t.Fatalf("reloaded = %+v", cfg)
	}
	if _, err := execute(t, "config", "save", "--config", user, "--defaults", defaults); err == nil {
		t.Fatal("missing --out should fail")
	}
}

func TestConfigMissingFile(t *testing.T) {
	_, defaults := writePair(t)
	_, err := execute(t, "config", "show", "--config", filepath.Join(t.TempDir(), "nope.yaml"), "--defaults", defaults)
	if !perr.IsCode(err, perr.ErrorCodeConfig) {
		t.Fatalf("err = %v", err)
	}
}

func TestValidateReportsEnvironment(t *testing.T) {
	user, defaults := writePair(t)
	_, err := execute(t, "validate", "--config", user, "--defaults", defaults)
	if !perr.IsCode(err, perr.ErrorCodeEnvironment) {
		t.Fatalf("err = %v, want environment", err)
	}
}

func TestEnvFile(t *testing.T) {
	dir := t.TempDir()
	if err := loadEnv(filepath.Join(dir, "absent.env"), false); err != nil {
		t.Fatalf("implicit missing env file: %v", err)
	}
	if err := loadEnv(filepath.Join(dir, "absent.env"), true); !perr.IsCode(err, perr.ErrorCodeConfig) {
		t.Fatalf("explicit missing env file: %v", err)
	}

	t.Setenv("HYDROFLOW_TEST_DOTENV", "")
	os.Unsetenv("HYDROFLOW_TEST_DOTENV")
	p := testkit.WriteFile(t, dir, ".env", "HYDROFLOW_TEST_DOTENV=from-file\n")
	if err := loadEnv(p, true); err != nil {
		t.Fatalf("loadEnv: %v", err)
	}
	if got := os.Getenv("HYDROFLOW_TEST_DOTENV"); got != "from-file" {
		t.Fatalf("env = %q", got)
	}
}
