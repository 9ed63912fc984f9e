//go:build integration_gdal

package gdal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/airbusgeo/godal"
)

func TestCleanerRewritesBandAndNoData(t *testing.T) {
	registerOnce.Do(godal.RegisterAll)

	path := filepath.Join(t.TempDir(), "cleaned_dem_temp.tif")
	ds, err := godal.Create(godal.GTiff, path, 1, godal.Float32, 4, 300)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	cells := make([]float32, 4*300)
	for i := range cells {
		cells[i] = 850
	}
	cells[0], cells[5], cells[4*299+3] = -500, 20000, -32768
	if err := ds.Bands()[0].Write(0, 0, cells, 4, 300); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ds.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	stats, err := Cleaner{}.Clean(context.Background(), path, -9999)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if stats.Replaced != 3 || stats.Width != 4 || stats.Height != 300 {
		t.Fatalf("stats = %+v", stats)
	}

	ds, err = godal.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = ds.Close() }()
	band := ds.Bands()[0]
	if nd, ok := band.NoData(); !ok || nd != -9999 {
		t.Fatalf("band nodata = %v %v", nd, ok)
	}
	if got := ds.Metadata("nodata"); got != "-9999" {
		t.Fatalf("nodata tag = %q", got)
	}
	out := make([]float32, 4*300)
	if err := band.Read(0, 0, out, 4, 300); err != nil {
		t.Fatalf("read: %v", err)
	}
	if out[0] != -9999 || out[5] != -9999 || out[4*299+3] != -9999 || out[1] != 850 {
		t.Fatalf("cells not cleaned: %v %v %v %v", out[0], out[5], out[4*299+3], out[1])
	}
}
