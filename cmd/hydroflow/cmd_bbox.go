package main

import (
	"encoding/json"
	"fmt"

	"hydroflow/internal/core/geo"
	perr "hydroflow/internal/platform/errors"

	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"
)

func newBBoxCmd() *cobra.Command {
	var (
		lat, lon, km float64
		asGeoJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "bbox",
		Short: "Print the WGS84 request box around a point",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch {
			case lat < -90 || lat > 90:
				return perr.WithField(perr.Validationf("--lat must be within [-90, 90]"), "lat")
			case lon < -180 || lon > 180:
				return perr.WithField(perr.Validationf("--lon must be within [-180, 180]"), "lon")
			case km <= 0:
				return perr.WithField(perr.Validationf("--km must be positive"), "km")
			}
			b := geo.BBoxWGS84(lat, lon, km)
			if !asGeoJSON {
				fmt.Fprintln(cmd.OutOrStdout(), b.String())
				return nil
			}
			feat := geojson.NewFeature(b.Bound().ToPolygon())
			feat.BBox = geojson.NewBBox(b.Bound())
			feat.Properties["lat"] = lat
			feat.Properties["lon"] = lon
			feat.Properties["km"] = km
			out, err := json.Marshal(feat)
			if err != nil {
				return perr.Wrap(err, perr.ErrorCodeUnknown, "encode bbox")
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	fl := cmd.Flags()
	fl.Float64Var(&lat, "lat", 0, "latitude in decimal degrees")
	fl.Float64Var(&lon, "lon", 0, "longitude in decimal degrees")
	fl.Float64Var(&km, "km", 0, "box size in kilometres")
	fl.BoolVar(&asGeoJSON, "geojson", false, "print a GeoJSON polygon feature")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	_ = cmd.MarkFlagRequired("km")
	return cmd
}
