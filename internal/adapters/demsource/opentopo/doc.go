// Package opentopo downloads global DEM tiles from the OpenTopography
// globaldem API
//
// A request covers one WGS84 bounding box and returns a single GeoTIFF.
// The body is streamed to disk through a .part file that is renamed only
// once the transfer completes, so a failed run never leaves a truncated
// raster where the preprocessor expects a whole one.
package opentopo
