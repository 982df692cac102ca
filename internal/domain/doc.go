// Package domain reconstructs and aggregates FORMA satellite-raster data.
//
// # Data Source
//
// Raster measurements arrive fragmented: an upstream exporter cuts each MODIS
// tile into fixed-size pixel chunks and publishes one chunk per (dataset,
// chunk, period). Datasets are vegetation index ("ndvi"), precipitation
// ("precl"), fire detections ("fire", already per pixel) and static per-pixel
// properties such as vegetation continuous fields ("vcf"). All records for one
// tile travel together in a [TileBundle].
//
// # Grid Conventions
//
// Tiles:
//
//	Tiles of the global sinusoidal grid are addressed by (h, v), e.g. h28v08.
//	Pixels inside a tile are addressed by (col, row), zero-based from the
//	upper-left corner. The tile extent depends on spatial resolution:
//	  "250"  → 4800 × 4800
//	  "500"  → 2400 × 2400
//	  "1000" → 1200 × 1200
//	Chunk pixel p of chunk c (chunk size n) is tile pixel c*n + p, row-major.
//
// Periods:
//
//	A period is an integer index of a fixed-length calendar interval since
//	2000-01-01: 8-day and 16-day periods restart every year (46 and 23 per
//	year), 32-day periods are calendar months. See [TemporalResolver].
//
// Missing values:
//
//	Gaps are never errors. Absent periods and absent pixels are filled with
//	Params.MissingValue (conventionally -9999) and carried through; consumers
//	test for it explicitly. A [ForaValue] is missing when all three of its
//	drop/statistic fields equal the missing value.
//
// # Processing Stages
//
//	Expand            sparse index→value entries into a dense array
//	Reconstruct       period-sorted chunks into per-pixel time series
//	Adjust            several series onto their common overlapping window
//	AdjustFires       a fire series onto the estimation window
//	Partition         tile pixels into fixed-size, padded windows
//	AggregateNeighbors per-pixel statistics over spatial neighbors
//	ToGlobal          window-local indices back to tile pixel coordinates
//
// [ProcessTile] chains the stages for one tile bundle and returns one
// [OutputRecord] per pixel per estimation period.
//
// # Failure Isolation
//
// Per-key failures ([ErrNoOverlap], [ErrInconsistentChunkWidth],
// [ErrUnsortedInput]) are reported as *[KeyError] values. They abort only the
// affected pixel or chunk group; the rest of the tile is still processed.
package domain
