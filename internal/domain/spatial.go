package domain

import "fmt"

// Largest tile indices of the MODIS sinusoidal grid.
const (
	MaxTileH = 35
	MaxTileV = 17
)

// PixelCoordinate locates a pixel on the global grid.
type PixelCoordinate struct {
	TileH int
	TileV int
	Col   int
	Row   int
}

// PixelsPerTile returns the tile edge length in pixels for a spatial
// resolution code in metres.
func PixelsPerTile(sRes string) (int, error) {
	switch sRes {
	case "250":
		return 4800, nil
	case "500":
		return 2400, nil
	case "1000":
		return 1200, nil
	default:
		return 0, fmt.Errorf("unknown spatial resolution %q", sRes)
	}
}

// ChunkPixel maps offset p of chunk chunkID (chunkSize pixels per chunk) to
// tile (col, row), reading the tile row-major.
func ChunkPixel(edge, chunkID, chunkSize, p int) (col, row int, err error) {
	idx := chunkID*chunkSize + p
	if idx < 0 || idx >= edge*edge {
		return 0, 0, &KeyError{
			Kind:   KindInvalidInput,
			Detail: fmt.Sprintf("chunk %d offset %d lies outside a %d-pixel tile", chunkID, p, edge),
		}
	}
	return idx % edge, idx / edge, nil
}
