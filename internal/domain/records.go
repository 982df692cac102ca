package domain

// RecordKind tags the input record variants.
type RecordKind uint8

const (
	RecordDynamic RecordKind = 1
	RecordFire    RecordKind = 2
	RecordChunk   RecordKind = 3
	RecordStatic  RecordKind = 4
)

// Record is one input tuple of a tile bundle. The set of implementations is
// closed: *DynamicSeries, *FireSeries, *RawChunk and *StaticChunk.
type Record interface {
	Kind() RecordKind
}

// Raster is a flat int|double array, the per-pixel payload of one chunk.
type Raster struct {
	Kind    SeriesKind
	Ints    []int64
	Doubles []float64
}

// Float64s widens the payload to float64.
func (r Raster) Float64s() []float64 {
	if r.Kind == SeriesDouble {
		return r.Doubles
	}
	out := make([]float64, len(r.Ints))
	for i, v := range r.Ints {
		out[i] = float64(v)
	}
	return out
}

// DynamicSeries is an already reconstructed per-pixel series.
type DynamicSeries struct {
	Dataset string
	SRes    string
	TRes    string
	TileH   int
	TileV   int
	Col     int
	Row     int
	Series  Series
}

func (*DynamicSeries) Kind() RecordKind { return RecordDynamic }

// FireSeries carries per-pixel fire detections per period.
type FireSeries struct {
	SRes   string
	TRes   string
	TileH  int
	TileV  int
	Col    int
	Row    int
	Series TimeSeries[FireTuple]
}

func (*FireSeries) Kind() RecordKind { return RecordFire }

// RawChunk is one period of one dataset for a run of ChunkSize tile pixels.
type RawChunk struct {
	Dataset   string
	SRes      string
	TRes      string
	TileH     int
	TileV     int
	ChunkID   int
	ChunkSize int
	Period    int
	Values    Raster
}

func (*RawChunk) Kind() RecordKind { return RecordChunk }

// StaticChunk holds time-invariant per-pixel properties (land cover, VCF,
// admin codes) for a run of ChunkSize tile pixels.
type StaticChunk struct {
	Dataset   string
	SRes      string
	TileH     int
	TileV     int
	ChunkID   int
	ChunkSize int
	Values    []int64
}

func (*StaticChunk) Kind() RecordKind { return RecordStatic }

// TileBundle is every input record for one tile: the unit of work.
type TileBundle struct {
	TileH   int
	TileV   int
	SRes    string
	TRes    string
	Records []Record
}

// Dataset names understood by ProcessTile.
const (
	DatasetNDVI  = "ndvi"
	DatasetPrecl = "precl"
	DatasetVCF   = "vcf"
)
