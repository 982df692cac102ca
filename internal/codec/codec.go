// Package codec encodes tile bundles for transport: a msgpack array layout
// written field by field (no reflection), wrapped in a zstd frame.
//
// Layout, all values msgpack arrays:
//
//	bundle   [version, tileH, tileV, sRes, tRes, [record...]]
//	dynamic  [1, dataset, sRes, tRes, tileH, tileV, col, row, series]
//	fire     [2, sRes, tRes, tileH, tileV, col, row, start, [[temp330, conf50, both, count]...]]
//	chunk    [3, dataset, sRes, tRes, tileH, tileV, chunkID, chunkSize, period, raster]
//	static   [4, dataset, sRes, tileH, tileV, chunkID, chunkSize, [int...]]
//	series   [kind, start, [value...]]
//	raster   [kind, [value...]]
package codec

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/couchcryptid/forma-etl/internal/domain"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// SchemaVersion is written first in every bundle. Decoding rejects any other
// version.
const SchemaVersion = 1

// ErrUnsupportedVersion is returned for bundles written with a different
// schema version.
var ErrUnsupportedVersion = errors.New("unsupported bundle schema version")

// Codec converts tile bundles to and from their compressed wire form. A Codec
// is safe for concurrent use.
type Codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// New creates a codec with default zstd settings.
func New() (*Codec, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &Codec{enc: enc, dec: dec}, nil
}

// Close releases the zstd encoder and decoder.
func (c *Codec) Close() error {
	c.dec.Close()
	return c.enc.Close()
}

// Encode serializes and compresses a bundle.
func (c *Codec) Encode(b domain.TileBundle) ([]byte, error) {
	raw, err := Marshal(b)
	if err != nil {
		return nil, err
	}
	return c.enc.EncodeAll(raw, nil), nil
}

// Decode decompresses and parses a bundle.
func (c *Codec) Decode(data []byte) (domain.TileBundle, error) {
	raw, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return domain.TileBundle{}, fmt.Errorf("decompress bundle: %w", err)
	}
	return Unmarshal(raw)
}

// Marshal writes the uncompressed msgpack form of a bundle.
func Marshal(b domain.TileBundle) ([]byte, error) {
	var buf bytes.Buffer
	w := &writer{enc: msgpack.NewEncoder(&buf)}

	w.arrayLen(6)
	w.int(SchemaVersion)
	w.int(b.TileH)
	w.int(b.TileV)
	w.string(b.SRes)
	w.string(b.TRes)
	w.arrayLen(len(b.Records))
	for i, rec := range b.Records {
		if err := w.record(rec); err != nil {
			return nil, fmt.Errorf("encode record %d: %w", i, err)
		}
	}
	if w.err != nil {
		return nil, fmt.Errorf("encode bundle: %w", w.err)
	}
	return buf.Bytes(), nil
}

// Unmarshal parses the uncompressed msgpack form of a bundle.
func Unmarshal(data []byte) (domain.TileBundle, error) {
	r := &reader{dec: msgpack.NewDecoder(bytes.NewReader(data)), limit: len(data)}
	var b domain.TileBundle

	r.expectLen(6)
	if v := r.int(); r.err == nil && v != SchemaVersion {
		return b, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	b.TileH = r.int()
	b.TileV = r.int()
	b.SRes = r.string()
	b.TRes = r.string()
	n := r.arrayLen()
	if r.err != nil {
		return domain.TileBundle{}, fmt.Errorf("decode bundle header: %w", r.err)
	}

	b.Records = make([]domain.Record, 0, n)
	for i := range n {
		rec := r.record()
		if r.err != nil {
			return domain.TileBundle{}, fmt.Errorf("decode record %d: %w", i, r.err)
		}
		b.Records = append(b.Records, rec)
	}
	return b, nil
}

// writer latches the first encoding error so field sequences read linearly.
type writer struct {
	enc *msgpack.Encoder
	err error
}

func (w *writer) arrayLen(n int) {
	if w.err == nil {
		w.err = w.enc.EncodeArrayLen(n)
	}
}

func (w *writer) int(v int) { w.int64(int64(v)) }

func (w *writer) int64(v int64) {
	if w.err == nil {
		w.err = w.enc.EncodeInt(v)
	}
}

func (w *writer) float64(v float64) {
	if w.err == nil {
		w.err = w.enc.EncodeFloat64(v)
	}
}

func (w *writer) string(v string) {
	if w.err == nil {
		w.err = w.enc.EncodeString(v)
	}
}

func (w *writer) record(rec domain.Record) error {
	switch r := rec.(type) {
	case *domain.DynamicSeries:
		w.arrayLen(9)
		w.int(int(domain.RecordDynamic))
		w.string(r.Dataset)
		w.string(r.SRes)
		w.string(r.TRes)
		w.int(r.TileH)
		w.int(r.TileV)
		w.int(r.Col)
		w.int(r.Row)
		return w.series(r.Series)
	case *domain.FireSeries:
		w.arrayLen(9)
		w.int(int(domain.RecordFire))
		w.string(r.SRes)
		w.string(r.TRes)
		w.int(r.TileH)
		w.int(r.TileV)
		w.int(r.Col)
		w.int(r.Row)
		w.int(r.Series.Start)
		w.arrayLen(len(r.Series.Values))
		for _, f := range r.Series.Values {
			w.arrayLen(4)
			w.int(f.Temp330)
			w.int(f.Conf50)
			w.int(f.BothPreds)
			w.int(f.Count)
		}
	case *domain.RawChunk:
		w.arrayLen(10)
		w.int(int(domain.RecordChunk))
		w.string(r.Dataset)
		w.string(r.SRes)
		w.string(r.TRes)
		w.int(r.TileH)
		w.int(r.TileV)
		w.int(r.ChunkID)
		w.int(r.ChunkSize)
		w.int(r.Period)
		return w.raster(r.Values)
	case *domain.StaticChunk:
		w.arrayLen(8)
		w.int(int(domain.RecordStatic))
		w.string(r.Dataset)
		w.string(r.SRes)
		w.int(r.TileH)
		w.int(r.TileV)
		w.int(r.ChunkID)
		w.int(r.ChunkSize)
		w.arrayLen(len(r.Values))
		for _, v := range r.Values {
			w.int64(v)
		}
	default:
		return fmt.Errorf("unknown record type %T", rec)
	}
	return w.err
}

func (w *writer) series(s domain.Series) error {
	w.arrayLen(3)
	w.int(int(s.Kind))
	switch s.Kind {
	case domain.SeriesInt:
		w.int(s.Ints.Start)
		w.arrayLen(len(s.Ints.Values))
		for _, v := range s.Ints.Values {
			w.int64(v)
		}
	case domain.SeriesDouble:
		w.int(s.Doubles.Start)
		w.arrayLen(len(s.Doubles.Values))
		for _, v := range s.Doubles.Values {
			w.float64(v)
		}
	default:
		return fmt.Errorf("unknown series kind %s", s.Kind)
	}
	return w.err
}

func (w *writer) raster(r domain.Raster) error {
	w.arrayLen(2)
	w.int(int(r.Kind))
	switch r.Kind {
	case domain.SeriesInt:
		w.arrayLen(len(r.Ints))
		for _, v := range r.Ints {
			w.int64(v)
		}
	case domain.SeriesDouble:
		w.arrayLen(len(r.Doubles))
		for _, v := range r.Doubles {
			w.float64(v)
		}
	default:
		return fmt.Errorf("unknown raster kind %s", r.Kind)
	}
	return w.err
}

// reader mirrors writer: after the first error every read returns zero.
// Every element takes at least one byte, so no array can be longer than limit.
type reader struct {
	dec   *msgpack.Decoder
	limit int
	err   error
}

func (r *reader) arrayLen() int {
	if r.err != nil {
		return 0
	}
	n, err := r.dec.DecodeArrayLen()
	if err != nil {
		r.err = err
		return 0
	}
	if n < 0 || n > r.limit {
		r.err = fmt.Errorf("invalid array length %d", n)
		return 0
	}
	return n
}

func (r *reader) expectLen(want int) {
	if n := r.arrayLen(); r.err == nil && n != want {
		r.err = fmt.Errorf("array of %d elements, want %d", n, want)
	}
}

func (r *reader) int() int { return int(r.int64()) }

func (r *reader) int64() int64 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.DecodeInt64()
	r.err = err
	return v
}

func (r *reader) float64() float64 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.DecodeFloat64()
	r.err = err
	return v
}

func (r *reader) string() string {
	if r.err != nil {
		return ""
	}
	v, err := r.dec.DecodeString()
	r.err = err
	return v
}

func (r *reader) record() domain.Record {
	n := r.arrayLen()
	kind := domain.RecordKind(r.int())
	if r.err != nil {
		return nil
	}

	want := map[domain.RecordKind]int{
		domain.RecordDynamic: 9,
		domain.RecordFire:    9,
		domain.RecordChunk:   10,
		domain.RecordStatic:  8,
	}[kind]
	if want == 0 {
		r.err = fmt.Errorf("unknown record kind %d", kind)
		return nil
	}
	if n != want {
		r.err = fmt.Errorf("record kind %d has %d fields, want %d", kind, n, want)
		return nil
	}

	switch kind {
	case domain.RecordDynamic:
		rec := &domain.DynamicSeries{
			Dataset: r.string(),
			SRes:    r.string(),
			TRes:    r.string(),
			TileH:   r.int(),
			TileV:   r.int(),
			Col:     r.int(),
			Row:     r.int(),
		}
		rec.Series = r.series()
		return rec
	case domain.RecordFire:
		rec := &domain.FireSeries{
			SRes:  r.string(),
			TRes:  r.string(),
			TileH: r.int(),
			TileV: r.int(),
			Col:   r.int(),
			Row:   r.int(),
		}
		start := r.int()
		values := make([]domain.FireTuple, r.arrayLen())
		for i := range values {
			r.expectLen(4)
			values[i] = domain.FireTuple{Temp330: r.int(), Conf50: r.int(), BothPreds: r.int(), Count: r.int()}
		}
		rec.Series = domain.NewTimeSeries(start, values)
		return rec
	case domain.RecordChunk:
		rec := &domain.RawChunk{
			Dataset:   r.string(),
			SRes:      r.string(),
			TRes:      r.string(),
			TileH:     r.int(),
			TileV:     r.int(),
			ChunkID:   r.int(),
			ChunkSize: r.int(),
			Period:    r.int(),
		}
		rec.Values = r.raster()
		return rec
	default:
		rec := &domain.StaticChunk{
			Dataset:   r.string(),
			SRes:      r.string(),
			TileH:     r.int(),
			TileV:     r.int(),
			ChunkID:   r.int(),
			ChunkSize: r.int(),
		}
		rec.Values = make([]int64, r.arrayLen())
		for i := range rec.Values {
			rec.Values[i] = r.int64()
		}
		return rec
	}
}

func (r *reader) series() domain.Series {
	r.expectLen(3)
	kind := domain.SeriesKind(r.int())
	start := r.int()
	n := r.arrayLen()
	if r.err != nil {
		return domain.Series{}
	}
	switch kind {
	case domain.SeriesInt:
		values := make([]int64, n)
		for i := range values {
			values[i] = r.int64()
		}
		return domain.IntSeries(start, values)
	case domain.SeriesDouble:
		values := make([]float64, n)
		for i := range values {
			values[i] = r.float64()
		}
		return domain.DoubleSeries(start, values)
	default:
		r.err = fmt.Errorf("unknown series kind %d", kind)
		return domain.Series{}
	}
}

func (r *reader) raster() domain.Raster {
	r.expectLen(2)
	kind := domain.SeriesKind(r.int())
	n := r.arrayLen()
	if r.err != nil {
		return domain.Raster{}
	}
	switch kind {
	case domain.SeriesInt:
		values := make([]int64, n)
		for i := range values {
			values[i] = r.int64()
		}
		return domain.Raster{Kind: kind, Ints: values}
	case domain.SeriesDouble:
		values := make([]float64, n)
		for i := range values {
			values[i] = r.float64()
		}
		return domain.Raster{Kind: kind, Doubles: values}
	default:
		r.err = fmt.Errorf("unknown raster kind %d", kind)
		return domain.Raster{}
	}
}
