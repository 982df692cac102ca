package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// OutputFieldCount is the number of tab-separated fields in a record line.
const OutputFieldCount = 22

// OutputRecord is the final per-pixel, per-period result.
type OutputRecord struct {
	Coord  PixelCoordinate
	Period int
	Value  ForaValue
	Stats  NeighborStats
}

// Fields renders the record in its fixed field order:
//
//	tileH tileV col row temp330 conf50 bothPreds fireCount
//	shortDrop longDrop tStat
//	temp330_n conf50_n bothPreds_n fireCount_n
//	numNeighbors avgShortDrop minShortDrop avgLongDrop minLongDrop avgTStat minTStat
func (r OutputRecord) Fields() []string {
	fire := r.Value.FireOrZero()
	n := r.Stats
	ints := func(vs ...int) []string {
		out := make([]string, len(vs))
		for i, v := range vs {
			out[i] = strconv.Itoa(v)
		}
		return out
	}
	floats := func(vs ...float64) []string {
		out := make([]string, len(vs))
		for i, v := range vs {
			out[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		return out
	}

	fields := make([]string, 0, OutputFieldCount)
	fields = append(fields, ints(r.Coord.TileH, r.Coord.TileV, r.Coord.Col, r.Coord.Row)...)
	fields = append(fields, ints(fire.Temp330, fire.Conf50, fire.BothPreds, fire.Count)...)
	fields = append(fields, floats(r.Value.ShortDrop, r.Value.LongDrop, r.Value.TStat)...)
	fields = append(fields, ints(n.Fire.Temp330, n.Fire.Conf50, n.Fire.BothPreds, n.Fire.Count)...)
	fields = append(fields, ints(n.Count)...)
	fields = append(fields, floats(n.AvgShortDrop, n.MinShortDrop, n.AvgLongDrop, n.MinLongDrop, n.AvgTStat, n.MinTStat)...)
	return fields
}

// Line renders the record as one tab-separated line without a newline.
func (r OutputRecord) Line() string {
	return strings.Join(r.Fields(), "\t")
}

// ParseRecordLine reads a line produced by Line. The period is not part of
// the line and is left zero.
func ParseRecordLine(line string) (OutputRecord, error) {
	parts := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(parts) != OutputFieldCount {
		return OutputRecord{}, fmt.Errorf("parse record line: %d fields, want %d", len(parts), OutputFieldCount)
	}

	var ints [13]int
	intPos := []int{0, 1, 2, 3, 4, 5, 6, 7, 11, 12, 13, 14, 15}
	for i, p := range intPos {
		v, err := strconv.Atoi(parts[p])
		if err != nil {
			return OutputRecord{}, fmt.Errorf("parse record line: field %d: %w", p+1, err)
		}
		ints[i] = v
	}
	var fl [9]float64
	floatPos := []int{8, 9, 10, 16, 17, 18, 19, 20, 21}
	for i, p := range floatPos {
		v, err := strconv.ParseFloat(parts[p], 64)
		if err != nil {
			return OutputRecord{}, fmt.Errorf("parse record line: field %d: %w", p+1, err)
		}
		fl[i] = v
	}

	fire := FireTuple{Temp330: ints[4], Conf50: ints[5], BothPreds: ints[6], Count: ints[7]}
	return OutputRecord{
		Coord: PixelCoordinate{TileH: ints[0], TileV: ints[1], Col: ints[2], Row: ints[3]},
		Value: ForaValue{Fire: &fire, ShortDrop: fl[0], LongDrop: fl[1], TStat: fl[2]},
		Stats: NeighborStats{
			Fire:         FireTuple{Temp330: ints[8], Conf50: ints[9], BothPreds: ints[10], Count: ints[11]},
			Count:        ints[12],
			AvgShortDrop: fl[3],
			MinShortDrop: fl[4],
			AvgLongDrop:  fl[5],
			MinLongDrop:  fl[6],
			AvgTStat:     fl[7],
			MinTStat:     fl[8],
		},
	}, nil
}

// RecordKey identifies the (tile, period) a record belongs to, e.g. "28:8:693".
func RecordKey(tileH, tileV, period int) string {
	return fmt.Sprintf("%d:%d:%d", tileH, tileV, period)
}

// SerializeRecord builds the sink message for one record. periodDate is the
// calendar date of the period; processedAt stamps when the tile finished.
func SerializeRecord(r OutputRecord, periodDate string, processedAt time.Time) OutputEvent {
	return OutputEvent{
		Key:   []byte(RecordKey(r.Coord.TileH, r.Coord.TileV, r.Period)),
		Value: []byte(r.Line()),
		Headers: map[string]string{
			"period":       strconv.Itoa(r.Period),
			"period_date":  periodDate,
			"processed_at": processedAt.UTC().Format(time.RFC3339),
		},
	}
}
