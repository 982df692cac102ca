package kafka

import (
	"testing"
	"time"

	"github.com/couchcryptid/forma-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("28:8"),
		Value:     []byte{0x28, 0xb5, 0x2f, 0xfd},
		Topic:     "forma-tile-bundles",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "schema_version", Value: []byte("1")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("28:8"), raw.Key)
	assert.Equal(t, msg.Value, raw.Value)
	assert.Equal(t, "forma-tile-bundles", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "1", raw.Headers["schema_version"])
	assert.Nil(t, raw.Commit)
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	record := domain.OutputRecord{
		Coord:  domain.PixelCoordinate{TileH: 28, TileV: 8, Col: 3, Row: 5},
		Period: 693,
		Value:  domain.ForaValue{ShortDrop: -1.5, LongDrop: 0.5, TStat: 2},
	}

	msg := serializeToMessage(domain.SerializeRecord(record, "2015-03-22", now))

	assert.Equal(t, []byte("28:8:693"), msg.Key)
	assert.Equal(t, record.Line(), string(msg.Value))
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "period", msg.Headers[0].Key)
	assert.Equal(t, []byte("693"), msg.Headers[0].Value)
	assert.Equal(t, "period_date", msg.Headers[1].Key)
	assert.Equal(t, []byte("2015-03-22"), msg.Headers[1].Value)
	assert.Equal(t, "processed_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)
}

func TestSerializeToMessage_NoHeaders(t *testing.T) {
	msg := serializeToMessage(domain.OutputEvent{Key: []byte("k"), Value: []byte("v")})
	assert.Empty(t, msg.Headers)
	assert.Equal(t, []byte("v"), msg.Value)
}
