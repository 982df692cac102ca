// Command genmock generates synthetic tile bundles for local runs and tests.
// Bundles are written to a directory for the file source, or published to a
// Kafka topic for the streaming pipeline.
//
// Usage:
//
//	go run ./cmd/genmock --out data/bundles --tiles 28:8,29:8
//	go run ./cmd/genmock --brokers localhost:9092 --topic forma-tile-bundles
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	fileadapter "github.com/couchcryptid/forma-etl/internal/adapter/file"
	"github.com/couchcryptid/forma-etl/internal/codec"
	"github.com/couchcryptid/forma-etl/internal/domain"
	"github.com/couchcryptid/forma-etl/internal/mockdata"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"
)

type flags struct {
	out     string
	brokers string
	topic   string
	tiles   string
	opts    mockdata.Options
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	f := flags{opts: mockdata.DefaultOptions()}

	cmd := &cobra.Command{
		Use:   "genmock",
		Short: "Generate synthetic FORMA tile bundles",
		Long: `Generate deterministic synthetic tile bundles: integer vegetation chunks,
precipitation series, VCF cover and fire series with a simulated clearing
event. Write them to --out or publish them with --brokers/--topic.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.out, "out", "", "directory to write .bundle files to")
	fl.StringVar(&f.brokers, "brokers", "", "comma-separated Kafka brokers to publish to")
	fl.StringVar(&f.topic, "topic", "forma-tile-bundles", "Kafka topic to publish to")
	fl.StringVar(&f.tiles, "tiles", "28:8", "comma-separated h:v tiles to generate")
	fl.StringVar(&f.opts.SRes, "s-res", f.opts.SRes, "spatial resolution code")
	fl.StringVar(&f.opts.TRes, "t-res", f.opts.TRes, "temporal resolution code")
	fl.IntVar(&f.opts.Cols, "cols", f.opts.Cols, "block width in pixels (must divide the tile edge)")
	fl.IntVar(&f.opts.Rows, "rows", f.opts.Rows, "block height in pixels")
	fl.IntVar(&f.opts.FirstPeriod, "first-period", f.opts.FirstPeriod, "first period index")
	fl.IntVar(&f.opts.Periods, "periods", f.opts.Periods, "number of periods")
	fl.IntVar(&f.opts.ClearingPeriod, "clearing-period", f.opts.ClearingPeriod, "period at which cleared pixels lose vegetation")
	fl.Float64Var(&f.opts.ClearingRate, "clearing-rate", f.opts.ClearingRate, "share of pixels cleared")
	fl.Float64Var(&f.opts.MissingRate, "missing-rate", f.opts.MissingRate, "share of vegetation values missing")
	fl.Uint64Var(&f.opts.Seed, "seed", f.opts.Seed, "random seed")
	cmd.MarkFlagsOneRequired("out", "brokers")
	cmd.MarkFlagsMutuallyExclusive("out", "brokers")

	return cmd
}

func run(ctx context.Context, f flags) error {
	tiles, err := parseTiles(f.tiles)
	if err != nil {
		return err
	}

	c, err := codec.New()
	if err != nil {
		return err
	}
	defer c.Close()

	var producer *kafkago.Writer
	if f.brokers != "" {
		producer = &kafkago.Writer{
			Addr:         kafkago.TCP(sharedcfg.ParseBrokers(f.brokers)...),
			Topic:        f.topic,
			RequiredAcks: kafkago.RequireAll,
		}
		defer producer.Close()
	} else if err := os.MkdirAll(f.out, 0o755); err != nil {
		return err
	}

	for i, tile := range tiles {
		opts := f.opts
		opts.TileH, opts.TileV = tile[0], tile[1]
		opts.Seed = f.opts.Seed + uint64(i)

		bundle, err := mockdata.Generate(opts)
		if err != nil {
			return fmt.Errorf("tile %d:%d: %w", tile[0], tile[1], err)
		}
		data, err := c.Encode(bundle)
		if err != nil {
			return fmt.Errorf("tile %d:%d: %w", tile[0], tile[1], err)
		}

		key := fmt.Sprintf("%d_%d", tile[0], tile[1])
		if producer != nil {
			err = producer.WriteMessages(ctx, kafkago.Message{
				Key:   []byte(key),
				Value: data,
				Time:  time.Now(),
				Headers: []kafkago.Header{
					{Key: "schema_version", Value: []byte(strconv.Itoa(codec.SchemaVersion))},
				},
			})
			log.Printf("%s: published %d records (%d bytes) to %s", key, len(bundle.Records), len(data), f.topic)
		} else {
			path := filepath.Join(f.out, key+fileadapter.BundleExt)
			err = writeAtomic(path, data)
			log.Printf("%s: wrote %d records (%d bytes) to %s", key, len(bundle.Records), len(data), path)
		}
		if err != nil {
			return fmt.Errorf("tile %d:%d: %w", tile[0], tile[1], err)
		}
		printStats(bundle)
	}
	return nil
}

func parseTiles(s string) ([][2]int, error) {
	var tiles [][2]int
	for _, part := range strings.Split(s, ",") {
		hv := strings.Split(strings.TrimSpace(part), ":")
		if len(hv) != 2 {
			return nil, fmt.Errorf("invalid tile %q: want h:v", part)
		}
		h, errH := strconv.Atoi(hv[0])
		v, errV := strconv.Atoi(hv[1])
		if errH != nil || errV != nil || h < 0 || h > domain.MaxTileH || v < 0 || v > domain.MaxTileV {
			return nil, fmt.Errorf("invalid tile %q", part)
		}
		tiles = append(tiles, [2]int{h, v})
	}
	return tiles, nil
}

// writeAtomic writes to a temporary name and renames, so a watching source
// never reads a partial bundle.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func printStats(b domain.TileBundle) {
	counts := map[domain.RecordKind]int{}
	for _, r := range b.Records {
		counts[r.Kind()]++
	}
	fmt.Printf("  dynamic=%d fire=%d chunk=%d static=%d\n",
		counts[domain.RecordDynamic], counts[domain.RecordFire], counts[domain.RecordChunk], counts[domain.RecordStatic])
}
