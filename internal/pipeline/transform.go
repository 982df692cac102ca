package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/forma-etl/internal/domain"
	"github.com/couchcryptid/forma-etl/internal/observability"
)

// BundleDecoder turns a raw event payload into a tile bundle.
type BundleDecoder interface {
	Decode(data []byte) (domain.TileBundle, error)
}

// ForaTransformer implements Transformer by running the FORMA stages over
// one tile bundle.
type ForaTransformer struct {
	decoder  BundleDecoder
	params   domain.Params
	resolver domain.TemporalResolver
	detector domain.TrendDetector
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewTransformer creates a ForaTransformer for a fixed parameter set.
func NewTransformer(
	decoder BundleDecoder,
	params domain.Params,
	resolver domain.TemporalResolver,
	detector domain.TrendDetector,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *ForaTransformer {
	return &ForaTransformer{
		decoder:  decoder,
		params:   params,
		resolver: resolver,
		detector: detector,
		logger:   logger,
		metrics:  metrics,
	}
}

// Transform decodes the bundle, processes the tile and serializes one event
// per output record. Per-pixel failures are logged and counted; only
// bundle-wide problems are returned as errors.
func (t *ForaTransformer) Transform(ctx context.Context, raw domain.RawEvent) ([]domain.OutputEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	bundle, err := t.decoder.Decode(raw.Value)
	if err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}

	res, err := domain.ProcessTile(bundle, t.params, t.resolver, t.detector)
	if err != nil {
		return nil, err
	}

	for kind, n := range res.FailuresByKind() {
		t.metrics.KeyFailures.WithLabelValues(string(kind)).Add(float64(n))
	}
	for _, f := range res.Failures {
		t.logger.Debug("key dropped", "tile_h", res.TileH, "tile_v", res.TileV, "error", f)
	}

	dates := make(map[int]string)
	out := make([]domain.OutputEvent, 0, len(res.Records))
	for _, r := range res.Records {
		date, ok := dates[r.Period]
		if !ok {
			date, err = t.resolver.PeriodToDate(t.params.TRes, r.Period)
			if err != nil {
				return nil, fmt.Errorf("period %d: %w", r.Period, err)
			}
			dates[r.Period] = date
		}
		out = append(out, domain.SerializeRecord(r, date, res.ProcessedAt))
	}

	t.metrics.PixelsProcessed.Add(float64(res.Pixels))
	t.metrics.PixelsFiltered.Add(float64(res.Filtered))
	t.metrics.WindowsAggregated.Add(float64(res.Windows))
	t.metrics.TileProcessingDuration.Observe(time.Since(start).Seconds())

	t.logger.Info("tile processed",
		"tile_h", res.TileH,
		"tile_v", res.TileV,
		"pixels", res.Pixels,
		"filtered", res.Filtered,
		"dropped", len(res.Failures),
		"records", len(out),
	)
	return out, nil
}
