package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/velodata/bike-count-etl/internal/domain"
)

// FeatureTransformer composes the domain passes over one dataset window:
// parse, dead-period cleaning, temporal encoding, weather features,
// serialization.
type FeatureTransformer struct {
	encoder          *domain.FeatureEncoder
	cleanDeadPeriods bool
	logger           *slog.Logger
}

// NewTransformer builds a FeatureTransformer. When cleanDeadPeriods is false
// the cleaner pass is skipped and every parsed row is encoded.
func NewTransformer(encoder *domain.FeatureEncoder, cleanDeadPeriods bool, logger *slog.Logger) *FeatureTransformer {
	return &FeatureTransformer{
		encoder:          encoder,
		cleanDeadPeriods: cleanDeadPeriods,
		logger:           logger,
	}
}

// TransformDataset parses every raw row, drops dead counter-days, encodes the
// survivors, and serializes them. Rows that violate the input contract are
// collected in Result.Malformed rather than failing the batch. An error is
// returned only when a parsed row cannot be encoded or serialized, which
// means a bug rather than bad input.
func (t *FeatureTransformer) TransformDataset(_ context.Context, raws []domain.RawEvent) (Result, error) {
	result := Result{
		Processed: make([]domain.RawEvent, 0, len(raws)),
	}

	observations := make([]domain.Observation, 0, len(raws))
	for _, raw := range raws {
		obs, err := domain.ParseRawRow(raw)
		if err != nil {
			t.logger.Debug("parse raw row failed", "error", err, "offset", raw.Offset)
			result.Malformed = append(result.Malformed, raw)
			continue
		}
		observations = append(observations, obs)
		result.Processed = append(result.Processed, raw)
	}

	kept := observations
	if t.cleanDeadPeriods {
		var periods []domain.DeadPeriod
		kept, periods = domain.RemoveDeadPeriods(observations)
		result.DeadPeriodDays = len(periods)
		result.DroppedRows = len(observations) - len(kept)
	}

	encoded, err := t.encoder.EncodeDataset(kept)
	if err != nil {
		return Result{}, fmt.Errorf("transform dataset: %w", err)
	}
	encoded = domain.AddWeatherFeatures(encoded)

	result.Outputs = make([]domain.OutputEvent, 0, len(encoded))
	for _, row := range encoded {
		out, err := domain.SerializeFeatureRow(row)
		if err != nil {
			return Result{}, fmt.Errorf("transform dataset: %w", err)
		}
		result.Outputs = append(result.Outputs, out)
	}

	return result, nil
}
