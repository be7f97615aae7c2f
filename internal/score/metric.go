package score

import (
	"github.com/verocta/spendscore/internal/domain"
)

// NeutralScore is returned by a metric that cannot judge the batch: sparse
// data degrades to a mid-range score instead of a fabricated extreme.
const NeutralScore = 50.0

// MetricResult is one metric's bounded sub-score with the supporting
// statistics downstream consumers use for explanation.
type MetricResult struct {
	Name             string             `json:"name"`
	Score            float64            `json:"score"`
	InsufficientData bool               `json:"insufficient_data,omitempty"`
	Stats            map[string]float64 `json:"stats"`
}

// Calculator computes one metric over a read-only batch. Implementations are
// pure: the same batch always yields the same result, independent of
// execution order or wall clock.
type Calculator interface {
	Name() string
	Compute(batch *domain.Batch) MetricResult
}

func neutral(name string, stats map[string]float64) MetricResult {
	if stats == nil {
		stats = map[string]float64{}
	}
	return MetricResult{
		Name:             name,
		Score:            NeutralScore,
		InsufficientData: true,
		Stats:            stats,
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// sparse reports whether the batch is below the per-metric minimum size.
func sparse(batch *domain.Batch, cfg Config) bool {
	return len(batch.Transactions) < cfg.MinTransactions
}
