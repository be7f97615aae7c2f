package score

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/verocta/spendscore/internal/domain"
)

// Tier is the discrete label derived from the overall score.
type Tier string

const (
	TierExcellent Tier = "Excellent"
	TierGood      Tier = "Good"
	TierFair      Tier = "Fair"
	TierPoor      Tier = "Poor"
)

// TierFor maps a rounded overall score onto its tier.
func TierFor(score int) Tier {
	switch {
	case score >= 80:
		return TierExcellent
	case score >= 60:
		return TierGood
	case score >= 40:
		return TierFair
	default:
		return TierPoor
	}
}

// WeightedMetric pairs a metric result with its fixed weight.
type WeightedMetric struct {
	MetricResult
	Weight float64 `json:"weight"`
}

// Result is the complete SpendScore for one batch: the rounded overall
// score, its tier, the six weighted metric results in fixed order, and a
// low-confidence flag when most metrics lacked data. Immutable once created.
type Result struct {
	Score         int              `json:"score"`
	Tier          Tier             `json:"tier"`
	Metrics       []WeightedMetric `json:"metrics"`
	LowConfidence bool             `json:"low_confidence"`
	ComputedAt    time.Time        `json:"computed_at"`
}

// Engine runs the six calculators and aggregates their results. The engine
// is stateless across batches and safe for concurrent use.
type Engine struct {
	cfg     Config
	calcs   []Calculator
	weights []float64
}

// NewEngine builds the engine, validating the configuration.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("NewEngine: %w", err)
	}
	return &Engine{
		cfg: cfg,
		calcs: []Calculator{
			&frequencyCalc{cfg: cfg},
			&concentrationCalc{cfg: cfg},
			&wasteCalc{cfg: cfg},
			&volatilityCalc{cfg: cfg},
			&subscriptionCalc{cfg: cfg},
			&savingsCalc{cfg: cfg},
		},
		weights: []float64{
			cfg.Weights.Frequency,
			cfg.Weights.Concentration,
			cfg.Weights.Waste,
			cfg.Weights.Volatility,
			cfg.Weights.Subscriptions,
			cfg.Weights.Savings,
		},
	}, nil
}

// Score computes the SpendScore for a batch. The calculators have no data
// dependency on each other and run concurrently; results materialize in
// fixed declaration order so the outcome is independent of scheduling.
// computedAt is the caller's reference time, not the wall clock.
func (e *Engine) Score(batch *domain.Batch, computedAt time.Time) *Result {
	results := make([]MetricResult, len(e.calcs))

	var wg sync.WaitGroup
	for i, calc := range e.calcs {
		wg.Add(1)
		go func(i int, calc Calculator) {
			defer wg.Done()
			results[i] = calc.Compute(batch)
		}(i, calc)
	}
	wg.Wait()

	var weighted float64
	var insufficient int
	metrics := make([]WeightedMetric, len(results))
	for i, r := range results {
		weighted += e.weights[i] * r.Score
		if r.InsufficientData {
			insufficient++
		}
		metrics[i] = WeightedMetric{MetricResult: r, Weight: e.weights[i]}
	}

	overall := int(math.Round(weighted))
	if overall < 0 {
		overall = 0
	}
	if overall > 100 {
		overall = 100
	}

	return &Result{
		Score:         overall,
		Tier:          TierFor(overall),
		Metrics:       metrics,
		LowConfidence: insufficient*2 > len(results),
		ComputedAt:    computedAt,
	}
}
